package checkout

import (
	"context"
	"fmt"

	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// LineViolation exposes the data returned to callers when a cart line
// fails validation.
type LineViolation struct {
	ProductID    uuid.UUID `json:"product_id"`
	RequestedQty int       `json:"requested_qty"`
	Reason       string    `json:"reason"`
}

type resolvedLine struct {
	Line
	Product *models.Product
}

// resolveLines joins cart lines with their catalog rows, aggregating every
// failing line instead of stopping at the first.
func (s *service) resolveLines(ctx context.Context, lines []Line) ([]resolvedLine, error) {
	var (
		resolved   []resolvedLine
		aggregated error
		violations []LineViolation
	)
	for _, line := range lines {
		if line.Qty <= 0 {
			err := fmt.Errorf("line %s: quantity must be positive", line.ID)
			aggregated = multierr.Append(aggregated, err)
			violations = append(violations, LineViolation{
				ProductID:    line.ProductID,
				RequestedQty: line.Qty,
				Reason:       "quantity must be positive",
			})
			continue
		}
		product, err := s.catalog.GetActive(ctx, line.ProductID)
		if err != nil {
			aggregated = multierr.Append(aggregated, err)
			violations = append(violations, LineViolation{
				ProductID:    line.ProductID,
				RequestedQty: line.Qty,
				Reason:       violationReason(err),
			})
			continue
		}
		resolved = append(resolved, resolvedLine{Line: line, Product: product})
	}

	if aggregated != nil {
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeValidation,
			aggregated,
			fmt.Sprintf("%d cart line(s) failed validation", len(violations)),
		).WithDetails(map[string]any{"violations": violations})
	}
	return resolved, nil
}

func violationReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return "product lookup failed"
}
