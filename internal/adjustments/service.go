package adjustments

import (
	"context"
	"fmt"

	"github.com/adriansoto/stockpilot-backend/internal/audit"
	"github.com/adriansoto/stockpilot-backend/internal/catalog"
	"github.com/adriansoto/stockpilot-backend/internal/ledger"
	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
	"github.com/google/uuid"
)

// AdjustmentInput is one manual stock correction.
type AdjustmentInput struct {
	ProductID uuid.UUID
	Direction enums.AdjustmentDirection
	Qty       int
	Reason    enums.AdjustmentReason
	ActorID   uuid.UUID
	Notes     *string
}

// AdjustmentPreview shows the caller what an adjustment would do. It is
// advisory only: commit re-validates against live stock, never against a
// previously issued preview.
type AdjustmentPreview struct {
	ProductID uuid.UUID `json:"product_id"`
	OnHand    int       `json:"on_hand"`
	Delta     int       `json:"delta"`
	Projected int       `json:"projected"`
	Allowed   bool      `json:"allowed"`
}

// Service applies manual corrections through the ledger.
type Service interface {
	Preview(ctx context.Context, input AdjustmentInput) (AdjustmentPreview, error)
	Adjust(ctx context.Context, input AdjustmentInput) (*models.StockMovement, error)
}

type service struct {
	ledger   ledger.Service
	catalog  catalog.Service
	recorder audit.Recorder
	logg     *logger.Logger
}

// NewService wires the adjustment service. Recorder is optional.
func NewService(ledgerSvc ledger.Service, catalogSvc catalog.Service, recorder audit.Recorder, logg *logger.Logger) (Service, error) {
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		ledger:   ledgerSvc,
		catalog:  catalogSvc,
		recorder: recorder,
		logg:     logg,
	}, nil
}

func (s *service) Preview(ctx context.Context, input AdjustmentInput) (AdjustmentPreview, error) {
	if err := validateInput(input); err != nil {
		return AdjustmentPreview{}, err
	}
	if _, err := s.catalog.Get(ctx, input.ProductID); err != nil {
		return AdjustmentPreview{}, err
	}

	onHand, err := s.ledger.CurrentStock(ctx, input.ProductID)
	if err != nil {
		return AdjustmentPreview{}, err
	}

	delta := signedDelta(input)
	projected := onHand + delta
	return AdjustmentPreview{
		ProductID: input.ProductID,
		OnHand:    onHand,
		Delta:     delta,
		Projected: projected,
		Allowed:   projected >= 0,
	}, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustmentInput) (*models.StockMovement, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	// the ledger re-checks against live stock under the row lock, so a
	// stale preview can never push on-hand below zero
	movement, err := s.ledger.RecordMovement(ctx, ledger.RecordMovementInput{
		ProductID:     input.ProductID,
		Type:          input.Reason.MovementType(),
		QuantityDelta: signedDelta(input),
		Reference:     "adjustment:" + string(input.Reason),
		ActorID:       input.ActorID,
		Notes:         input.Notes,
	})
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		severity := enums.AuditSeverityInfo
		if input.Direction == enums.AdjustmentDirectionDecrease {
			severity = enums.AuditSeverityWarning
		}
		s.recorder.Record(ctx, audit.Entry{
			ActorID:     input.ActorID,
			Action:      "adjust_stock",
			Description: fmt.Sprintf("stock for product %s adjusted by %+d (%s)", input.ProductID, movement.QuantityDelta, input.Reason),
			Module:      "adjustments",
			Severity:    severity,
		})
	}
	return movement, nil
}

func signedDelta(input AdjustmentInput) int {
	if input.Direction == enums.AdjustmentDirectionDecrease {
		return -input.Qty
	}
	return input.Qty
}

func validateInput(input AdjustmentInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !input.Direction.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown adjustment direction %q", input.Direction)
	}
	if input.Qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason code is required")
	}
	if !input.Reason.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown adjustment reason %q", input.Reason)
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	return nil
}
