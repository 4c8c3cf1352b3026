package taxes

import (
	"context"
	"fmt"

	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// ActiveTaxes is the tax configuration checkout consumes: one summed
// percentage rate plus any flat amounts added before the single rounding.
type ActiveTaxes struct {
	Rate            decimal.Decimal
	FixedCents      int
	PercentageCount int
	FixedCount      int
}

// Service exposes the tax configuration contract.
type Service interface {
	Active(ctx context.Context) (ActiveTaxes, error)
}

type service struct {
	repo Repository
}

// NewService wires a tax service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tax repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Active(ctx context.Context) (ActiveTaxes, error) {
	rates, err := s.repo.ListActive(ctx)
	if err != nil {
		return ActiveTaxes{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tax rates")
	}

	active := ActiveTaxes{Rate: decimal.Zero}
	for _, rate := range rates {
		switch rate.Type {
		case enums.TaxTypePercentage:
			active.Rate = active.Rate.Add(rate.Rate)
			active.PercentageCount++
		case enums.TaxTypeFixed:
			active.FixedCents += rate.AmountCents
			active.FixedCount++
		default:
			return ActiveTaxes{}, pkgerrors.Newf(pkgerrors.CodeDependency, "unknown tax type %q", rate.Type)
		}
	}
	return active, nil
}
