package taxes

import (
	"context"
	"testing"

	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubRepo struct {
	rates []models.TaxRate
	err   error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) ListActive(ctx context.Context) ([]models.TaxRate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rates, nil
}

func TestActiveSumsPercentageAndFixed(t *testing.T) {
	svc, err := NewService(&stubRepo{rates: []models.TaxRate{
		{Name: "state", Type: enums.TaxTypePercentage, Rate: decimal.NewFromFloat(0.06)},
		{Name: "city", Type: enums.TaxTypePercentage, Rate: decimal.NewFromFloat(0.02)},
		{Name: "bottle deposit", Type: enums.TaxTypeFixed, AmountCents: 5},
	}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	active, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if !active.Rate.Equal(decimal.NewFromFloat(0.08)) {
		t.Fatalf("expected summed rate 0.08, got %s", active.Rate)
	}
	if active.FixedCents != 5 {
		t.Fatalf("expected 5 fixed cents, got %d", active.FixedCents)
	}
	if active.PercentageCount != 2 || active.FixedCount != 1 {
		t.Fatalf("unexpected counts: %+v", active)
	}
}

func TestActiveEmptyConfiguration(t *testing.T) {
	svc, err := NewService(&stubRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	active, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if !active.Rate.IsZero() || active.FixedCents != 0 {
		t.Fatalf("expected zero taxes, got %+v", active)
	}
}

func TestActiveUnknownTypeRejected(t *testing.T) {
	svc, err := NewService(&stubRepo{rates: []models.TaxRate{
		{Name: "mystery", Type: enums.TaxType("compound")},
	}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.Active(context.Background()); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
