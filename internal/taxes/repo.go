package taxes

import (
	"context"

	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads tax configuration. Rows are managed outside this core.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context) ([]models.TaxRate, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tax repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActive(ctx context.Context) ([]models.TaxRate, error) {
	var rates []models.TaxRate
	if err := r.db.WithContext(ctx).
		Where("is_active = TRUE").
		Order("created_at ASC").
		Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}
