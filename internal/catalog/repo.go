package catalog

import (
	"context"

	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads catalog rows. Catalog management lives elsewhere; this
// core never creates or edits products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	ListBelowReorderMin(ctx context.Context) ([]LowStockRow, error)
}

// LowStockRow pairs a product with its current on-hand count.
type LowStockRow struct {
	Product models.Product `gorm:"embedded"`
	OnHand  int            `gorm:"column:on_hand"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListBelowReorderMin(ctx context.Context) ([]LowStockRow, error) {
	var rows []LowStockRow
	if err := r.db.WithContext(ctx).
		Table("products").
		Select("products.*, stock_levels.on_hand").
		Joins("JOIN stock_levels ON stock_levels.product_id = products.id").
		Where("products.is_active = TRUE").
		Where("products.reorder_min > 0").
		Where("stock_levels.on_hand < products.reorder_min").
		Order("stock_levels.on_hand ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
