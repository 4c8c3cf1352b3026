package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog record. Catalog management owns creation and edits;
// the ledger core only reads these rows. On-hand stock is never stored here.
type Product struct {
	ID             uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU            string      `gorm:"column:sku;not null;uniqueIndex"`
	Name           string      `gorm:"column:name;not null"`
	UnitPriceCents int         `gorm:"column:unit_price_cents;not null"`
	UnitCostCents  int         `gorm:"column:unit_cost_cents;not null;default:0"`
	ReorderMin     int         `gorm:"column:reorder_min;not null;default:0"`
	ReorderMax     int         `gorm:"column:reorder_max;not null;default:0"`
	IsActive       bool        `gorm:"column:is_active;not null;default:true"`
	StockLevel     *StockLevel `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
