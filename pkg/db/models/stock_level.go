package models

import (
	"time"

	"github.com/google/uuid"
)

// StockLevel is the per-product serialization point. OnHand is a
// transactional materialization of the signed sum of the product's
// movements; the row is locked FOR UPDATE before any mutation, and a
// CHECK (on_hand >= 0) in the schema backs the application guard.
type StockLevel struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	OnHand    int       `gorm:"column:on_hand;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
