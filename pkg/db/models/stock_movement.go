package models

import (
	"time"

	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	"github.com/google/uuid"
)

// StockMovement is one immutable, signed quantity change on a product.
// Rows are append-only: nothing in the codebase updates or deletes them.
// Seq gives movements for a product a total order even when created_at ties.
type StockMovement struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Seq           int64              `gorm:"column:seq;autoIncrement;uniqueIndex"`
	ProductID     uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	Type          enums.MovementType `gorm:"column:type;type:movement_type;not null"`
	QuantityDelta int                `gorm:"column:quantity_delta;not null"`
	Reference     string             `gorm:"column:reference;not null"`
	ActorID       uuid.UUID          `gorm:"column:actor_id;type:uuid;not null"`
	Notes         *string            `gorm:"column:notes"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}
