package models

import (
	"time"

	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	"github.com/google/uuid"
)

// PurchaseOrder tracks a procurement order through its fixed status
// sequence. Procurement owns creation; this core mutates status only
// through defined transitions and archives the order once terminal.
type PurchaseOrder struct {
	ID               uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID       uuid.UUID                    `gorm:"column:supplier_id;type:uuid;not null"`
	Status           enums.PurchaseOrderStatus    `gorm:"column:status;type:purchase_order_status;not null"`
	ExpectedDelivery *time.Time                   `gorm:"column:expected_delivery"`
	ReceivedDate     *time.Time                   `gorm:"column:received_date"`
	LineItems        []PurchaseOrderLineItem      `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	Timeline         []PurchaseOrderTimelineEntry `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}

// PurchaseOrderLineItem is one ordered product and quantity.
type PurchaseOrderLineItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID uuid.UUID `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Qty             int       `gorm:"column:qty;not null"`
	UnitCostCents   int       `gorm:"column:unit_cost_cents;not null"`
}

// PurchaseOrderTimelineEntry is one human-readable step in the order's
// history, ordered by position.
type PurchaseOrderTimelineEntry struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID uuid.UUID                 `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	Position        int                       `gorm:"column:position;not null"`
	Status          enums.PurchaseOrderStatus `gorm:"column:status;type:purchase_order_status;not null"`
	Description     string                    `gorm:"column:description;not null"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
