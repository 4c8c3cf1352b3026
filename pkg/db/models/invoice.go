package models

import (
	"time"

	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is the finalized record of a point-of-sale transaction. It is
// written once at checkout with status paid; the only later mutation is
// the transition to refunded.
type Invoice struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Status        enums.InvoiceStatus `gorm:"column:status;type:invoice_status;not null"`
	SubtotalCents int                 `gorm:"column:subtotal_cents;not null"`
	TaxRate       decimal.Decimal     `gorm:"column:tax_rate;type:numeric(8,6);not null"`
	TaxCents      int                 `gorm:"column:tax_cents;not null"`
	TotalCents    int                 `gorm:"column:total_cents;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	CashierID     uuid.UUID           `gorm:"column:cashier_id;type:uuid;not null"`
	CustomerID    *uuid.UUID          `gorm:"column:customer_id;type:uuid"`
	LineItems     []InvoiceLineItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	RefundedAt    *time.Time          `gorm:"column:refunded_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
