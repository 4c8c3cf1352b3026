package models

import (
	"github.com/google/uuid"
)

// InvoiceLineItem captures one sold product at the price charged.
type InvoiceLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID      uuid.UUID `gorm:"column:invoice_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductSKU     string    `gorm:"column:product_sku;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Qty            int       `gorm:"column:qty;not null"`
}
