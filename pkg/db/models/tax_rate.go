package models

import (
	"time"

	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate is external tax configuration consumed at checkout. Percentage
// rows carry Rate (0.08 for 8%); fixed rows carry AmountCents.
type TaxRate struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Type        enums.TaxType   `gorm:"column:type;type:tax_type;not null"`
	Rate        decimal.Decimal `gorm:"column:rate;type:numeric(8,6);not null;default:0"`
	AmountCents int             `gorm:"column:amount_cents;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
