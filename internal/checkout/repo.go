package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotRefundable reports that the guarded refund update matched no paid
// invoice row, meaning the invoice was refunded (or changed) concurrently.
var ErrNotRefundable = errors.New("invoice is not in a refundable status")

// Repository manages invoice persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	FindInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	MarkRefunded(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("id = ?", id).
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// MarkRefunded flips a paid invoice to refunded. The status predicate makes
// the update a compare-and-swap: a row that is no longer paid is not touched
// and the caller gets ErrNotRefundable instead.
func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, enums.InvoiceStatusPaid).
		Updates(map[string]any{
			"status":      enums.InvoiceStatusRefunded,
			"refunded_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotRefundable
	}
	return nil
}
