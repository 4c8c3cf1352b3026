package purchasing

import (
	"context"
	"errors"
	"time"

	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStaleStatus reports that a guarded status update matched no row because
// the order moved to another status between read and write.
var ErrStaleStatus = errors.New("purchase order status changed concurrently")

// Repository manages purchase order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, po *models.PurchaseOrder) error
	Find(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, status *enums.PurchaseOrderStatus, limit int) ([]models.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PurchaseOrderStatus, receivedDate *time.Time) error
	AppendTimeline(ctx context.Context, entry *models.PurchaseOrderTimelineEntry) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a purchase order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, po *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&po).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) List(ctx context.Context, status *enums.PurchaseOrderStatus, limit int) ([]models.PurchaseOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := r.db.WithContext(ctx).Preload("LineItems")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var pos []models.PurchaseOrder
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Find(&pos).Error; err != nil {
		return nil, err
	}
	return pos, nil
}

// UpdateStatus moves an order from one status to another. The from predicate
// makes the write a compare-and-swap so two transitions racing off the same
// read cannot both land; the loser gets ErrStaleStatus.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PurchaseOrderStatus, receivedDate *time.Time) error {
	updates := map[string]any{"status": to}
	if receivedDate != nil {
		updates["received_date"] = *receivedDate
	}
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *repository) AppendTimeline(ctx context.Context, entry *models.PurchaseOrderTimelineEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
