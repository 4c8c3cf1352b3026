package ledger

import (
	"context"
	"time"

	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	"github.com/adriansoto/stockpilot-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovementFilter narrows the movement history read path.
type MovementFilter struct {
	Type   *enums.MovementType
	From   *time.Time
	To     *time.Time
	Search string
	Cursor *pagination.Cursor
	Limit  int
}

// Repository manages ledger persistence. Movement rows are append-only:
// there is deliberately no update or delete surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureStockLevel(ctx context.Context, productID uuid.UUID) error
	LockStockLevel(ctx context.Context, productID uuid.UUID) (*models.StockLevel, error)
	GetStockLevel(ctx context.Context, productID uuid.UUID) (*models.StockLevel, error)
	UpdateOnHand(ctx context.Context, productID uuid.UUID, onHand int) error
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, productID uuid.UUID, filter MovementFilter) ([]models.StockMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// EnsureStockLevel creates the product's counter row if it does not exist
// yet, so LockStockLevel always has a row to lock.
func (r *repository) EnsureStockLevel(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Exec("INSERT INTO stock_levels (product_id, on_hand) VALUES (?, 0) ON CONFLICT (product_id) DO NOTHING", productID).
		Error
}

// LockStockLevel acquires the product's row FOR UPDATE. The caller must be
// inside a transaction; this row is the per-product serialization point.
func (r *repository) LockStockLevel(ctx context.Context, productID uuid.UUID) (*models.StockLevel, error) {
	var level models.StockLevel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productID).
		First(&level).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *repository) GetStockLevel(ctx context.Context, productID uuid.UUID) (*models.StockLevel, error) {
	var level models.StockLevel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&level).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *repository) UpdateOnHand(ctx context.Context, productID uuid.UUID, onHand int) error {
	return r.db.WithContext(ctx).
		Model(&models.StockLevel{}).
		Where("product_id = ?", productID).
		Update("on_hand", onHand).
		Error
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, productID uuid.UUID, filter MovementFilter) ([]models.StockMovement, error) {
	query := r.db.WithContext(ctx).
		Where("product_id = ?", productID)

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("(reference ILIKE ? OR notes ILIKE ?)", pattern, pattern)
	}
	if filter.Cursor != nil {
		query = query.Where("(created_at, seq) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.Seq)
	}

	var movements []models.StockMovement
	if err := query.
		Order("created_at DESC, seq DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
