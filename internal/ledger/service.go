package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/adriansoto/stockpilot-backend/internal/audit"
	"github.com/adriansoto/stockpilot-backend/internal/catalog"
	"github.com/adriansoto/stockpilot-backend/pkg/config"
	pkgdb "github.com/adriansoto/stockpilot-backend/pkg/db"
	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
	"github.com/adriansoto/stockpilot-backend/pkg/metrics"
	"github.com/adriansoto/stockpilot-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordMovementInput captures the immutable data a stock movement requires.
type RecordMovementInput struct {
	ProductID     uuid.UUID
	Type          enums.MovementType
	QuantityDelta int
	Reference     string
	ActorID       uuid.UUID
	Notes         *string
}

// MovementPage is one page of movement history, newest first.
type MovementPage struct {
	Movements  []models.StockMovement
	NextCursor string
}

// TxRunner runs a function inside a transaction with a bounded row-lock
// wait. Satisfied by *db.Client.
type TxRunner interface {
	WithLockTimeout(ctx context.Context, timeoutMillis int, fn func(tx *gorm.DB) error) error
}

// Service is the stock ledger: every quantity change flows through here as
// an append-only movement, and the materialized on-hand counter moves in
// the same transaction under the product's row lock.
type Service interface {
	RecordMovement(ctx context.Context, input RecordMovementInput) (*models.StockMovement, error)
	RecordMovementInTx(ctx context.Context, tx *gorm.DB, input RecordMovementInput) (*models.StockMovement, error)
	CurrentStock(ctx context.Context, productID uuid.UUID) (int, error)
	ListMovements(ctx context.Context, productID uuid.UUID, filter MovementFilter) (MovementPage, error)
}

type service struct {
	repo     Repository
	runner   TxRunner
	catalog  catalog.Service
	recorder audit.Recorder
	metrics  *metrics.LedgerMetrics
	logg     *logger.Logger
	cfg      config.LedgerConfig
}

// NewService wires the ledger service. Recorder and metrics are optional.
func NewService(
	repo Repository,
	runner TxRunner,
	catalogSvc catalog.Service,
	recorder audit.Recorder,
	ledgerMetrics *metrics.LedgerMetrics,
	logg *logger.Logger,
	cfg config.LedgerConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		runner:   runner,
		catalog:  catalogSvc,
		recorder: recorder,
		metrics:  ledgerMetrics,
		logg:     logg,
		cfg:      cfg,
	}, nil
}

func (s *service) RecordMovement(ctx context.Context, input RecordMovementInput) (*models.StockMovement, error) {
	if err := s.validateInput(input); err != nil {
		s.metrics.IncRejected(string(pkgerrors.CodeValidation))
		return nil, err
	}
	if _, err := s.catalog.Get(ctx, input.ProductID); err != nil {
		return nil, err
	}

	var movement *models.StockMovement
	err := s.runner.WithLockTimeout(ctx, s.cfg.LockTimeoutMillis(), func(tx *gorm.DB) error {
		var txErr error
		movement, txErr = s.recordLocked(ctx, s.repo.WithTx(tx), input)
		return txErr
	})
	if err != nil {
		return nil, s.mapMovementError(err)
	}

	s.metrics.IncMovement(input.Type.String())
	if s.recorder != nil {
		s.recorder.Record(ctx, audit.Entry{
			ActorID:     input.ActorID,
			Action:      "record_movement",
			Description: fmt.Sprintf("%s movement of %+d recorded for product %s", input.Type, input.QuantityDelta, input.ProductID),
			Module:      "ledger",
			Severity:    enums.AuditSeverityInfo,
		})
	}
	return movement, nil
}

// RecordMovementInTx appends a movement inside a caller-owned transaction so
// checkout and PO receipt stay atomic with their own writes. The caller is
// responsible for the lock timeout setting, for locking products in sorted
// order, and for mapping transaction errors.
func (s *service) RecordMovementInTx(ctx context.Context, tx *gorm.DB, input RecordMovementInput) (*models.StockMovement, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	return s.recordLocked(ctx, s.repo.WithTx(tx), input)
}

// recordLocked is the single atomic step: lock the counter row, verify the
// non-negative invariant, append the movement, move the counter.
func (s *service) recordLocked(ctx context.Context, repo Repository, input RecordMovementInput) (*models.StockMovement, error) {
	if err := repo.EnsureStockLevel(ctx, input.ProductID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure stock level")
	}
	level, err := repo.LockStockLevel(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	projected := level.OnHand + input.QuantityDelta
	if projected < 0 {
		return nil, pkgerrors.Newf(
			pkgerrors.CodeNegativeStock,
			"movement of %+d would drive stock for product %s to %d",
			input.QuantityDelta, input.ProductID, projected,
		).WithDetails(map[string]any{
			"product_id": input.ProductID,
			"on_hand":    level.OnHand,
			"delta":      input.QuantityDelta,
			"projected":  projected,
		})
	}

	movement := &models.StockMovement{
		ProductID:     input.ProductID,
		Type:          input.Type,
		QuantityDelta: input.QuantityDelta,
		Reference:     input.Reference,
		ActorID:       input.ActorID,
		Notes:         input.Notes,
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, err
	}
	if err := repo.UpdateOnHand(ctx, input.ProductID, projected); err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) CurrentStock(ctx context.Context, productID uuid.UUID) (int, error) {
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	level, err := s.repo.GetStockLevel(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// no counter row yet means no movements; the product still
			// has to exist
			if _, catErr := s.catalog.Get(ctx, productID); catErr != nil {
				return 0, catErr
			}
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock level")
	}
	return level.OnHand, nil
}

func (s *service) ListMovements(ctx context.Context, productID uuid.UUID, filter MovementFilter) (MovementPage, error) {
	if productID == uuid.Nil {
		return MovementPage{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if filter.Type != nil && !filter.Type.IsValid() {
		return MovementPage{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown movement type %q", *filter.Type)
	}
	if _, err := s.catalog.Get(ctx, productID); err != nil {
		return MovementPage{}, err
	}

	limit := pagination.NormalizeLimit(filter.Limit)
	if s.cfg.MovementMaxPage > 0 && limit > s.cfg.MovementMaxPage {
		limit = s.cfg.MovementMaxPage
	}
	filter.Limit = limit

	movements, err := s.repo.ListMovements(ctx, productID, filter)
	if err != nil {
		return MovementPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}

	page := MovementPage{Movements: movements}
	if len(movements) > limit {
		last := movements[limit-1]
		page.Movements = movements[:limit]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			Seq:       last.Seq,
		})
	}
	return page, nil
}

// mapMovementError turns transaction failures into the ledger taxonomy.
// Lock waits that hit the bounded timeout surface as retryable conflicts.
func (s *service) mapMovementError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejected(string(typed.Code()))
		return err
	}
	if pkgdb.IsLockTimeout(err) {
		s.metrics.IncConflict()
		return pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "timed out waiting for the product's stock row")
	}
	if pkgdb.IsCheckViolation(err, "stock_levels_on_hand_check") {
		s.metrics.IncRejected(string(pkgerrors.CodeNegativeStock))
		return pkgerrors.Wrap(pkgerrors.CodeNegativeStock, err, "stock level check rejected the movement")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record movement")
}

func (s *service) validateInput(input RecordMovementInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown movement type %q", input.Type)
	}
	if input.QuantityDelta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity delta must be non-zero")
	}
	if input.Reference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	return nil
}
