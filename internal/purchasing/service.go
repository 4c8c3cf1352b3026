package purchasing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/adriansoto/stockpilot-backend/internal/audit"
	"github.com/adriansoto/stockpilot-backend/internal/catalog"
	"github.com/adriansoto/stockpilot-backend/internal/ledger"
	"github.com/adriansoto/stockpilot-backend/pkg/config"
	pkgdb "github.com/adriansoto/stockpilot-backend/pkg/db"
	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
	"github.com/adriansoto/stockpilot-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LineInput is one ordered product. UnitCostCents zero falls back to the
// catalog cost.
type LineInput struct {
	ProductID     uuid.UUID
	Qty           int
	UnitCostCents int
}

// CreateInput opens a new purchase order in the created status.
type CreateInput struct {
	SupplierID       uuid.UUID
	ExpectedDelivery *time.Time
	Lines            []LineInput
	ActorID          uuid.UUID
}

// AdvanceInput moves an order along its status chain.
type AdvanceInput struct {
	Target  enums.PurchaseOrderStatus
	ActorID uuid.UUID
	Note    string
}

// Service drives the purchase order lifecycle. Receipt is the only step
// that touches stock: it emits one purchase movement per line in the same
// transaction as the status flip.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error)
	Advance(ctx context.Context, poID uuid.UUID, input AdvanceInput) (*models.PurchaseOrder, error)
	Get(ctx context.Context, poID uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, status *enums.PurchaseOrderStatus, limit int) ([]models.PurchaseOrder, error)
}

type service struct {
	repo     Repository
	runner   ledger.TxRunner
	ledger   ledger.Service
	catalog  catalog.Service
	recorder audit.Recorder
	metrics  *metrics.LedgerMetrics
	logg     *logger.Logger
	cfg      config.LedgerConfig
}

// NewService wires the purchasing service. Recorder and metrics are optional.
func NewService(
	repo Repository,
	runner ledger.TxRunner,
	ledgerSvc ledger.Service,
	catalogSvc catalog.Service,
	recorder audit.Recorder,
	ledgerMetrics *metrics.LedgerMetrics,
	logg *logger.Logger,
	cfg config.LedgerConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase order repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
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
		ledger:   ledgerSvc,
		catalog:  catalogSvc,
		recorder: recorder,
		metrics:  ledgerMetrics,
		logg:     logg,
		cfg:      cfg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error) {
	if input.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order needs at least one line")
	}

	items := make([]models.PurchaseOrderLineItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.Qty <= 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity for product %s must be positive", line.ProductID)
		}
		product, err := s.catalog.Get(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		cost := line.UnitCostCents
		if cost == 0 {
			cost = product.UnitCostCents
		}
		items = append(items, models.PurchaseOrderLineItem{
			ProductID:     line.ProductID,
			Qty:           line.Qty,
			UnitCostCents: cost,
		})
	}

	po := &models.PurchaseOrder{
		SupplierID:       input.SupplierID,
		Status:           enums.PurchaseOrderStatusCreated,
		ExpectedDelivery: input.ExpectedDelivery,
		LineItems:        items,
		Timeline: []models.PurchaseOrderTimelineEntry{{
			Position:    0,
			Status:      enums.PurchaseOrderStatusCreated,
			Description: "purchase order created",
		}},
	}
	if err := s.repo.Create(ctx, po); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, audit.Entry{
			ActorID:     input.ActorID,
			Action:      "create_purchase_order",
			Description: fmt.Sprintf("purchase order %s opened with %d line(s)", po.ID, len(items)),
			Module:      "purchasing",
			Severity:    enums.AuditSeverityInfo,
		})
	}
	return po, nil
}

func (s *service) Advance(ctx context.Context, poID uuid.UUID, input AdvanceInput) (*models.PurchaseOrder, error) {
	start := time.Now()

	if poID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id is required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown status %q", input.Target)
	}

	po, err := s.Get(ctx, poID)
	if err != nil {
		return nil, err
	}
	if !po.Status.CanTransitionTo(input.Target) {
		return nil, pkgerrors.Newf(
			pkgerrors.CodeStateConflict,
			"cannot transition purchase order %s from %s to %s",
			po.ID, po.Status, input.Target,
		)
	}

	description := input.Note
	if description == "" {
		description = fmt.Sprintf("status changed to %s", input.Target)
	}
	entry := &models.PurchaseOrderTimelineEntry{
		PurchaseOrderID: po.ID,
		Position:        len(po.Timeline),
		Status:          input.Target,
		Description:     description,
	}

	var receivedDate *time.Time
	if input.Target == enums.PurchaseOrderStatusReceived {
		now := time.Now().UTC()
		receivedDate = &now
	}

	lines := make([]models.PurchaseOrderLineItem, len(po.LineItems))
	copy(lines, po.LineItems)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID.String() < lines[j].ProductID.String()
	})

	err = s.runner.WithLockTimeout(ctx, s.cfg.LockTimeoutMillis(), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateStatus(ctx, po.ID, po.Status, input.Target, receivedDate); err != nil {
			if errors.Is(err, ErrStaleStatus) {
				return pkgerrors.Newf(
					pkgerrors.CodeStateConflict,
					"purchase order %s is no longer %s", po.ID, po.Status,
				)
			}
			return err
		}
		if err := repo.AppendTimeline(ctx, entry); err != nil {
			return err
		}
		if input.Target == enums.PurchaseOrderStatusReceived {
			for _, line := range lines {
				if _, err := s.ledger.RecordMovementInTx(ctx, tx, ledger.RecordMovementInput{
					ProductID:     line.ProductID,
					Type:          enums.MovementTypePurchase,
					QuantityDelta: line.Qty,
					Reference:     po.ID.String(),
					ActorID:       input.ActorID,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.mapTxError(err)
	}

	if input.Target == enums.PurchaseOrderStatusReceived {
		for range lines {
			s.metrics.IncMovement(enums.MovementTypePurchase.String())
		}
		s.metrics.ObserveDuration("po_receipt", time.Since(start))
	}
	if s.recorder != nil {
		severity := enums.AuditSeverityInfo
		if input.Target == enums.PurchaseOrderStatusCancelled {
			severity = enums.AuditSeverityWarning
		}
		s.recorder.Record(ctx, audit.Entry{
			ActorID:     input.ActorID,
			Action:      "advance_purchase_order",
			Description: fmt.Sprintf("purchase order %s moved from %s to %s", po.ID, po.Status, input.Target),
			Module:      "purchasing",
			Severity:    severity,
		})
	}

	return s.Get(ctx, poID)
}

func (s *service) Get(ctx context.Context, poID uuid.UUID) (*models.PurchaseOrder, error) {
	if poID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id is required")
	}
	po, err := s.repo.Find(ctx, poID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	return po, nil
}

func (s *service) List(ctx context.Context, status *enums.PurchaseOrderStatus, limit int) ([]models.PurchaseOrder, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown status %q", *status)
	}
	pos, err := s.repo.List(ctx, status, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}
	return pos, nil
}

func (s *service) mapTxError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejected(string(typed.Code()))
		return err
	}
	if pkgdb.IsLockTimeout(err) {
		s.metrics.IncConflict()
		return pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "timed out waiting for a stock row")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance purchase order")
}
