package purchasing

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/adriansoto/stockpilot-backend/internal/catalog"
	"github.com/adriansoto/stockpilot-backend/internal/ledger"
	"github.com/adriansoto/stockpilot-backend/pkg/config"
	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type fakePORepo struct {
	pos map[uuid.UUID]*models.PurchaseOrder
}

func newFakePORepo() *fakePORepo {
	return &fakePORepo{pos: map[uuid.UUID]*models.PurchaseOrder{}}
}

func (f *fakePORepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakePORepo) Create(ctx context.Context, po *models.PurchaseOrder) error {
	po.ID = uuid.New()
	po.CreatedAt = time.Now()
	stored := *po
	f.pos[po.ID] = &stored
	return nil
}

func (f *fakePORepo) Find(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	po, ok := f.pos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *po
	return &out, nil
}

func (f *fakePORepo) List(ctx context.Context, status *enums.PurchaseOrderStatus, limit int) ([]models.PurchaseOrder, error) {
	var out []models.PurchaseOrder
	for _, po := range f.pos {
		if status != nil && po.Status != *status {
			continue
		}
		out = append(out, *po)
	}
	return out, nil
}

func (f *fakePORepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PurchaseOrderStatus, receivedDate *time.Time) error {
	po, ok := f.pos[id]
	if !ok || po.Status != from {
		return ErrStaleStatus
	}
	po.Status = to
	if receivedDate != nil {
		po.ReceivedDate = receivedDate
	}
	return nil
}

// staleStatusRepo reads back a fixed status regardless of the stored one,
// mimicking a lookup that raced a concurrent transition.
type staleStatusRepo struct {
	*fakePORepo
	reported enums.PurchaseOrderStatus
}

func (r *staleStatusRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *staleStatusRepo) Find(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	po, err := r.fakePORepo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	po.Status = r.reported
	return po, nil
}

func (f *fakePORepo) AppendTimeline(ctx context.Context, entry *models.PurchaseOrderTimelineEntry) error {
	po, ok := f.pos[entry.PurchaseOrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	entry.CreatedAt = time.Now()
	po.Timeline = append(po.Timeline, *entry)
	return nil
}

type fakeRunner struct{}

func (f *fakeRunner) WithLockTimeout(ctx context.Context, timeoutMillis int, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeLedger struct {
	stock     map[uuid.UUID]int
	movements []ledger.RecordMovementInput
}

func (f *fakeLedger) RecordMovement(ctx context.Context, input ledger.RecordMovementInput) (*models.StockMovement, error) {
	return f.RecordMovementInTx(ctx, nil, input)
}

func (f *fakeLedger) RecordMovementInTx(ctx context.Context, tx *gorm.DB, input ledger.RecordMovementInput) (*models.StockMovement, error) {
	projected := f.stock[input.ProductID] + input.QuantityDelta
	if projected < 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeNegativeStock, "movement would drive stock to %d", projected)
	}
	f.stock[input.ProductID] = projected
	f.movements = append(f.movements, input)
	return &models.StockMovement{ProductID: input.ProductID, QuantityDelta: input.QuantityDelta}, nil
}

func (f *fakeLedger) CurrentStock(ctx context.Context, productID uuid.UUID) (int, error) {
	return f.stock[productID], nil
}

func (f *fakeLedger) ListMovements(ctx context.Context, productID uuid.UUID, filter ledger.MovementFilter) (ledger.MovementPage, error) {
	return ledger.MovementPage{}, nil
}

type fakeCatalog struct {
	products map[uuid.UUID]*models.Product
}

func (f *fakeCatalog) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if p, ok := f.products[productID]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (f *fakeCatalog) GetActive(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return f.Get(ctx, productID)
}

func (f *fakeCatalog) LowStock(ctx context.Context) ([]catalog.LowStockRow, error) {
	return nil, nil
}

type fixture struct {
	svc     Service
	repo    *fakePORepo
	ledger  *fakeLedger
	catalog *fakeCatalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakePORepo()
	led := &fakeLedger{stock: map[uuid.UUID]int{}}
	cat := &fakeCatalog{products: map[uuid.UUID]*models.Product{}}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: &bytes.Buffer{}})

	svc, err := NewService(repo, &fakeRunner{}, led, cat, nil, nil, logg, config.LedgerConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, ledger: led, catalog: cat}
}

func (f *fixture) seedProduct(costCents int) uuid.UUID {
	id := uuid.New()
	f.catalog.products[id] = &models.Product{ID: id, SKU: "WIDGET-1", Name: "Widget", UnitCostCents: costCents, IsActive: true}
	return id
}

func (f *fixture) createPO(t *testing.T, productID uuid.UUID, qty int) *models.PurchaseOrder {
	t.Helper()
	po, err := f.svc.Create(context.Background(), CreateInput{
		SupplierID: uuid.New(),
		ActorID:    uuid.New(),
		Lines:      []LineInput{{ProductID: productID, Qty: qty}},
	})
	if err != nil {
		t.Fatalf("create po: %v", err)
	}
	return po
}

func (f *fixture) advance(t *testing.T, poID uuid.UUID, target enums.PurchaseOrderStatus) *models.PurchaseOrder {
	t.Helper()
	po, err := f.svc.Advance(context.Background(), poID, AdvanceInput{Target: target, ActorID: uuid.New()})
	if err != nil {
		t.Fatalf("advance to %s: %v", target, err)
	}
	return po
}

func TestCreateRequiresLines(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateInput{
		SupplierID: uuid.New(),
		ActorID:    uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDefaultsCostFromCatalog(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(750)

	po := f.createPO(t, productID, 4)
	if po.Status != enums.PurchaseOrderStatusCreated {
		t.Fatalf("expected created status, got %s", po.Status)
	}
	if po.LineItems[0].UnitCostCents != 750 {
		t.Fatalf("expected catalog cost 750, got %d", po.LineItems[0].UnitCostCents)
	}
	if len(po.Timeline) != 1 || po.Timeline[0].Position != 0 {
		t.Fatalf("expected initial timeline entry, got %+v", po.Timeline)
	}
}

func TestAdvanceFullChainAndReceipt(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(0)
	po := f.createPO(t, productID, 10)

	for _, target := range []enums.PurchaseOrderStatus{
		enums.PurchaseOrderStatusSent,
		enums.PurchaseOrderStatusConfirmed,
		enums.PurchaseOrderStatusShipped,
	} {
		po = f.advance(t, po.ID, target)
		if po.Status != target {
			t.Fatalf("expected %s, got %s", target, po.Status)
		}
	}

	po = f.advance(t, po.ID, enums.PurchaseOrderStatusReceived)
	if po.ReceivedDate == nil {
		t.Fatal("expected received date to be set")
	}
	if f.ledger.stock[productID] != 10 {
		t.Fatalf("expected stock 10 after receipt, got %d", f.ledger.stock[productID])
	}
	if len(f.ledger.movements) != 1 {
		t.Fatalf("expected one purchase movement, got %d", len(f.ledger.movements))
	}
	movement := f.ledger.movements[0]
	if movement.Type != enums.MovementTypePurchase || movement.QuantityDelta != 10 {
		t.Fatalf("unexpected movement %+v", movement)
	}
	if movement.Reference != po.ID.String() {
		t.Fatalf("movement must reference the po, got %q", movement.Reference)
	}

	if len(po.Timeline) != 5 {
		t.Fatalf("expected 5 timeline entries, got %d", len(po.Timeline))
	}
	for i, entry := range po.Timeline {
		if entry.Position != i {
			t.Fatalf("timeline positions out of order: %+v", po.Timeline)
		}
	}
}

func TestAdvanceSkippingStatusRejected(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(0)
	po := f.createPO(t, productID, 1)

	_, err := f.svc.Advance(context.Background(), po.ID, AdvanceInput{
		Target:  enums.PurchaseOrderStatusShipped,
		ActorID: uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.ledger.movements) != 0 {
		t.Fatal("rejected transition must not move stock")
	}
}

func TestCancelFromNonTerminal(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(0)
	po := f.createPO(t, productID, 1)
	po = f.advance(t, po.ID, enums.PurchaseOrderStatusSent)

	po = f.advance(t, po.ID, enums.PurchaseOrderStatusCancelled)
	if po.Status != enums.PurchaseOrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", po.Status)
	}

	_, err := f.svc.Advance(context.Background(), po.ID, AdvanceInput{
		Target:  enums.PurchaseOrderStatusSent,
		ActorID: uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("cancelled orders are terminal, got %v", err)
	}
}

func TestReceivedIsTerminal(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(0)
	po := f.createPO(t, productID, 1)
	for _, target := range []enums.PurchaseOrderStatus{
		enums.PurchaseOrderStatusSent,
		enums.PurchaseOrderStatusConfirmed,
		enums.PurchaseOrderStatusShipped,
		enums.PurchaseOrderStatusReceived,
	} {
		po = f.advance(t, po.ID, target)
	}

	for _, target := range []enums.PurchaseOrderStatus{
		enums.PurchaseOrderStatusCancelled,
		enums.PurchaseOrderStatusSent,
	} {
		if _, err := f.svc.Advance(context.Background(), po.ID, AdvanceInput{
			Target:  target,
			ActorID: uuid.New(),
		}); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("received orders are terminal, got %v for %s", err, target)
		}
	}
}

func TestAdvanceConcurrentReceiptSingleWinner(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(0)
	po := f.createPO(t, productID, 10)
	for _, target := range []enums.PurchaseOrderStatus{
		enums.PurchaseOrderStatusSent,
		enums.PurchaseOrderStatusConfirmed,
		enums.PurchaseOrderStatusShipped,
	} {
		po = f.advance(t, po.ID, target)
	}

	po = f.advance(t, po.ID, enums.PurchaseOrderStatusReceived)
	if f.ledger.stock[productID] != 10 {
		t.Fatalf("expected stock 10 after receipt, got %d", f.ledger.stock[productID])
	}

	// the loser read the order while it was still shipped, so only the
	// guarded status update inside the transaction can reject the second
	// receipt
	stale, err := NewService(
		&staleStatusRepo{fakePORepo: f.repo, reported: enums.PurchaseOrderStatusShipped},
		&fakeRunner{}, f.ledger, f.catalog, nil, nil,
		logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: &bytes.Buffer{}}),
		config.LedgerConfig{},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := stale.Advance(context.Background(), po.ID, AdvanceInput{
		Target:  enums.PurchaseOrderStatusReceived,
		ActorID: uuid.New(),
	}); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if f.ledger.stock[productID] != 10 {
		t.Fatalf("stock must be received exactly once, got %d", f.ledger.stock[productID])
	}
	if len(f.ledger.movements) != 1 {
		t.Fatalf("expected a single purchase movement, got %d", len(f.ledger.movements))
	}
}

func TestAdvanceUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Advance(context.Background(), uuid.New(), AdvanceInput{
		Target:  enums.PurchaseOrderStatusSent,
		ActorID: uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
