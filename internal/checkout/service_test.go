package checkout

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/adriansoto/stockpilot-backend/internal/catalog"
	"github.com/adriansoto/stockpilot-backend/internal/ledger"
	"github.com/adriansoto/stockpilot-backend/internal/taxes"
	"github.com/adriansoto/stockpilot-backend/pkg/config"
	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*models.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: map[uuid.UUID]*models.Invoice{}}
}

func (f *fakeInvoiceRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeInvoiceRepo) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	invoice.ID = uuid.New()
	invoice.CreatedAt = time.Now()
	stored := *invoice
	f.invoices[invoice.ID] = &stored
	return nil
}

func (f *fakeInvoiceRepo) FindInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, ok := f.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *invoice
	return &out, nil
}

func (f *fakeInvoiceRepo) MarkRefunded(ctx context.Context, id uuid.UUID, at time.Time) error {
	invoice, ok := f.invoices[id]
	if !ok || invoice.Status != enums.InvoiceStatusPaid {
		return ErrNotRefundable
	}
	invoice.Status = enums.InvoiceStatusRefunded
	invoice.RefundedAt = &at
	return nil
}

// staleInvoiceRepo reads back a paid snapshot regardless of the stored
// status, mimicking a lookup that raced a concurrent refund.
type staleInvoiceRepo struct {
	*fakeInvoiceRepo
}

func (r *staleInvoiceRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *staleInvoiceRepo) FindInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := r.fakeInvoiceRepo.FindInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.Status = enums.InvoiceStatusPaid
	invoice.RefundedAt = nil
	return invoice, nil
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
	return &models.StockMovement{
		ID:            uuid.New(),
		ProductID:     input.ProductID,
		Type:          input.Type,
		QuantityDelta: input.QuantityDelta,
		Reference:     input.Reference,
		ActorID:       input.ActorID,
	}, nil
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
	product, err := f.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "product %s is inactive", product.SKU)
	}
	return product, nil
}

func (f *fakeCatalog) LowStock(ctx context.Context) ([]catalog.LowStockRow, error) {
	return nil, nil
}

type fakeTaxes struct {
	active taxes.ActiveTaxes
}

func (f *fakeTaxes) Active(ctx context.Context) (taxes.ActiveTaxes, error) {
	return f.active, nil
}

type checkoutFixture struct {
	svc     Service
	repo    *fakeInvoiceRepo
	ledger  *fakeLedger
	catalog *fakeCatalog
}

func newFixture(t *testing.T, rate decimal.Decimal) *checkoutFixture {
	t.Helper()

	repo := newFakeInvoiceRepo()
	led := &fakeLedger{stock: map[uuid.UUID]int{}}
	cat := &fakeCatalog{products: map[uuid.UUID]*models.Product{}}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: &bytes.Buffer{}})

	svc, err := NewService(repo, &fakeRunner{}, led, cat, &fakeTaxes{active: taxes.ActiveTaxes{Rate: rate}}, nil, nil, logg, config.LedgerConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &checkoutFixture{svc: svc, repo: repo, ledger: led, catalog: cat}
}

func (f *checkoutFixture) seedProduct(sku string, priceCents, stock int) uuid.UUID {
	id := uuid.New()
	f.catalog.products[id] = &models.Product{ID: id, SKU: sku, Name: sku, UnitPriceCents: priceCents, IsActive: true}
	f.ledger.stock[id] = stock
	return id
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t, decimal.Zero)
	_, err := f.svc.Checkout(context.Background(), NewCart(), CheckoutInput{
		PaymentMethod: enums.PaymentMethodCash,
		CashierID:     uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newFixture(t, decimal.NewFromFloat(0.08))
	productID := f.seedProduct("WIDGET-1", 1000, 10)

	cart := NewCart()
	if _, err := cart.AddLine(productID, 3); err != nil {
		t.Fatalf("add line: %v", err)
	}

	invoice, err := f.svc.Checkout(context.Background(), cart, CheckoutInput{
		PaymentMethod: enums.PaymentMethodCard,
		CashierID:     uuid.New(),
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if invoice.Status != enums.InvoiceStatusPaid {
		t.Fatalf("expected paid invoice, got %s", invoice.Status)
	}
	if invoice.SubtotalCents != 3000 || invoice.TaxCents != 240 || invoice.TotalCents != 3240 {
		t.Fatalf("unexpected totals: %d + %d = %d", invoice.SubtotalCents, invoice.TaxCents, invoice.TotalCents)
	}
	if len(f.ledger.movements) != 1 {
		t.Fatalf("expected one sale movement, got %d", len(f.ledger.movements))
	}
	movement := f.ledger.movements[0]
	if movement.Type != enums.MovementTypeSale || movement.QuantityDelta != -3 {
		t.Fatalf("unexpected movement: %+v", movement)
	}
	if movement.Reference != invoice.ID.String() {
		t.Fatalf("movement must reference the invoice, got %q", movement.Reference)
	}
	if f.ledger.stock[productID] != 7 {
		t.Fatalf("expected stock 7 after sale, got %d", f.ledger.stock[productID])
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture(t, decimal.Zero)
	productID := f.seedProduct("WIDGET-1", 1000, 1)

	cart := NewCart()
	if _, err := cart.AddLine(productID, 2); err != nil {
		t.Fatalf("add line: %v", err)
	}

	_, err := f.svc.Checkout(context.Background(), cart, CheckoutInput{
		PaymentMethod: enums.PaymentMethodCash,
		CashierID:     uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if f.ledger.stock[productID] != 1 {
		t.Fatalf("stock must be untouched, got %d", f.ledger.stock[productID])
	}
}

func TestCheckoutAggregatesBadLines(t *testing.T) {
	f := newFixture(t, decimal.Zero)
	inactiveID := uuid.New()
	f.catalog.products[inactiveID] = &models.Product{ID: inactiveID, SKU: "OLD-1", IsActive: false}

	cart := NewCart()
	if _, err := cart.AddLine(inactiveID, 1); err != nil {
		t.Fatalf("add line: %v", err)
	}
	if _, err := cart.AddLine(uuid.New(), 1); err != nil {
		t.Fatalf("add line: %v", err)
	}

	_, err := f.svc.Checkout(context.Background(), cart, CheckoutInput{
		PaymentMethod: enums.PaymentMethodCash,
		CashierID:     uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected violation details, got %T", typed.Details())
	}
	violations, ok := details["violations"].([]LineViolation)
	if !ok || len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", details)
	}
}

func TestRefundRestoresStock(t *testing.T) {
	f := newFixture(t, decimal.Zero)
	productID := f.seedProduct("WIDGET-1", 1000, 5)
	cashierID := uuid.New()

	cart := NewCart()
	if _, err := cart.AddLine(productID, 2); err != nil {
		t.Fatalf("add line: %v", err)
	}
	invoice, err := f.svc.Checkout(context.Background(), cart, CheckoutInput{
		PaymentMethod: enums.PaymentMethodCash,
		CashierID:     cashierID,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if f.ledger.stock[productID] != 3 {
		t.Fatalf("expected 3 after sale, got %d", f.ledger.stock[productID])
	}

	refunded, err := f.svc.Refund(context.Background(), invoice.ID, cashierID)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.Status != enums.InvoiceStatusRefunded || refunded.RefundedAt == nil {
		t.Fatalf("expected refunded invoice, got %+v", refunded)
	}
	if f.ledger.stock[productID] != 5 {
		t.Fatalf("expected stock restored to 5, got %d", f.ledger.stock[productID])
	}

	last := f.ledger.movements[len(f.ledger.movements)-1]
	if last.Type != enums.MovementTypeReturn || last.QuantityDelta != 2 {
		t.Fatalf("expected +2 return movement, got %+v", last)
	}
}

func TestRefundTwiceRejected(t *testing.T) {
	f := newFixture(t, decimal.Zero)
	productID := f.seedProduct("WIDGET-1", 1000, 5)
	cashierID := uuid.New()

	cart := NewCart()
	if _, err := cart.AddLine(productID, 1); err != nil {
		t.Fatalf("add line: %v", err)
	}
	invoice, err := f.svc.Checkout(context.Background(), cart, CheckoutInput{
		PaymentMethod: enums.PaymentMethodCash,
		CashierID:     cashierID,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := f.svc.Refund(context.Background(), invoice.ID, cashierID); err != nil {
		t.Fatalf("first refund: %v", err)
	}
	if _, err := f.svc.Refund(context.Background(), invoice.ID, cashierID); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on double refund, got %v", err)
	}
}

func TestRefundConcurrentLoserRestoresNothing(t *testing.T) {
	f := newFixture(t, decimal.Zero)
	productID := f.seedProduct("WIDGET-1", 1000, 5)
	cashierID := uuid.New()

	cart := NewCart()
	if _, err := cart.AddLine(productID, 2); err != nil {
		t.Fatalf("add line: %v", err)
	}
	invoice, err := f.svc.Checkout(context.Background(), cart, CheckoutInput{
		PaymentMethod: enums.PaymentMethodCash,
		CashierID:     cashierID,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := f.svc.Refund(context.Background(), invoice.ID, cashierID); err != nil {
		t.Fatalf("first refund: %v", err)
	}
	if f.ledger.stock[productID] != 5 {
		t.Fatalf("expected stock restored to 5, got %d", f.ledger.stock[productID])
	}

	// second refund sees the pre-refund paid snapshot, so the guarded
	// update inside the transaction is the only thing standing between
	// it and a double restore
	stale, err := NewService(
		&staleInvoiceRepo{fakeInvoiceRepo: f.repo},
		&fakeRunner{}, f.ledger, f.catalog,
		&fakeTaxes{active: taxes.ActiveTaxes{Rate: decimal.Zero}},
		nil, nil,
		logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: &bytes.Buffer{}}),
		config.LedgerConfig{},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := stale.Refund(context.Background(), invoice.ID, cashierID); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if f.ledger.stock[productID] != 5 {
		t.Fatalf("stock must be restored exactly once, got %d", f.ledger.stock[productID])
	}
	returns := 0
	for _, m := range f.ledger.movements {
		if m.Type == enums.MovementTypeReturn {
			returns++
		}
	}
	if returns != 1 {
		t.Fatalf("expected a single return movement, got %d", returns)
	}
}

func TestRefundUnknownInvoice(t *testing.T) {
	f := newFixture(t, decimal.Zero)
	if _, err := f.svc.Refund(context.Background(), uuid.New(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
