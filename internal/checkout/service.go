package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/adriansoto/stockpilot-backend/internal/audit"
	"github.com/adriansoto/stockpilot-backend/internal/catalog"
	"github.com/adriansoto/stockpilot-backend/internal/ledger"
	"github.com/adriansoto/stockpilot-backend/internal/taxes"
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

// CheckoutInput carries the transaction context a cart does not hold.
type CheckoutInput struct {
	PaymentMethod enums.PaymentMethod
	CashierID     uuid.UUID
	CustomerID    *uuid.UUID
}

// Service finalizes carts into invoices and reverses them. Both paths are
// single transactions: the invoice rows and their stock movements commit
// together or not at all.
type Service interface {
	Checkout(ctx context.Context, cart *Cart, input CheckoutInput) (*models.Invoice, error)
	Refund(ctx context.Context, invoiceID, actorID uuid.UUID) (*models.Invoice, error)
	GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
}

type service struct {
	repo     Repository
	runner   ledger.TxRunner
	ledger   ledger.Service
	catalog  catalog.Service
	taxes    taxes.Service
	recorder audit.Recorder
	metrics  *metrics.LedgerMetrics
	logg     *logger.Logger
	cfg      config.LedgerConfig
}

// NewService wires the checkout service. Recorder and metrics are optional.
func NewService(
	repo Repository,
	runner ledger.TxRunner,
	ledgerSvc ledger.Service,
	catalogSvc catalog.Service,
	taxSvc taxes.Service,
	recorder audit.Recorder,
	ledgerMetrics *metrics.LedgerMetrics,
	logg *logger.Logger,
	cfg config.LedgerConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoice repository required")
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
	if taxSvc == nil {
		return nil, fmt.Errorf("tax service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		runner:   runner,
		ledger:   ledgerSvc,
		catalog:  catalogSvc,
		taxes:    taxSvc,
		recorder: recorder,
		metrics:  ledgerMetrics,
		logg:     logg,
		cfg:      cfg,
	}, nil
}

func (s *service) Checkout(ctx context.Context, cart *Cart, input CheckoutInput) (*models.Invoice, error) {
	start := time.Now()

	if cart == nil || cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no lines")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown payment method %q", input.PaymentMethod)
	}
	if input.CashierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashier id is required")
	}

	resolved, err := s.resolveLines(ctx, cart.Lines())
	if err != nil {
		return nil, err
	}

	active, err := s.taxes.Active(ctx)
	if err != nil {
		return nil, err
	}

	priced := make([]PricedLine, 0, len(resolved))
	for _, line := range resolved {
		priced = append(priced, PricedLine{UnitPriceCents: line.Product.UnitPriceCents, Qty: line.Qty})
	}
	totals := ComputeTotals(priced, active.Rate, active.FixedCents)

	// stock rows are locked in product id order so two multi-product
	// checkouts can never deadlock each other
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].ProductID.String() < resolved[j].ProductID.String()
	})

	items := make([]models.InvoiceLineItem, 0, len(resolved))
	for _, line := range resolved {
		items = append(items, models.InvoiceLineItem{
			ProductID:      line.ProductID,
			ProductSKU:     line.Product.SKU,
			UnitPriceCents: line.Product.UnitPriceCents,
			Qty:            line.Qty,
		})
	}

	var invoice *models.Invoice
	err = s.runner.WithLockTimeout(ctx, s.cfg.LockTimeoutMillis(), func(tx *gorm.DB) error {
		inv := &models.Invoice{
			Status:        enums.InvoiceStatusPaid,
			SubtotalCents: totals.SubtotalCents,
			TaxRate:       active.Rate,
			TaxCents:      totals.TaxCents,
			TotalCents:    totals.TotalCents,
			PaymentMethod: input.PaymentMethod,
			CashierID:     input.CashierID,
			CustomerID:    input.CustomerID,
			LineItems:     items,
		}
		if err := s.repo.WithTx(tx).CreateInvoice(ctx, inv); err != nil {
			return err
		}
		for _, line := range resolved {
			if _, err := s.ledger.RecordMovementInTx(ctx, tx, ledger.RecordMovementInput{
				ProductID:     line.ProductID,
				Type:          enums.MovementTypeSale,
				QuantityDelta: -line.Qty,
				Reference:     inv.ID.String(),
				ActorID:       input.CashierID,
			}); err != nil {
				return mapInsufficientStock(err, line)
			}
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, s.mapTxError(err, "checkout")
	}

	for range resolved {
		s.metrics.IncMovement(enums.MovementTypeSale.String())
	}
	s.metrics.ObserveDuration("checkout", time.Since(start))
	if s.recorder != nil {
		s.recorder.Record(ctx, audit.Entry{
			ActorID:     input.CashierID,
			Action:      "checkout",
			Description: fmt.Sprintf("invoice %s created for %d line(s), total %d cents", invoice.ID, len(items), invoice.TotalCents),
			Module:      "checkout",
			Severity:    enums.AuditSeverityInfo,
		})
	}
	return invoice, nil
}

func (s *service) Refund(ctx context.Context, invoiceID, actorID uuid.UUID) (*models.Invoice, error) {
	start := time.Now()

	if invoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}

	invoice, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != enums.InvoiceStatusPaid {
		return nil, pkgerrors.Newf(
			pkgerrors.CodeStateConflict,
			"invoice %s is %s, only paid invoices can be refunded",
			invoice.ID, invoice.Status,
		)
	}

	lines := make([]models.InvoiceLineItem, len(invoice.LineItems))
	copy(lines, invoice.LineItems)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID.String() < lines[j].ProductID.String()
	})

	refundedAt := time.Now().UTC()
	err = s.runner.WithLockTimeout(ctx, s.cfg.LockTimeoutMillis(), func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).MarkRefunded(ctx, invoice.ID, refundedAt); err != nil {
			if errors.Is(err, ErrNotRefundable) {
				return pkgerrors.Newf(
					pkgerrors.CodeStateConflict,
					"invoice %s is no longer paid", invoice.ID,
				)
			}
			return err
		}
		for _, line := range lines {
			if _, err := s.ledger.RecordMovementInTx(ctx, tx, ledger.RecordMovementInput{
				ProductID:     line.ProductID,
				Type:          enums.MovementTypeReturn,
				QuantityDelta: line.Qty,
				Reference:     invoice.ID.String(),
				ActorID:       actorID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.mapTxError(err, "refund")
	}

	invoice.Status = enums.InvoiceStatusRefunded
	invoice.RefundedAt = &refundedAt

	for range lines {
		s.metrics.IncMovement(enums.MovementTypeReturn.String())
	}
	s.metrics.ObserveDuration("refund", time.Since(start))
	if s.recorder != nil {
		s.recorder.Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      "refund_invoice",
			Description: fmt.Sprintf("invoice %s refunded, %d line(s) returned to stock", invoice.ID, len(lines)),
			Module:      "checkout",
			Severity:    enums.AuditSeverityWarning,
		})
	}
	return invoice, nil
}

func (s *service) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	if invoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	invoice, err := s.repo.FindInvoice(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

// mapInsufficientStock rewrites the ledger's negative-stock rejection as
// the checkout-facing insufficient-stock error, naming the failing line.
func mapInsufficientStock(err error, line resolvedLine) error {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNegativeStock {
		return err
	}
	return pkgerrors.Newf(
		pkgerrors.CodeInsufficientStock,
		"insufficient stock for product %s (requested %d)",
		line.Product.SKU, line.Qty,
	).WithDetails(typed.Details())
}

func (s *service) mapTxError(err error, operation string) error {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejected(string(typed.Code()))
		return err
	}
	if pkgdb.IsLockTimeout(err) {
		s.metrics.IncConflict()
		return pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "timed out waiting for a stock row")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation+" failed")
}
