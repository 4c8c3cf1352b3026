package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adriansoto/stockpilot-backend/api/controllers"
	"github.com/adriansoto/stockpilot-backend/api/middleware"
	"github.com/adriansoto/stockpilot-backend/internal/adjustments"
	"github.com/adriansoto/stockpilot-backend/internal/catalog"
	checkoutsvc "github.com/adriansoto/stockpilot-backend/internal/checkout"
	"github.com/adriansoto/stockpilot-backend/internal/ledger"
	"github.com/adriansoto/stockpilot-backend/internal/purchasing"
	"github.com/adriansoto/stockpilot-backend/pkg/authz"
	"github.com/adriansoto/stockpilot-backend/pkg/config"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
	pkgredis "github.com/adriansoto/stockpilot-backend/pkg/redis"
)

// Deps bundles everything the router mounts. MetricsHandler and
// IdempotencyStore may be nil; the corresponding surface degrades
// gracefully.
type Deps struct {
	Config           *config.Config
	Logger           *logger.Logger
	DBPinger         controllers.Pinger
	RedisPinger      controllers.Pinger
	IdempotencyStore pkgredis.IdempotencyStore
	MetricsHandler   http.Handler

	Catalog     catalog.Service
	Ledger      ledger.Service
	Checkout    checkoutsvc.Service
	Purchasing  purchasing.Service
	Adjustments adjustments.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))
		r.Use(middleware.Idempotency(deps.IdempotencyStore, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/low-stock", controllers.ProductsLowStock(deps.Catalog, logg))
			r.Get("/{productId}/stock", controllers.ProductStock(deps.Catalog, deps.Ledger, logg))
			r.Get("/{productId}/movements", controllers.ProductMovements(deps.Ledger, logg))
		})

		r.With(middleware.RequireAction(authz.ActionCheckout, logg)).
			Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/{invoiceId}", controllers.InvoiceDetail(deps.Checkout, logg))
			r.With(middleware.RequireAction(authz.ActionRefundInvoice, logg)).
				Post("/{invoiceId}/refund", controllers.InvoiceRefund(deps.Checkout, logg))
		})

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Get("/", controllers.PurchaseOrderList(deps.Purchasing, logg))
			r.With(middleware.RequireAction(authz.ActionCreatePurchaseOrd, logg)).
				Post("/", controllers.PurchaseOrderCreate(deps.Purchasing, logg))
			r.Get("/{poId}", controllers.PurchaseOrderDetail(deps.Purchasing, logg))
			r.With(middleware.RequireAction(authz.ActionAdvancePurchase, logg)).
				Post("/{poId}/advance", controllers.PurchaseOrderAdvance(deps.Purchasing, logg))
		})

		r.Route("/adjustments", func(r chi.Router) {
			r.Use(middleware.RequireAction(authz.ActionAdjustStock, logg))
			r.Post("/", controllers.AdjustmentCommit(deps.Adjustments, logg))
			r.Post("/preview", controllers.AdjustmentPreview(deps.Adjustments, logg))
		})
	})

	return r
}
