package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adriansoto/stockpilot-backend/api/routes"
	"github.com/adriansoto/stockpilot-backend/internal/adjustments"
	"github.com/adriansoto/stockpilot-backend/internal/audit"
	"github.com/adriansoto/stockpilot-backend/internal/catalog"
	checkoutsvc "github.com/adriansoto/stockpilot-backend/internal/checkout"
	"github.com/adriansoto/stockpilot-backend/internal/ledger"
	"github.com/adriansoto/stockpilot-backend/internal/purchasing"
	"github.com/adriansoto/stockpilot-backend/internal/taxes"
	"github.com/adriansoto/stockpilot-backend/pkg/config"
	"github.com/adriansoto/stockpilot-backend/pkg/db"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
	"github.com/adriansoto/stockpilot-backend/pkg/metrics"
	"github.com/adriansoto/stockpilot-backend/pkg/migrate"
	"github.com/adriansoto/stockpilot-backend/pkg/pubsub"
	"github.com/adriansoto/stockpilot-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency replay disabled")
	}

	var auditPublisher audit.Publisher
	if cfg.GCP.ProjectID != "" && cfg.Audit.Topic != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.Audit, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		auditPublisher = audit.NewTopicPublisher(pubsubClient.AuditPublisher())
	} else {
		logg.Warn(context.Background(), "pubsub not configured, audit entries stay local")
	}

	registry := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	gormDB := dbClient.DB()

	catalogSvc, err := catalog.NewService(catalog.NewRepository(gormDB))
	exitOnWireError(logg, "catalog service", err)

	taxSvc, err := taxes.NewService(taxes.NewRepository(gormDB))
	exitOnWireError(logg, "tax service", err)

	recorder, err := audit.NewRecorder(audit.NewRepository(gormDB), auditPublisher, logg)
	exitOnWireError(logg, "audit recorder", err)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(gormDB), dbClient, catalogSvc, recorder, ledgerMetrics, logg, cfg.Ledger)
	exitOnWireError(logg, "ledger service", err)

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.NewRepository(gormDB), dbClient, ledgerSvc, catalogSvc, taxSvc, recorder, ledgerMetrics, logg, cfg.Ledger)
	exitOnWireError(logg, "checkout service", err)

	purchasingSvc, err := purchasing.NewService(purchasing.NewRepository(gormDB), dbClient, ledgerSvc, catalogSvc, recorder, ledgerMetrics, logg, cfg.Ledger)
	exitOnWireError(logg, "purchasing service", err)

	adjustmentsSvc, err := adjustments.NewService(ledgerSvc, catalogSvc, recorder, logg)
	exitOnWireError(logg, "adjustments service", err)

	deps := routes.Deps{
		Config:         cfg,
		Logger:         logg,
		DBPinger:       dbClient,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Catalog:        catalogSvc,
		Ledger:         ledgerSvc,
		Checkout:       checkoutService,
		Purchasing:     purchasingSvc,
		Adjustments:    adjustmentsSvc,
	}
	if redisClient != nil {
		deps.RedisPinger = redisClient
		deps.IdempotencyStore = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(deps),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func exitOnWireError(logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+component, err)
	os.Exit(1)
}
