package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/adriansoto/stockpilot-backend/api/responses"
	"github.com/adriansoto/stockpilot-backend/pkg/config"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
)

// Pinger is the health surface every backing dependency exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StockPilot-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when wired, redis. Optional
// dependencies passed as nil are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StockPilot-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		failed := false

		probe := func(name string, p Pinger) {
			if p == nil {
				checks[name] = "skipped"
				return
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "down"
				failed = true
				if logg != nil {
					logg.Error(ctx, "readiness probe failed for "+name, err)
				}
				return
			}
			checks[name] = "up"
		}

		probe("database", dbP)
		probe("redis", redisP)

		if failed {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
