package controllers

import (
	"context"
	"net/http"

	"github.com/calebmonroe/printhaus-backend/api/responses"
	"github.com/calebmonroe/printhaus-backend/pkg/config"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
	"github.com/calebmonroe/printhaus-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Printhaus-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Printhaus-Env", cfg.App.Env)

		checks := map[string]string{}
		ready := true

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				checks["db"] = "down"
				ready = false
			} else {
				checks["db"] = "up"
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				checks["redis"] = "down"
				ready = false
			} else {
				checks["redis"] = "up"
			}
		}

		if !ready {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
