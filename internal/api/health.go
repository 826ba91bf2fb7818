package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type livenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type readinessResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version,omitempty"`
	Env      string            `json:"env,omitempty"`
	Backends map[string]string `json:"backends"`
}

func livenessHandler(env, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, livenessResponse{
			Status:  "ok",
			Version: version,
			Env:     env,
		})
	}
}

// readinessHandler pings both backends. Postgres down means the service
// cannot serve at all; Redis down only disables the booking lock, so it
// degrades rather than fails readiness.
func readinessHandler(pgPool *pgxpool.Pool, rdb *redis.Client, env, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		backends := map[string]string{"postgres": "ok", "redis": "ok"}
		status := "ok"

		if err := pgPool.Ping(ctx); err != nil {
			backends["postgres"] = "down"
			status = "error"
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			backends["redis"] = "down"
			if status == "ok" {
				status = "degraded"
			}
		}

		httpStatus := http.StatusOK
		if status == "error" {
			httpStatus = http.StatusServiceUnavailable
		}

		writeJSON(w, httpStatus, readinessResponse{
			Status:   status,
			Version:  version,
			Env:      env,
			Backends: backends,
		})
	}
}
