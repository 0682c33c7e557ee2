package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/philly/devtools-relay/internal/adapters/api"
)

// DatabasePinger is satisfied by *pgxpool.Pool.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	*BaseHandler
	version string
	db      DatabasePinger // nil when snapshots are kept in memory
}

func NewHealthHandler(base *BaseHandler, version string, db DatabasePinger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: base,
		version:     version,
		db:          db,
	}
}

// GetLiveness implements the liveness probe endpoint
// This is a lightweight check with no external dependencies
func (h *HealthHandler) GetLiveness(w http.ResponseWriter, r *http.Request) {
	response := api.HealthStatus{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Version:   &h.version,
	}

	h.WriteJSONResponse(w, r, response, http.StatusOK)
}

// GetReadiness implements the readiness probe endpoint
// The relay runs in-process, so only the snapshot database is checked.
func (h *HealthHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	status := api.Healthy
	httpStatus := http.StatusOK

	var checks *api.HealthChecks
	if h.db != nil {
		checks = &api.HealthChecks{}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := api.Up
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn(r.Context(), "readiness check failed", "error", err)
			dbStatus = api.Down
			status = api.Unhealthy
			httpStatus = http.StatusServiceUnavailable
		}
		checks.Database = &dbStatus
	}

	response := api.HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Version:   &h.version,
		Checks:    checks,
	}

	h.WriteJSONResponse(w, r, response, httpStatus)
}
