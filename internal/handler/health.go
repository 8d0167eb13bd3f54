package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// readinessTimeout bounds the dependency checks of one readiness check.
const readinessTimeout = 3 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db     HealthChecker
	cache  HealthChecker
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
// A nil checker is reported as "not configured".
func NewHealthHandler(db, cache HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is the liveness check. It never touches dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is the readiness check. It returns 503 unless PostgreSQL and
// Redis both answer a ping.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{
		"postgres": h.check(ctx, "postgres", h.db),
		"redis":    h.check(ctx, "redis", h.cache),
	}

	response := HealthResponse{Status: "ok", Checks: checks}
	status := http.StatusOK
	for _, result := range checks {
		if result == "error" {
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, response)
}

// check pings one dependency. Failure details go to the log, not the response.
func (h *HealthHandler) check(ctx context.Context, name string, checker HealthChecker) string {
	if checker == nil {
		return "not configured"
	}
	if err := checker.Ping(ctx); err != nil {
		if h.logger != nil {
			h.logger.Warn("readiness check failed", "dependency", name, "error", err)
		}
		return "error"
	}
	return "ok"
}
