package handler

import (
	"net/http"
)

// MetricsExposer renders metrics in the Prometheus exposition format.
type MetricsExposer interface {
	Handler() http.Handler
}

// MetricsHandler exposes application metrics.
type MetricsHandler struct {
	next http.Handler
}

// NewMetricsHandler creates a new MetricsHandler. A nil exposer serves 503.
func NewMetricsHandler(exposer MetricsExposer) *MetricsHandler {
	h := &MetricsHandler{}
	if exposer != nil {
		h.next = exposer.Handler()
	}
	return h
}

// Metrics handles GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.next == nil {
		writeError(w, http.StatusServiceUnavailable, "METRICS_DISABLED", "Metrics are not enabled")
		return
	}
	h.next.ServeHTTP(w, r)
}
