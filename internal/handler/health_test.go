package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// mockHealthChecker is a mock implementation of HealthChecker for testing.
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{err: errors.New("down")}, nil, discardLogger())

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("liveness must not depend on dependencies, got %d", rec.Code)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	tests := []struct {
		name         string
		db, cache    HealthChecker
		wantStatus   int
		wantPostgres string
		wantRedis    string
	}{
		{"all_healthy", &mockHealthChecker{}, &mockHealthChecker{}, http.StatusOK, "ok", "ok"},
		{"database_down", &mockHealthChecker{err: errors.New("connection refused")}, &mockHealthChecker{}, http.StatusServiceUnavailable, "error", "ok"},
		{"redis_down", &mockHealthChecker{}, &mockHealthChecker{err: errors.New("timeout")}, http.StatusServiceUnavailable, "ok", "error"},
		{"not_configured", nil, nil, http.StatusOK, "not configured", "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, tt.cache, discardLogger())

			rec := httptest.NewRecorder()
			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if strings.Contains(rec.Body.String(), "connection refused") {
				t.Error("dependency error details must not be exposed")
			}

			var response HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Checks["postgres"] != tt.wantPostgres {
				t.Errorf("postgres: expected %q, got %q", tt.wantPostgres, response.Checks["postgres"])
			}
			if response.Checks["redis"] != tt.wantRedis {
				t.Errorf("redis: expected %q, got %q", tt.wantRedis, response.Checks["redis"])
			}
		})
	}
}
