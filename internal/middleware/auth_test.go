package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pressroom/pressroom/internal/auth"
	"github.com/pressroom/pressroom/internal/metrics"
	"github.com/pressroom/pressroom/internal/model"
)

var testIdentity = model.Identity{ID: "01J3ZC0Q6W6N3B7WJ2K7X9M1AA", Name: "Jane Doe", Username: "janedoe"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := auth.IdentityFromContext(r.Context())
		if identity == nil {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(identity.Username))
	})
}

func issueToken(t *testing.T, tokens *auth.TokenService) string {
	t.Helper()
	token, _, err := tokens.Issue(testIdentity)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func expiredToken(t *testing.T, secret string) string {
	t.Helper()
	claims := &auth.Claims{
		ID:       testIdentity.ID,
		Name:     testIdentity.Name,
		Username: testIdentity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	other := auth.NewTokenService("other-secret", time.Hour)

	recorder := metrics.NewInMemory()
	handler := RequireAuth(AuthConfig{Logger: discardLogger(), Verifier: tokens, Metrics: recorder})(identityEcho())

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid", "Bearer " + issueToken(t, tokens), http.StatusOK, "janedoe"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong_scheme", "Basic " + issueToken(t, tokens), http.StatusUnauthorized, ""},
		{"bare_token", issueToken(t, tokens), http.StatusUnauthorized, ""},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, ""},
		{"wrong_secret", "Bearer " + issueToken(t, other), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expiredToken(t, "test-secret"), http.StatusUnauthorized, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/page-view/count", nil)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != test.wantStatus {
				t.Fatalf("expected status %d, got %d", test.wantStatus, rec.Code)
			}
			if test.wantStatus == http.StatusOK {
				if rec.Body.String() != test.wantBody {
					t.Errorf("expected body %q, got %q", test.wantBody, rec.Body.String())
				}
				return
			}

			var body struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Message != "Authentication invalid" || body.Code != "UNAUTHORIZED" {
				t.Errorf("unexpected error body %+v", body)
			}
		})
	}

	snap := recorder.Snapshot()
	if snap.AuthFailures["missing_token"] != 3 {
		t.Errorf("expected 3 missing_token failures, got %d", snap.AuthFailures["missing_token"])
	}
	if snap.AuthFailures["expired_token"] != 1 {
		t.Errorf("expected 1 expired_token failure, got %d", snap.AuthFailures["expired_token"])
	}
	if snap.AuthFailures["invalid_token"] != 2 {
		t.Errorf("expected 2 invalid_token failures, got %d", snap.AuthFailures["invalid_token"])
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	handler := OptionalAuth(tokens)(identityEcho())

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer " + issueToken(t, tokens), "janedoe"},
		{"missing", "", "anonymous"},
		{"malformed", "Bearer", "anonymous"},
		{"invalid", "Bearer not.a.jwt", "anonymous"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/articles/x", nil)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("optional auth must never reject, got %d", rec.Code)
			}
			if rec.Body.String() != test.want {
				t.Errorf("expected %q, got %q", test.want, rec.Body.String())
			}
		})
	}
}
