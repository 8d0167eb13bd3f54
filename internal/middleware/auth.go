package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pressroom/pressroom/internal/auth"
	"github.com/pressroom/pressroom/internal/metrics"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier auth.Verifier
	Metrics  metrics.Recorder
}

// RequireAuth returns a middleware that rejects requests without a valid
// bearer token. The verified identity is attached to the request context.
func RequireAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.ExtractBearer(r.Header.Get("Authorization"))
			if !ok {
				logAuthFailure(cfg.Logger, r, "missing_token")
				recorder.IncAuthFailure("missing_token")
				writeAuthError(w)
				return
			}

			identity, err := cfg.Verifier.Verify(token)
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, auth.ErrTokenExpired) {
					reason = "expired_token"
				}
				logAuthFailure(cfg.Logger, r, reason)
				recorder.IncAuthFailure(reason)
				writeAuthError(w)
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("user_id", identity.ID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches an identity when the request carries a verifiable
// token and otherwise lets the request through as anonymous.
func OptionalAuth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.ResolveOptional(r.Header.Get("Authorization"), verifier)
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
// Every failure uses the same message.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"Authentication invalid","code":"UNAUTHORIZED"}`))
}
