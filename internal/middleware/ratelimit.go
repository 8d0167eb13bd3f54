package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pressroom/pressroom/internal/cache"
)

// IPLimiter checks per-IP token buckets.
type IPLimiter interface {
	CheckIPRateLimit(ctx context.Context, scope, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter IPLimiter
	Enabled bool
	// Scope separates buckets between route groups, e.g. "auth" and "tracking".
	Scope string
	RPS   int // Requests per second
	Burst int
}

// RateLimitIP returns middleware that rate limits requests per client IP.
// Limiter errors fail open.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.Limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)

			result, err := cfg.Limiter.CheckIPRateLimit(r.Context(), cfg.Scope, ip, cfg.RPS, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("IP rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("scope", cfg.Scope),
				)
			}
			if result == nil || result.Allowed {
				if result != nil && err == nil {
					setRateLimitHeaders(w, result)
				}
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := retryAfterSeconds(result.RetryAfter)
			cfg.Logger.Warn("rate limit exceeded",
				slog.String("scope", cfg.Scope),
				slog.String("ip", ip),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.Int("retry_after_seconds", retryAfter),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			setRateLimitHeaders(w, result)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeRateLimitError(w, retryAfter)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, result *cache.RateLimitResult) {
	if result.Limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	if !result.ResetAt.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	}
}

// retryAfterSeconds rounds up to whole seconds, minimum one.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// writeRateLimitError writes a 429 Too Many Requests response.
func writeRateLimitError(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	msg := fmt.Sprintf(`{"message":"Rate limit exceeded. Retry after %d seconds.","code":"RATE_LIMITED"}`, retryAfter)
	_, _ = w.Write([]byte(msg))
}

// getClientIP returns the host part of r.RemoteAddr. Forwarding headers are
// client controlled and only honoured through chi's RealIP middleware, which
// is mounted when the deployment trusts its proxy.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
