package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds CORS configuration options.
type CORSConfig struct {
	// AllowedOrigins lists exact origins or "*.example.com" subdomain patterns.
	// An empty list denies every cross-origin request.
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the Access-Control-Max-Age value in seconds.
	MaxAge int
}

// DefaultCORSConfig returns CORS defaults for the JSON API.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID", "Accept"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         86400,
	}
}

// originMatcher resolves whether an Origin header is allowed.
type originMatcher struct {
	exact    map[string]struct{}
	suffixes []string // ".example.com" for "*.example.com"
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.ToLower(strings.TrimSpace(origin))
		if suffix, ok := strings.CutPrefix(origin, "*"); ok && strings.HasPrefix(suffix, ".") {
			m.suffixes = append(m.suffixes, suffix)
			continue
		}
		m.exact[origin] = struct{}{}
	}
	return m
}

func (m originMatcher) allows(origin string) bool {
	origin = strings.ToLower(origin)
	if _, ok := m.exact[origin]; ok {
		return true
	}

	host := origin
	if _, rest, ok := strings.Cut(origin, "://"); ok {
		host = rest
	}
	for _, suffix := range m.suffixes {
		// "*.example.com" matches "a.example.com" but not "example.com" or "notexample.com".
		if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			return true
		}
	}
	return false
}

// CORS returns a middleware that handles Cross-Origin Resource Sharing,
// answering preflight requests itself.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	matcher := newOriginMatcher(cfg.AllowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")

			if !matcher.allows(origin) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				// No CORS headers; the browser blocks the response.
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if exposed != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposed)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
