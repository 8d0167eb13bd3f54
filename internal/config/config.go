// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Page-view ingest modes.
const (
	IngestDirect = "direct"
	IngestStream = "stream"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"5000"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Identity tokens
	JWTSecret    string        `env:"JWT_SECRET,required"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"720h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting (per client IP)
	RateLimitEnabled       bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitTrackingRPS   int  `env:"RATE_LIMIT_TRACKING_RPS" envDefault:"20"`
	RateLimitTrackingBurst int  `env:"RATE_LIMIT_TRACKING_BURST" envDefault:"40"`
	RateLimitAuthRPS       int  `env:"RATE_LIMIT_AUTH_RPS" envDefault:"5"`
	RateLimitAuthBurst     int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"10"`

	// Honour X-Forwarded-For / X-Real-IP. Enable only behind a proxy that
	// overwrites them, otherwise clients choose their own rate limit key.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Upper bound on the number of buckets a densified aggregation may produce.
	AggregateMaxBuckets int `env:"AGGREGATE_MAX_BUCKETS" envDefault:"10000"`

	// TTL of the cached published-article list.
	ArticleCacheTTL time.Duration `env:"ARTICLE_CACHE_TTL" envDefault:"60s"`

	// Page-view ingest: "direct" writes synchronously, "stream" goes through Redis.
	PageViewIngestMode string `env:"PAGEVIEW_INGEST_MODE" envDefault:"direct"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsesStreamIngest reports whether page views are queued on the Redis stream.
func (c *Config) UsesStreamIngest() bool {
	return c.PageViewIngestMode == IngestStream
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.PageViewIngestMode {
	case IngestDirect, IngestStream:
	default:
		return fmt.Errorf("invalid PAGEVIEW_INGEST_MODE %q", c.PageViewIngestMode)
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if c.AggregateMaxBuckets <= 0 {
		return fmt.Errorf("AGGREGATE_MAX_BUCKETS must be positive")
	}
	return nil
}
