// Package main is the entrypoint for the Pressroom API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pressroom/pressroom/internal/analytics"
	"github.com/pressroom/pressroom/internal/auth"
	"github.com/pressroom/pressroom/internal/cache"
	"github.com/pressroom/pressroom/internal/config"
	"github.com/pressroom/pressroom/internal/content"
	"github.com/pressroom/pressroom/internal/handler"
	"github.com/pressroom/pressroom/internal/metrics"
	"github.com/pressroom/pressroom/internal/middleware"
	"github.com/pressroom/pressroom/internal/repository"
	"github.com/pressroom/pressroom/internal/server"
	"github.com/pressroom/pressroom/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	if err := repo.Migrate(ctx); err != nil {
		logger.Error("failed to apply migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	recorder := metrics.NewPrometheus()
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn)
	pageViews := repository.NewPageViewRepository(repo)

	// Page views are written inline unless stream ingest is enabled.
	var (
		publisher service.PageViewPublisher
		worker    *analytics.Worker
	)
	if cfg.UsesStreamIngest() {
		publisher = analytics.NewPublisher(cacheClient.Client(), logger, recorder)
		worker = analytics.NewWorker(cacheClient.Client(), pageViews, logger, analytics.NewConsumerID(), recorder, analytics.DefaultWorkerConfig())
	}

	authService := service.NewAuthService(repo, tokens, logger, recorder)
	userService := service.NewUserService(repo, cacheClient, logger)
	articleService := service.NewArticleService(repo, cacheClient, content.NewSanitizer(), cfg.ArticleCacheTTL, logger, recorder)
	pageViewService := service.NewPageViewService(
		pageViews,
		publisher,
		analytics.NewAggregator(pageViews, cfg.AggregateMaxBuckets, recorder),
		logger,
		recorder,
	)

	r := setupRouter(routes{
		root:      handler.New(),
		health:    handler.NewHealthHandler(repo, cacheClient, logger),
		metrics:   handler.NewMetricsHandler(recorder),
		auth:      handler.NewAuthHandler(authService, logger),
		users:     handler.NewUserHandler(userService, logger),
		articles:  handler.NewArticleHandler(articleService, logger),
		pageViews: handler.NewPageViewHandler(pageViewService, logger),
	}, tokens, cacheClient, recorder, cfg, logger)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	if worker != nil {
		go func() {
			if err := worker.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("pageview worker stopped", "error", err)
			}
		}()
		srv.OnShutdown("pageview-worker", worker.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"pageview_ingest", cfg.PageViewIngestMode,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "pressroom")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routes groups the HTTP handlers mounted by setupRouter.
type routes struct {
	root      *handler.Handler
	health    *handler.HealthHandler
	metrics   *handler.MetricsHandler
	auth      *handler.AuthHandler
	users     *handler.UserHandler
	articles  *handler.ArticleHandler
	pageViews *handler.PageViewHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h routes,
	verifier auth.Verifier,
	limiter middleware.IPLimiter,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.Get("/", h.root.Root)
	r.Get("/healthz", h.health.Healthz)
	r.Get("/readyz", h.health.Readyz)
	r.Get("/metrics", h.metrics.Metrics)

	requireAuth := middleware.RequireAuth(middleware.AuthConfig{
		Logger:   logger,
		Verifier: verifier,
		Metrics:  recorder,
	})
	rateLimit := func(scope string, rps, burst int) func(http.Handler) http.Handler {
		return middleware.RateLimitIP(middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: limiter,
			Enabled: cfg.RateLimitEnabled,
			Scope:   scope,
			RPS:     rps,
			Burst:   burst,
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(rateLimit("auth", cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst))
			r.Post("/register", h.auth.Register)
			r.Post("/login", h.auth.Login)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.users.List)
			r.Get("/{id}", h.users.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", h.users.Create)
				r.Patch("/{id}", h.users.Update)
				r.Put("/{id}", h.users.Update)
				r.Delete("/{id}", h.users.Delete)
			})
		})

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", h.articles.List)
			r.With(middleware.OptionalAuth(verifier)).Get("/{id}", h.articles.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", h.articles.Create)
				r.Patch("/{id}", h.articles.Update)
				r.Put("/{id}", h.articles.Update)
				r.Delete("/{id}", h.articles.Delete)
			})
		})

		r.Route("/page-view", func(r chi.Router) {
			r.With(rateLimit("tracking", cfg.RateLimitTrackingRPS, cfg.RateLimitTrackingBurst)).Post("/", h.pageViews.Track)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/count", h.pageViews.Count)
				r.Get("/aggregate-date", h.pageViews.Aggregate)
			})
		})
	})

	r.NotFound(h.root.NotFound)
	r.MethodNotAllowed(h.root.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
