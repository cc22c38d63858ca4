// Package main is the entrypoint for the Inkwell API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/inkwell/inkwell/internal/config"
	"github.com/inkwell/inkwell/internal/email"
	"github.com/inkwell/inkwell/internal/handler"
	"github.com/inkwell/inkwell/internal/metrics"
	"github.com/inkwell/inkwell/internal/middleware"
	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/repository"
	"github.com/inkwell/inkwell/internal/server"
	"github.com/inkwell/inkwell/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// The sender address ends up in every outbound message; reject a
	// malformed one before serving traffic.
	if _, err := model.ParseSubscriberEmail(cfg.EmailSender); err != nil {
		logger.Error("invalid sender address", "error", err)
		os.Exit(1)
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	emailClient := email.NewClient(cfg.EmailBaseURL, cfg.EmailSender, cfg.EmailAuthToken, cfg.EmailTimeout)
	dispatcher := email.NewDispatcher(emailClient, cfg.BaseURL)

	tokens, err := service.NewTokenGenerator()
	if err != nil {
		logger.Error("failed to initialize token generator", "error", err)
		os.Exit(1)
	}

	metricsRecorder := metrics.NewInMemory()
	subscriptionService := service.NewSubscriptionService(repo, dispatcher, tokens, metricsRecorder, logger)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService, logger)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)

	r := setupRouter(h, healthHandler, subscriptionHandler, metricsHandler, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("database pool", func(ctx context.Context) error {
		repo.Close()
		return nil
	})

	logger.Info("starting server",
		"addr", srv.Addr(),
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	metricsHandler *handler.MetricsHandler,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))

	// Health endpoints
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", h.Hello)

	// Metrics exposition
	r.Get("/metrics", metricsHandler.Metrics)

	// Subscription workflow
	r.Post("/subscriptions", subscriptionHandler.Subscribe)
	r.Get("/subscriptions/confirm", subscriptionHandler.Confirm)

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

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
