// Package main provides the entrypoint for the RFSentry API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rfsentry/rfsentry/internal/alert"
	"github.com/rfsentry/rfsentry/internal/api"
	"github.com/rfsentry/rfsentry/internal/api/middleware"
	"github.com/rfsentry/rfsentry/internal/auth"
	"github.com/rfsentry/rfsentry/internal/database"
	"github.com/rfsentry/rfsentry/internal/device"
	"github.com/rfsentry/rfsentry/internal/ingest"
	"github.com/rfsentry/rfsentry/internal/notify"
	"github.com/rfsentry/rfsentry/internal/realtime"
	"github.com/rfsentry/rfsentry/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "rfsentry-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting RFSentry API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize token service for the read/review surface
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	tokens := auth.NewTokenService(auth.TokenConfig{SigningKey: jwtSigningKey})

	// Relay shared secret for the ingestion endpoint
	relaySecret := os.Getenv("RELAY_SHARED_SECRET")
	if relaySecret == "" {
		log.Warn().Msg("no relay shared secret configured - ingestion endpoint is open")
	}

	// Initialize device and alert services
	deviceService := device.NewService(device.NewPostgresRepository(pool))
	alertService := alert.NewService(alert.NewPostgresRepository(pool))
	log.Info().Msg("device and alert services initialized")

	// Start the broadcast hub
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := realtime.NewHub(log)
	go hub.Run(hubCtx)

	// Outbound alert webhook (optional)
	var notifier ingest.AlertNotifier
	if url := os.Getenv("ALERT_WEBHOOK_URL"); url != "" {
		deliveryMetrics, err := notify.NewDeliveryMetrics()
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize delivery metrics")
		}
		notifier = notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:     url,
			Metrics: deliveryMetrics,
			Logger:  log,
		})
		log.Info().Str("url", url).Msg("alert webhook notifier initialized")
	}

	// Compose the ingestion pipeline
	pipeline := ingest.NewPipeline(ingest.PipelineConfig{
		Devices:     deviceService,
		Alerts:      alertService,
		Broadcaster: hub,
		Notifier:    notifier,
		Logger:      log,
	})
	log.Info().Msg("ingestion pipeline initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		ServiceName:  serviceName,
		Metrics:      metrics,
		RelaySecret:  relaySecret,
		Pipeline:     pipeline,
		AlertService: alertService,
		DeviceSvc:    deviceService,
		Tokens:       tokens,
		Hub:          hub,
		DB:           pool,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	stopHub()
	log.Info().Msg("server stopped")
}
