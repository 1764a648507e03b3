// Package main provides the entrypoint for the RFSentry ingest worker.
//
// The worker pulls relay envelopes from a Pub/Sub subscription and runs
// them through the same pipeline the HTTP ingestion endpoint uses. It
// has no realtime fan-out of its own; connected dashboards are served by
// the API process.
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
	"github.com/rfsentry/rfsentry/internal/database"
	"github.com/rfsentry/rfsentry/internal/device"
	"github.com/rfsentry/rfsentry/internal/ingest"
	"github.com/rfsentry/rfsentry/internal/notify"
	"github.com/rfsentry/rfsentry/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "rfsentry-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting RFSentry ingest worker")

	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	if projectID == "" {
		log.Fatal().Msg("PUBSUB_PROJECT_ID is required")
	}

	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if subscription == "" {
		subscription = "rfsentry-ingest"
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8081"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	deviceService := device.NewService(device.NewPostgresRepository(pool))
	alertService := alert.NewService(alert.NewPostgresRepository(pool))

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

	pipeline := ingest.NewPipeline(ingest.PipelineConfig{
		Devices:  deviceService,
		Alerts:   alertService,
		Notifier: notifier,
		Logger:   log,
	})

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        projectID,
		SubscriptionName: subscription,
		Pipeline:         pipeline,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer handler.Close()

	// Liveness endpoint so the orchestrator can see the worker is up.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`)) //nolint:errcheck
	})

	healthServer := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", healthServer.Addr).Msg("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	workerErr := make(chan error, 1)
	go func() {
		workerErr <- handler.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutdown signal received")
	case err := <-workerErr:
		if err != nil {
			log.Error().Err(err).Msg("worker stopped with error")
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
