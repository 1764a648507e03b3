// Package api provides the HTTP API for RFSentry.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rfsentry/rfsentry/internal/alert"
	"github.com/rfsentry/rfsentry/internal/api/handler"
	"github.com/rfsentry/rfsentry/internal/api/middleware"
	"github.com/rfsentry/rfsentry/internal/auth"
	"github.com/rfsentry/rfsentry/internal/device"
	"github.com/rfsentry/rfsentry/internal/ingest"
	"github.com/rfsentry/rfsentry/internal/realtime"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// RelaySecret guards the ingestion endpoint. Empty disables the
	// check (local development).
	RelaySecret string

	Pipeline     *ingest.Pipeline
	AlertService *alert.Service
	DeviceSvc    *device.Service
	Tokens       *auth.TokenService
	Hub          *realtime.Hub
	DB           handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "rfsentry-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB)
	ingestHandler := handler.NewIngestHandler(cfg.Pipeline)
	alertHandler := handler.NewAlertHandler(cfg.AlertService)
	deviceHandler := handler.NewDeviceHandler(cfg.DeviceSvc)

	authMiddleware := middleware.Auth(cfg.Tokens)
	standardRateLimit := middleware.RateLimitByOperator(middleware.StandardRateLimit)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Relay ingestion - shared-secret guarded, no token auth. The
		// relay retries on any non-2xx, so this path must stay fast.
		r.Route("/ingest", func(r chi.Router) {
			r.Use(middleware.RelaySecret(cfg.RelaySecret))
			r.Use(middleware.RateLimitByIP(middleware.IngestRateLimit))
			r.Use(middleware.ContentTypeJSON)
			r.Post("/", ingestHandler.Ingest)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Real-time subscriber attach (authenticated; token may ride
		// the query string since browsers cannot set upgrade headers).
		if cfg.Hub != nil {
			wsHandler := handler.NewWSHandler(cfg.Hub, cfg.Logger)
			r.With(authMiddleware).Get("/ws", wsHandler.Subscribe)
		}

		// Alert read/review surface (authenticated)
		r.Route("/alerts", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Use(middleware.ContentTypeJSON)
			r.Get("/", alertHandler.ListAlerts)
			r.Route("/{alertId}", func(r chi.Router) {
				r.Get("/", alertHandler.GetAlert)
				r.Patch("/", alertHandler.ReviewAlert)
				r.Delete("/", alertHandler.DeleteAlert)
			})
		})

		// Device admin surface (authenticated)
		r.Route("/devices", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Use(middleware.ContentTypeJSON)
			r.Get("/", deviceHandler.ListDevices)
			r.Route("/{deviceId}", func(r chi.Router) {
				r.Get("/", deviceHandler.GetDevice)
				r.Put("/", deviceHandler.UpdateDevice)
				r.Delete("/", deviceHandler.DeleteDevice)
			})
		})
	})

	return r
}
