// Package notify forwards high-severity alerts to an external webhook
// receiver. Delivery is best-effort and never blocks or fails the
// ingestion pipeline.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/rfsentry/rfsentry/internal/api/models"
)

// ErrReceiverDown is returned when the circuit breaker is open.
var ErrReceiverDown = errors.New("webhook receiver circuit is open")

// WebhookConfig holds configuration for the webhook notifier.
type WebhookConfig struct {
	// URL is the receiver endpoint. Empty disables notification.
	URL string

	// Timeout is the per-delivery HTTP timeout. Default: 10 seconds.
	Timeout time.Duration

	// MaxRetries bounds retry attempts per alert. Default: 3.
	MaxRetries uint64

	// Metrics, when set, records delivery outcomes.
	Metrics *DeliveryMetrics

	Logger zerolog.Logger
}

// WebhookNotifier POSTs alert JSON to a configured receiver, guarded by
// a circuit breaker so a dead receiver cannot pile up goroutines, with
// exponential-backoff retries for transient failures.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[int]
	retries uint64
	metrics *DeliveryMetrics
	logger  zerolog.Logger
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}

	breaker := gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
		Name:    "alert-webhook",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
	})

	return &WebhookNotifier{
		url:     cfg.URL,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		retries: retries,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// NotifyAlert delivers one alert to the receiver. Failures are logged
// and dropped; the pipeline never learns about them.
func (n *WebhookNotifier) NotifyAlert(ctx context.Context, a models.Alert) {
	if n.url == "" {
		return
	}

	body, err := json.Marshal(a)
	if err != nil {
		n.logger.Error().Err(err).Str("alert_id", a.ID).Msg("marshal alert notification")
		return
	}

	start := time.Now()
	err = n.deliver(ctx, body)
	if n.metrics != nil {
		n.metrics.RecordDelivery(a.ThreatLevel, time.Since(start), err)
	}
	if err != nil {
		if n.metrics != nil {
			n.metrics.RecordDrop(a.ThreatLevel)
		}
		n.logger.Warn().Err(err).Str("alert_id", a.ID).Msg("alert notification dropped")
		return
	}

	n.logger.Debug().Str("alert_id", a.ID).Msg("alert notification delivered")
}

func (n *WebhookNotifier) deliver(ctx context.Context, body []byte) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	operation := func() error {
		status, err := n.breaker.Execute(func() (int, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
			if err != nil {
				return 0, err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := n.client.Do(req)
			if err != nil {
				return 0, err
			}
			defer resp.Body.Close()

			// 5xx trips the breaker; 4xx means the receiver rejected
			// the payload and retrying cannot help.
			if resp.StatusCode >= 500 {
				return resp.StatusCode, &receiverError{status: resp.StatusCode}
			}
			return resp.StatusCode, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrReceiverDown)
			}
			return err
		}
		if status >= 400 {
			return backoff.Permanent(&receiverError{status: status})
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, n.retries), ctx))
}

type receiverError struct {
	status int
}

func (e *receiverError) Error() string {
	return "webhook receiver returned " + http.StatusText(e.status)
}
