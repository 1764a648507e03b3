// Package worker consumes relay envelopes from a Pub/Sub subscription
// and drives them through the same ingestion pipeline as the HTTP
// endpoint. Deployments whose relay cannot reach the webhook directly
// publish to a topic instead.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/rfsentry/rfsentry/internal/ingest"
)

// PubSubConfig holds configuration for the Pub/Sub ingest handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Pipeline         *ingest.Pipeline
	Logger           zerolog.Logger
}

// PubSubHandler pulls relay envelopes and applies them.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	pipeline         *ingest.Pipeline
	logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub ingest handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 32
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		pipeline:         cfg.Pipeline,
		logger:           cfg.Logger,
	}, nil
}

// Start pulls messages until ctx is done, restarting the receive loop
// with exponential backoff on transient failures.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub ingest")

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0 // keep receiving until cancelled

	operation := func() error {
		err := h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
			h.handleMessage(ctx, msg)
		})
		if err != nil && ctx.Err() == nil {
			h.logger.Error().Err(err).Msg("pubsub receive failed, restarting")
			return err
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(bo, ctx))
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	result, err := h.pipeline.Process(ctx, msg.Data)
	if err != nil {
		// Bad payloads can never succeed; ack them away. Store
		// failures are worth a redelivery.
		if isPayloadError(err) {
			logger.Warn().Err(err).Msg("unprocessable envelope, dropped")
			msg.Ack()
			return
		}
		logger.Error().Err(err).Msg("envelope processing failed")
		msg.Nack()
		return
	}

	event := logger.Info().
		Str("route", string(result.Route)).
		Dur("duration", time.Since(startTime))
	if result.Alert != nil {
		event = event.Str("alert_id", result.Alert.ID)
	}
	event.Msg("envelope processed")

	msg.Ack()
}

func isPayloadError(err error) bool {
	return errors.Is(err, ingest.ErrMalformedPayload) ||
		errors.Is(err, ingest.ErrUnroutablePayload) ||
		errors.Is(err, ingest.ErrMissingDeviceID)
}
