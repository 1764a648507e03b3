package notify

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/rfsentry/rfsentry/internal/notify"

// DeliveryMetrics holds instruments for outbound webhook deliveries.
type DeliveryMetrics struct {
	deliveryDuration metric.Float64Histogram
	deliveryTotal    metric.Int64Counter
	deliveryDropped  metric.Int64Counter
}

// NewDeliveryMetrics creates metrics for monitoring alert deliveries to
// the webhook receiver.
func NewDeliveryMetrics() (*DeliveryMetrics, error) {
	meter := otel.Meter(meterName)

	deliveryDuration, err := meter.Float64Histogram(
		"webhook.delivery.duration",
		metric.WithDescription("Duration of webhook alert deliveries in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	deliveryTotal, err := meter.Int64Counter(
		"webhook.delivery.total",
		metric.WithDescription("Total number of webhook delivery attempts"),
		metric.WithUnit("{delivery}"),
	)
	if err != nil {
		return nil, err
	}

	deliveryDropped, err := meter.Int64Counter(
		"webhook.delivery.dropped",
		metric.WithDescription("Number of alerts dropped after delivery failure"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return nil, err
	}

	return &DeliveryMetrics{
		deliveryDuration: deliveryDuration,
		deliveryTotal:    deliveryTotal,
		deliveryDropped:  deliveryDropped,
	}, nil
}

// RecordDelivery records one delivery attempt, including retries, as a
// single observation.
func (m *DeliveryMetrics) RecordDelivery(threatLevel string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("alert.threat_level", threatLevel),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Use background context for metrics to avoid context cancellation issues
	ctx := context.TODO()
	m.deliveryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.deliveryTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDrop records an alert dropped after delivery gave up.
func (m *DeliveryMetrics) RecordDrop(threatLevel string) {
	attrs := []attribute.KeyValue{
		attribute.String("alert.threat_level", threatLevel),
	}
	m.deliveryDropped.Add(context.TODO(), 1, metric.WithAttributes(attrs...))
}
