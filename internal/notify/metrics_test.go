package notify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rfsentry/rfsentry/internal/notify"
)

func TestNewDeliveryMetrics(t *testing.T) {
	metrics, err := notify.NewDeliveryMetrics()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics == nil {
		t.Fatal("expected metrics to be created")
	}
}

func TestDeliveryMetrics_Record(t *testing.T) {
	metrics, err := notify.NewDeliveryMetrics()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Recording against the default no-op meter provider must not panic.
	metrics.RecordDelivery("critical", 120*time.Millisecond, nil)
	metrics.RecordDelivery("high", 45*time.Second, context.DeadlineExceeded)
	metrics.RecordDrop("high")
}

func TestWebhookNotifier_RecordsDeliveryMetrics(t *testing.T) {
	metrics, err := notify.NewDeliveryMetrics()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := notify.NewWebhookNotifier(notify.WebhookConfig{
		URL:     server.URL,
		Metrics: metrics,
		Logger:  zerolog.Nop(),
	})

	// Instrumented delivery must behave exactly like an uninstrumented one.
	notifier.NotifyAlert(context.Background(), testAlert())
}

func TestWebhookNotifier_RecordsDropMetrics(t *testing.T) {
	metrics, err := notify.NewDeliveryMetrics()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	notifier := notify.NewWebhookNotifier(notify.WebhookConfig{
		URL:     server.URL,
		Metrics: metrics,
		Logger:  zerolog.Nop(),
	})

	notifier.NotifyAlert(context.Background(), testAlert())
}
