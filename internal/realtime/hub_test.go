package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/rfsentry/rfsentry/internal/api/models"
	"github.com/rfsentry/rfsentry/internal/realtime"
)

// dialTestHub starts a hub, exposes it over a test server and connects
// one WebSocket subscriber to it.
func dialTestHub(t *testing.T) (*realtime.Hub, *websocket.Conn) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := realtime.NewHub(zerolog.Nop())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Attach(w, r); err != nil {
			t.Errorf("failed to attach subscriber: %v", err)
		}
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	// Registration is asynchronous relative to the dial completing.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	return hub, conn
}

func TestHub_BroadcastsAlertFrames(t *testing.T) {
	hub, conn := dialTestHub(t)

	hub.PublishAlert(models.Alert{
		ID:          "alr_test123",
		DeviceID:    "sensor-01",
		ThreatLevel: "critical",
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}

	var got struct {
		Type    string       `json:"type"`
		Payload models.Alert `json:"payload"`
	}
	if err := json.Unmarshal(frame, &got); err != nil {
		t.Fatalf("failed to unmarshal frame: %v", err)
	}

	if got.Type != realtime.EventAlert {
		t.Errorf("expected event type %q, got %q", realtime.EventAlert, got.Type)
	}
	if got.Payload.ID != "alr_test123" {
		t.Errorf("expected alert alr_test123, got %q", got.Payload.ID)
	}
	if got.Payload.ThreatLevel != "critical" {
		t.Errorf("expected critical threat level, got %q", got.Payload.ThreatLevel)
	}
}

func TestHub_BroadcastsDeviceStatusFrames(t *testing.T) {
	hub, conn := dialTestHub(t)

	battery := 42
	hub.PublishDeviceStatus(models.DeviceStatus{
		DeviceID:       "sensor-02",
		Online:         true,
		BatteryPercent: &battery,
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}

	var got struct {
		Type    string              `json:"type"`
		Payload models.DeviceStatus `json:"payload"`
	}
	if err := json.Unmarshal(frame, &got); err != nil {
		t.Fatalf("failed to unmarshal frame: %v", err)
	}

	if got.Type != realtime.EventDeviceStatus {
		t.Errorf("expected event type %q, got %q", realtime.EventDeviceStatus, got.Type)
	}
	if got.Payload.DeviceID != "sensor-02" {
		t.Errorf("expected device sensor-02, got %q", got.Payload.DeviceID)
	}
	if got.Payload.BatteryPercent == nil || *got.Payload.BatteryPercent != 42 {
		t.Errorf("expected battery 42, got %v", got.Payload.BatteryPercent)
	}
}

func TestHub_PublishNeverBlocksWithoutSubscribers(t *testing.T) {
	// No Run loop, no subscribers: publishing must still return
	// immediately, dropping frames once the queue is full.
	hub := realtime.NewHub(zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.PublishAlert(models.Alert{ID: "alr_x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked with a saturated broadcast queue")
	}
}

func TestHub_DisconnectUnregistersSubscriber(t *testing.T) {
	hub, conn := dialTestHub(t)

	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never unregistered after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
