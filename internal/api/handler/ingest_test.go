package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfsentry/rfsentry/internal/alert"
	"github.com/rfsentry/rfsentry/internal/api/handler"
	"github.com/rfsentry/rfsentry/internal/api/models"
	"github.com/rfsentry/rfsentry/internal/device"
	"github.com/rfsentry/rfsentry/internal/ingest"
)

type brokenAlertRepo struct {
	alert.Repository
}

func (brokenAlertRepo) Insert(context.Context, *alert.Alert) error {
	return errors.New("connection refused")
}

func newIngestHandler(alertRepo alert.Repository) *handler.IngestHandler {
	pipeline := ingest.NewPipeline(ingest.PipelineConfig{
		Devices: device.NewService(device.NewInMemoryRepository()),
		Alerts:  alert.NewService(alertRepo),
		Logger:  zerolog.Nop(),
	})
	return handler.NewIngestHandler(pipeline)
}

func postEnvelope(h *handler.IngestHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Ingest(rec, req)
	return rec
}

func TestIngest_Success(t *testing.T) {
	h := newIngestHandler(alert.NewInMemoryRepository())

	body := `{"path":"/detections","data":{"device_id":"s1","timestamp":1756400000,"detection":{"type":"w","rssi":-60,"zone":1,"mac":"AB"}}}`
	rec := postEnvelope(h, body)

	require.Equal(t, http.StatusOK, rec.Code)

	var ack models.IngestAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "ok", ack.Status)
	assert.NotNil(t, ack.AlertID)
}

func TestIngest_BadRequests(t *testing.T) {
	h := newIngestHandler(alert.NewInMemoryRepository())

	tests := []struct {
		name string
		body string
		want string
	}{
		{"no inner payload", `{}`, "envelope has no inner payload object"},
		{"unroutable", `{"data":{"device_id":"s1"}}`, "cannot determine event route"},
		{"no device id", `{"path":"/detections","data":{"detection":{"type":"w","rssi":-60,"zone":1,"mac":"AB"}}}`, "payload has no device identifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postEnvelope(h, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestIngest_StoreFailureIs503(t *testing.T) {
	// The relay retries on any non-2xx; a store outage must answer 5xx
	// so the event is redelivered rather than lost.
	h := newIngestHandler(brokenAlertRepo{alert.NewInMemoryRepository()})

	body := `{"path":"/detections","data":{"device_id":"s1","timestamp":1756400000,"detection":{"type":"w","rssi":-60,"zone":1,"mac":"AB"}}}`
	rec := postEnvelope(h, body)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "event could not be persisted")
}

func TestIngest_DroppedPayloadIsAcknowledged(t *testing.T) {
	h := newIngestHandler(alert.NewInMemoryRepository())

	rec := postEnvelope(h, `{"path":"/heartbeat","data":{"device_id":"s1"}}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var ack models.IngestAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "ignored", ack.Status)
	assert.Nil(t, ack.AlertID)
}
