// Package handler provides HTTP handlers for the RFSentry API.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/rfsentry/rfsentry/internal/api/models"
	"github.com/rfsentry/rfsentry/internal/api/response"
	"github.com/rfsentry/rfsentry/internal/ingest"
)

// maxIngestBody bounds relay payloads; real envelopes are hundreds of
// bytes.
const maxIngestBody = 64 * 1024

// IngestHandler handles the relay webhook endpoint.
type IngestHandler struct {
	pipeline *ingest.Pipeline
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(pipeline *ingest.Pipeline) *IngestHandler {
	return &IngestHandler{pipeline: pipeline}
}

// Ingest handles POST /v1/ingest - one relay envelope per request.
//
// The relay retries the whole delivery on any non-2xx or timeout, so
// the handler answers as soon as the store operations complete;
// broadcast fan-out never delays the response. There is no idempotency
// key, so a retried delivery may produce a duplicate alert. That is
// accepted.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		response.BadRequest(w, r, "unreadable request body", nil)
		return
	}

	result, err := h.pipeline.Process(r.Context(), body)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrMalformedPayload):
			response.BadRequest(w, r, "envelope has no inner payload object", nil)
		case errors.Is(err, ingest.ErrUnroutablePayload):
			response.BadRequest(w, r, "cannot determine event route", nil)
		case errors.Is(err, ingest.ErrMissingDeviceID):
			response.BadRequest(w, r, "payload has no device identifier", nil)
		default:
			// Store failure: surface it so the relay retries the event.
			response.ServiceUnavailable(w, r, "event could not be persisted")
		}
		return
	}

	ack := models.IngestAck{Status: "ok"}
	if result.Dropped {
		ack.Status = "ignored"
	}
	if result.Alert != nil {
		ack.AlertID = &result.Alert.ID
	}
	response.JSON(w, r, http.StatusOK, ack)
}
