package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rfsentry/rfsentry/internal/realtime"
)

// WSHandler attaches real-time subscribers to the broadcast hub.
type WSHandler struct {
	hub    *realtime.Hub
	logger zerolog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *realtime.Hub, logger zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, logger: logger}
}

// Subscribe handles GET /v1/ws - upgrade to a WebSocket subscription.
// Authentication has already happened in middleware; after the upgrade
// the connection only receives frames.
func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.Attach(w, r); err != nil {
		// Attach only fails before the upgrade completes, so the
		// upgrader has already written the error response.
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
	}
}
