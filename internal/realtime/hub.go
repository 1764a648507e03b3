package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rfsentry/rfsentry/internal/api/models"
)

// broadcastBuffer bounds how many frames may be queued for fan-out
// before publishers start dropping. Publishing must never block the
// ingestion response path.
const broadcastBuffer = 256

// Hub owns the subscriber registry and fans frames out to every
// connected client. The registry is mutated only by connect/disconnect
// and read only during publish.
type Hub struct {
	logger zerolog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub creates a hub. Call Run to start fan-out.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBuffer),
		clients:    make(map[*Client]struct{}),
	}
}

// Run processes registry changes and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().Str("remote", client.remoteAddr()).Int("subscribers", n).Msg("subscriber connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().Str("remote", client.remoteAddr()).Int("subscribers", n).Msg("subscriber disconnected")

		case frame := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// Slow consumer: drop it rather than stall the rest.
					delete(h.clients, client)
					close(client.send)
					h.logger.Warn().Str("remote", client.remoteAddr()).Msg("subscriber send buffer full, dropping")
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishAlert implements Broadcaster.
func (h *Hub) PublishAlert(a models.Alert) {
	h.publish(EventAlert, a)
}

// PublishDeviceStatus implements Broadcaster.
func (h *Hub) PublishDeviceStatus(s models.DeviceStatus) {
	h.publish(EventDeviceStatus, s)
}

// publish marshals a frame and hands it to the fan-out loop without
// blocking; frames are dropped when the loop is saturated.
func (h *Hub) publish(eventType string, payload interface{}) {
	frame, err := json.Marshal(envelope{Type: eventType, Payload: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("event", eventType).Msg("marshal broadcast frame")
		return
	}

	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn().Str("event", eventType).Msg("broadcast queue full, frame dropped")
	}
}

var _ Broadcaster = (*Hub)(nil)
