// Package realtime pushes newly created alerts and device-status
// deltas to connected WebSocket subscribers.
package realtime

import "github.com/rfsentry/rfsentry/internal/api/models"

// Event type identifiers on the wire.
const (
	EventAlert        = "alert"
	EventDeviceStatus = "deviceStatus"
)

// envelope is the wire frame pushed to subscribers.
type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Broadcaster publishes pipeline events to whoever is listening.
// Delivery is best-effort: no retry, no queuing for disconnected
// subscribers, no acknowledgment. Implementations must never block the
// caller and never return an error to it.
type Broadcaster interface {
	PublishAlert(a models.Alert)
	PublishDeviceStatus(s models.DeviceStatus)
}

// NopBroadcaster discards everything. Used in tests and as the safe
// default when no fan-out layer is wired.
type NopBroadcaster struct{}

// PublishAlert implements Broadcaster.
func (NopBroadcaster) PublishAlert(models.Alert) {}

// PublishDeviceStatus implements Broadcaster.
func (NopBroadcaster) PublishDeviceStatus(models.DeviceStatus) {}

var _ Broadcaster = NopBroadcaster{}
