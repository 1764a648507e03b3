// Package ingest implements the detection-event ingestion pipeline:
// envelope normalization, threat scoring, device-state reconciliation,
// alert persistence and real-time fan-out.
package ingest

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/rfsentry/rfsentry/internal/threat"
)

// Normalization errors. Malformed and unroutable payloads fail the
// request; a missing sub-object is acknowledged and dropped (the relay
// retries harmless garbage aggressively, and retry storms are worse
// than a lost malformed event).
var (
	ErrMalformedPayload  = errors.New("envelope has no inner payload object")
	ErrUnroutablePayload = errors.New("cannot determine event route")
	ErrMissingSubobject  = errors.New("routed payload is missing its event block")
	ErrMissingDeviceID   = errors.New("payload has no device identifier")
)

// Route identifies the logical event stream an envelope belongs to.
type Route string

const (
	RouteDetection Route = "detections"
	RouteHeartbeat Route = "heartbeat"
)

// DetectionEvent is the canonical form of a single sighting of a nearby
// wireless emitter.
type DetectionEvent struct {
	DeviceID       string
	EpochSeconds   int64
	Kind           threat.Kind
	SignalStrength int // dBm used for scoring; see SelectSignal
	Zone           int
	DistanceMeters float64
	RawMac         string

	WifiChannel   *int
	BluetoothName *string
	CellularPeak  *int
	CellularAvg   *int
	CellularDelta *int
}

// HealthEvent is the canonical form of a sensor self-report.
type HealthEvent struct {
	DeviceID       string
	EpochSeconds   int64
	BatteryPercent *int
	LTERssi        *int
}

// Event is the tagged result of normalization: exactly one of Detection
// or Health is set, matching Route.
type Event struct {
	Route     Route
	Detection *DetectionEvent
	Health    *HealthEvent
}

// envelope covers every observed relay shape at once. The relay has
// been seen emitting {path, data}, {path, value} and a snake_case
// variant {device_id, timestamp, data} with no path at all.
type envelope struct {
	Path      string          `json:"path"`
	Data      json.RawMessage `json:"data"`
	Value     json.RawMessage `json:"value"`
	DeviceID  string          `json:"device_id"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// inner is the payload object carried under data/value.
type inner struct {
	DeviceID  string          `json:"device_id"`
	Timestamp json.RawMessage `json:"timestamp"`
	Detection *detectionBlock `json:"detection"`
	Health    *healthBlock    `json:"health"`
}

type detectionBlock struct {
	Kind     string   `json:"type"`
	Rssi     *float64 `json:"rssi"`
	Zone     *int     `json:"zone"`
	Distance float64  `json:"distance_m"`
	Mac      string   `json:"mac"`

	Channel *int     `json:"channel"`
	Name    *string  `json:"name"`
	Peak    *float64 `json:"peak"`
	Avg     *float64 `json:"avg"`
	Delta   *float64 `json:"delta"`
}

type healthBlock struct {
	Battery *int     `json:"battery"`
	LTERssi *float64 `json:"lte_rssi"`
}

// protoTimestamp is the {seconds, nanos} form some transformer
// configurations emit instead of a plain epoch number.
type protoTimestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int64 `json:"nanos"`
}

// Normalize converts a raw relay envelope into a canonical Event. It is
// a pure function over the body bytes; all I/O happens downstream.
func Normalize(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, ErrMalformedPayload
	}

	// Inner payload: try data, then value.
	body := env.Data
	if len(body) == 0 || string(body) == "null" {
		body = env.Value
	}
	if len(body) == 0 || string(body) == "null" {
		return Event{}, ErrMalformedPayload
	}

	var in inner
	if err := json.Unmarshal(body, &in); err != nil {
		return Event{}, ErrMalformedPayload
	}

	route, err := resolveRoute(env.Path, in)
	if err != nil {
		return Event{}, err
	}

	deviceID := in.DeviceID
	if deviceID == "" {
		deviceID = env.DeviceID
	}
	if deviceID == "" {
		return Event{}, ErrMissingDeviceID
	}

	ts := parseEpoch(in.Timestamp)
	if ts == 0 {
		ts = parseEpoch(env.Timestamp)
	}

	switch route {
	case RouteDetection:
		if in.Detection == nil {
			return Event{}, ErrMissingSubobject
		}
		return Event{Route: RouteDetection, Detection: canonicalDetection(deviceID, ts, in.Detection)}, nil
	default:
		if in.Health == nil {
			return Event{}, ErrMissingSubobject
		}
		return Event{Route: RouteHeartbeat, Health: canonicalHealth(deviceID, ts, in.Health)}, nil
	}
}

// resolveRoute reads an explicit path when present, otherwise infers
// the route from the shape of the inner payload.
func resolveRoute(path string, in inner) (Route, error) {
	if path != "" {
		switch Route(lastSegment(path)) {
		case RouteDetection:
			return RouteDetection, nil
		case RouteHeartbeat:
			return RouteHeartbeat, nil
		default:
			return "", ErrUnroutablePayload
		}
	}

	// Shape inference: exactly one event block must be present.
	switch {
	case in.Detection != nil && in.Health == nil:
		return RouteDetection, nil
	case in.Health != nil && in.Detection == nil:
		return RouteHeartbeat, nil
	default:
		return "", ErrUnroutablePayload
	}
}

// lastSegment normalizes path variants like "/detections", "detections"
// and "/.s/detections" to their final segment.
func lastSegment(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return path
}

func canonicalDetection(deviceID string, ts int64, d *detectionBlock) *DetectionEvent {
	kind := threat.Kind(d.Kind)

	ev := &DetectionEvent{
		DeviceID:       deviceID,
		EpochSeconds:   ts,
		Kind:           kind,
		SignalStrength: SelectSignal(kind, d.Rssi, d.Peak, d.Avg),
		Zone:           3,
		DistanceMeters: d.Distance,
		RawMac:         d.Mac,
	}
	if d.Zone != nil {
		ev.Zone = *d.Zone
	}

	switch kind {
	case threat.KindWifi:
		ev.WifiChannel = d.Channel
	case threat.KindBluetooth:
		ev.BluetoothName = d.Name
	case threat.KindCellular:
		ev.CellularPeak = intPtr(d.Peak)
		ev.CellularAvg = intPtr(d.Avg)
		ev.CellularDelta = intPtr(d.Delta)
	}

	return ev
}

func canonicalHealth(deviceID string, ts int64, h *healthBlock) *HealthEvent {
	return &HealthEvent{
		DeviceID:       deviceID,
		EpochSeconds:   ts,
		BatteryPercent: h.Battery,
		LTERssi:        intPtr(h.LTERssi),
	}
}

// SelectSignal picks the signal-strength value used for scoring.
// Cellular sensing reports burst statistics rather than an
// instantaneous reading, so cellular events use the burst peak, falling
// back to the average; everything else uses the direct reading. Absent
// values fall to the -100 floor.
func SelectSignal(kind threat.Kind, rssi, peak, avg *float64) int {
	if kind == threat.KindCellular {
		if peak != nil {
			return int(*peak)
		}
		if avg != nil {
			return int(*avg)
		}
		return threat.SignalFloor
	}
	if rssi != nil {
		return int(*rssi)
	}
	return threat.SignalFloor
}

// parseEpoch accepts either a plain epoch-seconds number or the
// {seconds, nanos} object form. Returns 0 when absent or unreadable.
func parseEpoch(raw json.RawMessage) int64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int64(n)
	}

	var pt protoTimestamp
	if err := json.Unmarshal(raw, &pt); err == nil {
		return pt.Seconds
	}

	return 0
}

func intPtr(f *float64) *int {
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}
