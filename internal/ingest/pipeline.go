package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/rfsentry/rfsentry/internal/alert"
	"github.com/rfsentry/rfsentry/internal/api/models"
	"github.com/rfsentry/rfsentry/internal/device"
	"github.com/rfsentry/rfsentry/internal/realtime"
	"github.com/rfsentry/rfsentry/internal/threat"
)

// AlertNotifier forwards selected alerts to an external receiver.
// Implementations must tolerate being called concurrently.
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, a models.Alert)
}

// PipelineConfig holds the collaborators of the ingestion pipeline.
// Broadcaster and Notifier are optional; a missing fan-out layer never
// fails ingestion.
type PipelineConfig struct {
	Devices     *device.Service
	Alerts      *alert.Service
	Broadcaster realtime.Broadcaster
	Notifier    AlertNotifier
	Logger      zerolog.Logger
}

// Pipeline runs one inbound relay payload through normalization,
// scoring, device reconciliation, alert persistence and fan-out.
type Pipeline struct {
	devices     *device.Service
	alerts      *alert.Service
	broadcaster realtime.Broadcaster
	notifier    AlertNotifier
	logger      zerolog.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	broadcaster := cfg.Broadcaster
	if broadcaster == nil {
		broadcaster = realtime.NopBroadcaster{}
	}
	return &Pipeline{
		devices:     cfg.Devices,
		alerts:      cfg.Alerts,
		broadcaster: broadcaster,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
	}
}

// Result is the outcome of processing one payload.
type Result struct {
	Route   Route
	Dropped bool // routed but missing its event block; acknowledged and skipped
	Alert   *models.Alert
}

// Process normalizes and applies one raw relay payload.
//
// Normalization errors (ErrMalformedPayload, ErrUnroutablePayload,
// ErrMissingDeviceID) are returned to the caller. ErrMissingSubobject
// is swallowed: the event is logged and dropped with a success result,
// since failing it would only provoke relay retry storms. Any other
// error is a store failure and must surface so the relay retries the
// whole delivery.
func (p *Pipeline) Process(ctx context.Context, raw []byte) (*Result, error) {
	ev, err := Normalize(raw)
	if err != nil {
		if errors.Is(err, ErrMissingSubobject) {
			p.logger.Warn().Msg("routed payload missing event block, dropped")
			return &Result{Dropped: true}, nil
		}
		return nil, err
	}

	if ev.Route == RouteHeartbeat {
		return p.processHealth(ctx, ev.Health)
	}
	return p.processDetection(ctx, ev.Detection)
}

func (p *Pipeline) processHealth(ctx context.Context, h *HealthEvent) (*Result, error) {
	d, err := p.devices.ApplyHealth(ctx, h.DeviceID, eventTime(h.EpochSeconds), h.BatteryPercent, h.LTERssi)
	if err != nil {
		return nil, err
	}

	p.broadcaster.PublishDeviceStatus(device.StatusDelta(d))

	p.logger.Debug().
		Str("device_id", h.DeviceID).
		Msg("heartbeat applied")

	return &Result{Route: RouteHeartbeat}, nil
}

func (p *Pipeline) processDetection(ctx context.Context, det *DetectionEvent) (*Result, error) {
	level := threat.Classify(float64(det.SignalStrength), det.Zone, det.Kind)

	// Device upsert runs first so the alert insert never references a
	// device that does not exist yet. The two steps are deliberately
	// not wrapped in a transaction: a crash in between leaves the
	// device updated and the alert unrecorded, which the relay's retry
	// repairs at the cost of a possible duplicate alert.
	d, err := p.devices.ApplyDetection(ctx, det.DeviceID, eventTime(det.EpochSeconds))
	if err != nil {
		return nil, err
	}

	created, err := p.alerts.Create(ctx, &alert.Alert{
		DeviceID:      det.DeviceID,
		Timestamp:     eventTime(det.EpochSeconds),
		ThreatLevel:   level,
		DetectionKind: det.Kind,
		Rssi:          det.SignalStrength,
		Mac:           det.RawMac,
		CellularPeak:  det.CellularPeak,
		Metadata:      detectionMetadata(det),
	})
	if err != nil {
		return nil, err
	}

	apiAlert := alert.ToAPIAlert(created)
	p.broadcaster.PublishAlert(apiAlert)
	p.broadcaster.PublishDeviceStatus(device.StatusDelta(d))

	if p.notifier != nil && (level == threat.LevelHigh || level == threat.LevelCritical) {
		// Detached from the request: the relay's retry window must not
		// wait on a downstream webhook.
		go p.notifier.NotifyAlert(context.WithoutCancel(ctx), apiAlert)
	}

	p.logger.Info().
		Str("device_id", det.DeviceID).
		Str("alert_id", created.ID).
		Str("threat_level", string(level)).
		Str("kind", string(det.Kind)).
		Int("rssi", det.SignalStrength).
		Msg("detection ingested")

	return &Result{Route: RouteDetection, Alert: &apiAlert}, nil
}

// detectionMetadata builds the free-form metadata bag stored on the
// alert: zone, distance and whatever kind-specific fields were present.
func detectionMetadata(det *DetectionEvent) map[string]interface{} {
	md := map[string]interface{}{
		"zone":       det.Zone,
		"distance_m": det.DistanceMeters,
	}
	if det.WifiChannel != nil {
		md["channel"] = *det.WifiChannel
	}
	if det.BluetoothName != nil {
		md["name"] = *det.BluetoothName
	}
	if det.CellularPeak != nil {
		md["peak"] = *det.CellularPeak
	}
	if det.CellularAvg != nil {
		md["avg"] = *det.CellularAvg
	}
	if det.CellularDelta != nil {
		md["delta"] = *det.CellularDelta
	}
	return md
}

// eventTime converts the device-reported epoch to a timestamp, falling
// back to receipt time when the device clock was absent.
func eventTime(epochSeconds int64) time.Time {
	if epochSeconds <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(epochSeconds, 0).UTC()
}
