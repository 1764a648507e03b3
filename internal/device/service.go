package device

import (
	"context"
	"time"

	"github.com/rfsentry/rfsentry/internal/api/models"
)

// Service provides device state reconciliation and read operations.
type Service struct {
	repo Repository
}

// NewService creates a new device service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ApplyDetection applies a detection event to the device record,
// creating it on first contact. Returns the resulting state.
func (s *Service) ApplyDetection(ctx context.Context, deviceID string, ts time.Time) (*Device, error) {
	return s.repo.ApplyDetection(ctx, deviceID, ts)
}

// ApplyHealth applies a heartbeat to the device record, deriving the
// signal-quality category from the LTE RSSI when present. Absent
// fields are preserved from prior state.
func (s *Service) ApplyHealth(ctx context.Context, deviceID string, ts time.Time, battery, lteRssi *int) (*Device, error) {
	return s.repo.ApplyHealth(ctx, deviceID, ts, battery, QualityFromRssi(lteRssi))
}

// List retrieves devices, most recently seen first.
func (s *Service) List(ctx context.Context, limit int) (*models.PagedDevices, error) {
	result, err := s.repo.List(ctx, ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}

	items := make([]models.Device, 0, len(result.Items))
	for _, d := range result.Items {
		items = append(items, toAPIDevice(d))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedDevices{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves a device by its external identifier.
func (s *Service) Get(ctx context.Context, deviceID string) (*models.Device, error) {
	d, err := s.repo.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	result := toAPIDevice(d)
	return &result, nil
}

// Rename updates the display name.
func (s *Service) Rename(ctx context.Context, deviceID, name string) (*models.Device, error) {
	if err := s.repo.Rename(ctx, deviceID, name); err != nil {
		return nil, err
	}
	return s.Get(ctx, deviceID)
}

// Delete removes a device record.
func (s *Service) Delete(ctx context.Context, deviceID string) error {
	return s.repo.Delete(ctx, deviceID)
}

// toAPIDevice converts a domain Device to an API Device.
func toAPIDevice(d *Device) models.Device {
	return models.Device{
		ID:             d.ID,
		Name:           d.Name,
		Online:         d.Online,
		BatteryPercent: d.BatteryPercent,
		SignalQuality:  (*string)(d.SignalQuality),
		DetectionCount: d.DetectionCount,
		LastSeen:       models.Timestamp(d.LastSeen),
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		Firmware:       d.Firmware,
	}
}

// StatusDelta is the compact device-status payload published to
// real-time subscribers after an upsert.
func StatusDelta(d *Device) models.DeviceStatus {
	return models.DeviceStatus{
		DeviceID:       d.ID,
		Online:         d.Online,
		BatteryPercent: d.BatteryPercent,
		SignalQuality:  (*string)(d.SignalQuality),
		LastSeen:       models.Timestamp(d.LastSeen),
	}
}
