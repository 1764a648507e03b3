package device

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL
// implementation.
type InMemoryRepository struct {
	mu      sync.RWMutex
	devices map[string]*Device
}

// NewInMemoryRepository creates a new in-memory device repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		devices: make(map[string]*Device),
	}
}

// Get retrieves a device by its external identifier.
func (r *InMemoryRepository) Get(_ context.Context, deviceID string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[deviceID]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return copyDevice(d), nil
}

// List retrieves devices ordered by most recently seen.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		items = append(items, copyDevice(d))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].LastSeen.After(items[j].LastSeen)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(items) > limit {
		items = items[:limit]
	}

	return &ListResult{Items: items}, nil
}

// ApplyDetection creates or increments the device record.
func (r *InMemoryRepository) ApplyDetection(_ context.Context, deviceID string, seen time.Time) (*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[deviceID]
	if !ok {
		d = &Device{ID: deviceID, Name: deviceID}
		r.devices[deviceID] = d
	}
	d.DetectionCount++
	d.Online = true
	d.LastSeen = seen

	return copyDevice(d), nil
}

// ApplyHealth creates or updates the device with health fields,
// preserving absent fields.
func (r *InMemoryRepository) ApplyHealth(_ context.Context, deviceID string, seen time.Time, battery *int, quality *Quality) (*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[deviceID]
	if !ok {
		d = &Device{ID: deviceID, Name: deviceID}
		r.devices[deviceID] = d
	}
	d.Online = true
	d.LastSeen = seen
	if battery != nil {
		b := *battery
		d.BatteryPercent = &b
	}
	if quality != nil {
		q := *quality
		d.SignalQuality = &q
	}

	return copyDevice(d), nil
}

// Rename updates the display name.
func (r *InMemoryRepository) Rename(_ context.Context, deviceID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[deviceID]
	if !ok {
		return ErrDeviceNotFound
	}
	d.Name = name
	return nil
}

// Delete removes a device record.
func (r *InMemoryRepository) Delete(_ context.Context, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[deviceID]; !ok {
		return ErrDeviceNotFound
	}
	delete(r.devices, deviceID)
	return nil
}

// copyDevice returns a deep copy so callers cannot mutate stored state.
func copyDevice(d *Device) *Device {
	c := *d
	if d.BatteryPercent != nil {
		b := *d.BatteryPercent
		c.BatteryPercent = &b
	}
	if d.SignalQuality != nil {
		q := *d.SignalQuality
		c.SignalQuality = &q
	}
	if d.Latitude != nil {
		v := *d.Latitude
		c.Latitude = &v
	}
	if d.Longitude != nil {
		v := *d.Longitude
		c.Longitude = &v
	}
	if d.Firmware != nil {
		v := *d.Firmware
		c.Firmware = &v
	}
	return &c
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
