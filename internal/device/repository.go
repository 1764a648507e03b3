package device

import (
	"context"
	"time"
)

// Repository defines storage operations for devices. ApplyDetection and
// ApplyHealth are the upsert entry points used by the ingestion
// pipeline; both must be atomic per row. There is no cross-request
// ordering guarantee for one device: whichever upsert completes last
// wins.
type Repository interface {
	// Get retrieves a device by its external identifier.
	Get(ctx context.Context, deviceID string) (*Device, error)

	// List retrieves devices ordered by most recently seen.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// ApplyDetection creates the device on first contact (count=1,
	// name=deviceID) or increments its detection counter, refreshing
	// lastSeen and online. Returns the resulting state.
	ApplyDetection(ctx context.Context, deviceID string, seen time.Time) (*Device, error)

	// ApplyHealth creates or updates the device with the supplied
	// health fields, refreshing lastSeen and online. Nil fields are
	// preserved from prior state, never reset. Returns the resulting
	// state.
	ApplyHealth(ctx context.Context, deviceID string, seen time.Time, battery *int, quality *Quality) (*Device, error)

	// Rename updates the display name.
	Rename(ctx context.Context, deviceID, name string) error

	// Delete removes a device record.
	Delete(ctx context.Context, deviceID string) error
}
