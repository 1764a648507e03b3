package alert

import "context"

// Repository defines storage operations for alerts. Insert is the only
// operation the ingestion pipeline uses; the rest serve the review API.
// The referenced device must already exist when Insert runs — detection
// processing upserts the device first, so a device whose very first
// contact is a detection never produces an orphaned alert.
type Repository interface {
	// Insert appends a new alert row.
	Insert(ctx context.Context, a *Alert) error

	// Get retrieves an alert by id.
	Get(ctx context.Context, alertID string) (*Alert, error)

	// List retrieves alerts, newest first, with optional filters.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// Review updates the reviewed/falsePositive flags.
	Review(ctx context.Context, alertID string, update ReviewUpdate) (*Alert, error)

	// Delete removes an alert row.
	Delete(ctx context.Context, alertID string) error
}
