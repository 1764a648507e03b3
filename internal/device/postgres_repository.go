package device

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const deviceColumns = `id, name, online, battery_percent, signal_quality, detection_count, last_seen, latitude, longitude, firmware`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL device repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a device by its external identifier.
func (r *PostgresRepository) Get(ctx context.Context, deviceID string) (*Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, deviceID)
	return scanDevice(row)
}

// List retrieves devices ordered by most recently seen.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	fetchLimit := limit + 1

	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		ORDER BY last_seen DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Items: devices}
	if len(devices) > limit {
		result.Items = devices[:limit]
		result.NextCursor = devices[limit-1].ID
	}

	return result, nil
}

// ApplyDetection creates the device on first contact or increments its
// detection counter. The single upsert statement is the atomicity
// boundary; there is no surrounding transaction.
func (r *PostgresRepository) ApplyDetection(ctx context.Context, deviceID string, seen time.Time) (*Device, error) {
	query := `
		INSERT INTO devices (id, name, online, detection_count, last_seen)
		VALUES ($1, $1, TRUE, 1, $2)
		ON CONFLICT (id) DO UPDATE SET
			online = TRUE,
			detection_count = devices.detection_count + 1,
			last_seen = EXCLUDED.last_seen
		RETURNING ` + deviceColumns + `
	`

	row := r.pool.QueryRow(ctx, query, deviceID, seen)
	return scanDevice(row)
}

// ApplyHealth creates or updates the device with health fields. Absent
// fields keep their prior value via COALESCE.
func (r *PostgresRepository) ApplyHealth(ctx context.Context, deviceID string, seen time.Time, battery *int, quality *Quality) (*Device, error) {
	query := `
		INSERT INTO devices (id, name, online, detection_count, last_seen, battery_percent, signal_quality)
		VALUES ($1, $1, TRUE, 0, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			online = TRUE,
			last_seen = EXCLUDED.last_seen,
			battery_percent = COALESCE(EXCLUDED.battery_percent, devices.battery_percent),
			signal_quality = COALESCE(EXCLUDED.signal_quality, devices.signal_quality)
		RETURNING ` + deviceColumns + `
	`

	row := r.pool.QueryRow(ctx, query, deviceID, seen, battery, quality)
	return scanDevice(row)
}

// Rename updates the display name.
func (r *PostgresRepository) Rename(ctx context.Context, deviceID, name string) error {
	query := `UPDATE devices SET name = $2 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, deviceID, name)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Delete removes a device record.
func (r *PostgresRepository) Delete(ctx context.Context, deviceID string) error {
	query := `DELETE FROM devices WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, deviceID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

func scanDevice(row pgx.Row) (*Device, error) {
	var d Device
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Online,
		&d.BatteryPercent,
		&d.SignalQuality,
		&d.DetectionCount,
		&d.LastSeen,
		&d.Latitude,
		&d.Longitude,
		&d.Firmware,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
