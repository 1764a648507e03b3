package alert

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const alertColumns = `id, device_id, event_time, threat_level, detection_kind, rssi, mac, cellular_peak, metadata, reviewed, false_positive`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL alert repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert appends a new alert row. The device_id foreign key relies on
// the pipeline having upserted the device first.
func (r *PostgresRepository) Insert(ctx context.Context, a *Alert) error {
	query := `
		INSERT INTO alerts (id, device_id, event_time, threat_level, detection_kind, rssi, mac, cellular_peak, metadata, reviewed, false_positive)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.DeviceID,
		a.Timestamp,
		a.ThreatLevel,
		a.DetectionKind,
		a.Rssi,
		a.Mac,
		a.CellularPeak,
		a.Metadata,
		a.Reviewed,
		a.FalsePositive,
	)
	return err
}

// Get retrieves an alert by id.
func (r *PostgresRepository) Get(ctx context.Context, alertID string) (*Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, alertID)
	return scanAlert(row)
}

// List retrieves alerts, newest first, with optional filters.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	fetchLimit := limit + 1

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE ($1 = '' OR device_id = $1)
		  AND ($2 = '' OR threat_level = $2)
		ORDER BY event_time DESC, id DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, opts.DeviceID, string(opts.Level), fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Items: alerts}
	if len(alerts) > limit {
		result.Items = alerts[:limit]
		result.NextCursor = alerts[limit-1].ID
	}

	return result, nil
}

// Review updates the reviewed/falsePositive flags.
func (r *PostgresRepository) Review(ctx context.Context, alertID string, update ReviewUpdate) (*Alert, error) {
	query := `
		UPDATE alerts SET
			reviewed = COALESCE($2, reviewed),
			false_positive = COALESCE($3, false_positive)
		WHERE id = $1
		RETURNING ` + alertColumns + `
	`

	row := r.pool.QueryRow(ctx, query, alertID, update.Reviewed, update.FalsePositive)
	return scanAlert(row)
}

// Delete removes an alert row.
func (r *PostgresRepository) Delete(ctx context.Context, alertID string) error {
	query := `DELETE FROM alerts WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, alertID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(
		&a.ID,
		&a.DeviceID,
		&a.Timestamp,
		&a.ThreatLevel,
		&a.DetectionKind,
		&a.Rssi,
		&a.Mac,
		&a.CellularPeak,
		&a.Metadata,
		&a.Reviewed,
		&a.FalsePositive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
