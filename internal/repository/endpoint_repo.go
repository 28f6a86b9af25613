package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"heatzy_bridge/internal/models"
)

type EndpointSQLite struct {
	db *sql.DB
}

func NewEndpointSQLite(db *sql.DB) *EndpointSQLite {
	return &EndpointSQLite{db: db}
}

var _ EndpointRepo = (*EndpointSQLite)(nil)

const (
	upsertEndpointSQL = `
		INSERT INTO endpoints (id, device_id, device_name, mode, display_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			device_name=excluded.device_name,
			display_name=excluded.display_name
	`

	selectEndpointsSQL = `
		SELECT id, device_id, device_name, mode, display_name, created_at
		FROM endpoints ORDER BY device_id, mode
	`

	deleteEndpointSQL = `DELETE FROM endpoints WHERE id = ?`
)

// Save inserts the record or refreshes the names of an existing one.
// created_at is kept from the first insert.
func (r *EndpointSQLite) Save(ctx context.Context, rec models.EndpointRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx, upsertEndpointSQL,
		rec.ID,
		rec.DeviceID,
		rec.DeviceName,
		string(rec.Mode),
		rec.DisplayName,
		formatTime(created),
	)
	if err != nil {
		return fmt.Errorf("save endpoint %q: %w", rec.DisplayName, err)
	}
	return nil
}

// List returns every stored endpoint ordered by device and mode.
func (r *EndpointSQLite) List(ctx context.Context) ([]models.EndpointRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectEndpointsSQL)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	defer rows.Close()

	var out []models.EndpointRecord
	for rows.Next() {
		var (
			rec  models.EndpointRecord
			mode string
		)
		if err := rows.Scan(&rec.ID, &rec.DeviceID, &rec.DeviceName, &mode, &rec.DisplayName, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		rec.Mode = models.Mode(mode)
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endpoints: %w", err)
	}
	return out, nil
}

// Delete removes the endpoint with the given id. Deleting an absent id is
// not an error.
func (r *EndpointSQLite) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, deleteEndpointSQL, id); err != nil {
		return fmt.Errorf("delete endpoint %q: %w", id, err)
	}
	return nil
}
