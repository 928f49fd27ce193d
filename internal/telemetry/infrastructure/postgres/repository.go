package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	telemetry "dronelink-cloud/internal/telemetry/domain"
)

const defaultTelemetryTable = "drone_telemetry"

// TelemetryRepository is a Postgres implementation for telemetry records.
type TelemetryRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*TelemetryRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *TelemetryRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewTelemetryRepository constructs a repository with default table name.
func NewTelemetryRepository(db *sql.DB, opts ...RepositoryOption) *TelemetryRepository {
	repo := &TelemetryRepository{db: db, table: defaultTelemetryTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Append inserts one telemetry record.
func (r *TelemetryRepository) Append(ctx context.Context, rec telemetry.Record) error {
	if r == nil || r.db == nil {
		return errors.New("telemetry repo: nil db")
	}
	if rec.DroneID == "" || rec.TS.IsZero() {
		return errors.New("telemetry repo: invalid record")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	drone_id,
	ts,
	lat,
	lon,
	alt,
	battery,
	meta
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8
)`, r.table)

	meta := []byte(rec.Meta)
	var metaValue any
	if len(meta) > 0 {
		metaValue = meta
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.DroneID,
		rec.TS,
		nullFloat(rec.Lat),
		nullFloat(rec.Lon),
		nullFloat(rec.Alt),
		nullFloat(rec.Battery),
		metaValue,
	)
	return err
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}
