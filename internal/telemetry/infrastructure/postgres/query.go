package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	telemetry "dronelink-cloud/internal/telemetry/domain"
)

// TelemetryQuery loads stored telemetry records from Postgres.
type TelemetryQuery struct {
	db    *sql.DB
	table string
}

// NewTelemetryQuery constructs a query with default table name.
func NewTelemetryQuery(db *sql.DB) *TelemetryQuery {
	return &TelemetryQuery{db: db, table: defaultTelemetryTable}
}

// RecentByDrone returns the most recent records for a drone, newest first.
func (q *TelemetryQuery) RecentByDrone(ctx context.Context, droneID string, limit int) ([]telemetry.Record, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("telemetry query: nil db")
	}
	if droneID == "" {
		return nil, errors.New("telemetry query: empty drone id")
	}
	if limit <= 0 {
		limit = 200
	}

	query := fmt.Sprintf(`
SELECT id, drone_id, ts, lat, lon, alt, battery, meta
FROM %s
WHERE drone_id = $1
ORDER BY ts DESC
LIMIT $2`, q.table)

	rows, err := q.db.QueryContext(ctx, query, droneID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []telemetry.Record
	for rows.Next() {
		var (
			rec  telemetry.Record
			lat  sql.NullFloat64
			lon  sql.NullFloat64
			alt  sql.NullFloat64
			bat  sql.NullFloat64
			meta []byte
		)
		if err := rows.Scan(&rec.ID, &rec.DroneID, &rec.TS, &lat, &lon, &alt, &bat, &meta); err != nil {
			return nil, err
		}
		rec.Lat = floatPtr(lat)
		rec.Lon = floatPtr(lon)
		rec.Alt = floatPtr(alt)
		rec.Battery = floatPtr(bat)
		if len(meta) > 0 {
			rec.Meta = append(rec.Meta, meta...)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}
