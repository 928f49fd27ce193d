package telemetry

import (
	"context"
	"encoding/json"
	"time"
)

// Record is one telemetry sample written to durable storage.
type Record struct {
	ID      string
	DroneID string
	TS      time.Time

	Lat     *float64
	Lon     *float64
	Alt     *float64
	Battery *float64

	Meta json.RawMessage
}

// Recorder appends telemetry records to a durable store.
type Recorder interface {
	Append(ctx context.Context, rec Record) error
}

// HistoryQuery loads stored telemetry for a drone, most recent first.
type HistoryQuery interface {
	RecentByDrone(ctx context.Context, droneID string, limit int) ([]Record, error)
}
