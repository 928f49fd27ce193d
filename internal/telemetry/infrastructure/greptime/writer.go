package greptime

import (
	"context"
	"errors"
	"net"
	"strconv"

	telemetry "dronelink-cloud/internal/telemetry/domain"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

const telemetryTable = "drone_telemetry"

// Writer appends telemetry records to GreptimeDB via the ingester client.
type Writer struct {
	client *greptime.Client
	db     string
	table  string
}

// NewWriter creates a GreptimeDB writer. The table is auto-created on first
// write with a 30-day TTL.
func NewWriter(endpoint, database string) (*Writer, error) {
	if endpoint == "" {
		return nil, errors.New("greptime writer: empty endpoint")
	}

	cfg := greptime.NewConfig(endpoint).WithDatabase(database)
	if host, portStr, err := net.SplitHostPort(endpoint); err == nil {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg = greptime.NewConfig(host).WithPort(port).WithDatabase(database)
		}
	}

	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &Writer{client: client, db: database, table: telemetryTable}, nil
}

// Append inserts one telemetry record.
func (w *Writer) Append(ctx context.Context, rec telemetry.Record) error {
	if w == nil || w.client == nil {
		return errors.New("greptime writer: nil client")
	}

	ingestCtx := ingesterContext.New(ctx, ingesterContext.WithHints("ttl=30d"))

	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("drone_id", types.STRING)
	tbl.AddFieldColumn("record_id", types.STRING)
	tbl.AddFieldColumn("lat", types.FLOAT64)
	tbl.AddFieldColumn("lon", types.FLOAT64)
	tbl.AddFieldColumn("alt", types.FLOAT64)
	tbl.AddFieldColumn("battery", types.FLOAT64)
	tbl.AddFieldColumn("meta", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	if err := tbl.AddRow(
		rec.DroneID,
		rec.ID,
		floatOrZero(rec.Lat),
		floatOrZero(rec.Lon),
		floatOrZero(rec.Alt),
		floatOrZero(rec.Battery),
		string(rec.Meta),
		rec.TS,
	); err != nil {
		return err
	}

	_, err = w.client.Write(ingestCtx, tbl)
	return err
}

func floatOrZero(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}
