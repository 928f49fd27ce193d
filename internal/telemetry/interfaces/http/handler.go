package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"dronelink-cloud/internal/observability/metrics"
	telemetry "dronelink-cloud/internal/telemetry/domain"
)

const historyLimit = 200

// TelemetryHandler serves the REST telemetry boundary:
//
//	POST /api/v1/telemetry
//	GET  /api/v1/telemetry/{droneId}
//	GET  /api/v1/telemetry/{droneId}/export.xlsx
type TelemetryHandler struct {
	recorder telemetry.Recorder
	query    telemetry.HistoryQuery
	logger   *log.Logger
}

// NewTelemetryHandler constructs the handler.
func NewTelemetryHandler(recorder telemetry.Recorder, query telemetry.HistoryQuery, logger *log.Logger) (*TelemetryHandler, error) {
	if recorder == nil {
		return nil, errors.New("telemetry http: nil recorder")
	}
	if query == nil {
		return nil, errors.New("telemetry http: nil query")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TelemetryHandler{recorder: recorder, query: query, logger: logger}, nil
}

type recordPayload struct {
	DroneID   string          `json:"droneId"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	Location  *locationView   `json:"location,omitempty"`
	Battery   *float64        `json:"battery,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

type locationView struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

// ServeHTTP routes telemetry REST requests.
func (h *TelemetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/telemetry")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "" && r.Method == http.MethodPost:
		h.ingest(w, r)
	case path != "" && r.Method == http.MethodGet && strings.HasSuffix(path, "/export.xlsx"):
		h.export(w, r, strings.TrimSuffix(path, "/export.xlsx"))
	case path != "" && r.Method == http.MethodGet && !strings.Contains(path, "/"):
		h.history(w, r, path)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *TelemetryHandler) ingest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.IngestResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		result = metrics.IngestResultError
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload recordPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		result = metrics.IngestResultError
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if payload.DroneID == "" {
		result = metrics.IngestResultError
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	rec := payload.toRecord()
	if err := h.recorder.Append(r.Context(), rec); err != nil {
		h.logger.Printf("telemetry ingest: append error: %v", err)
		result = metrics.IngestResultError
		http.Error(w, "insert error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "id": rec.ID})
}

func (h *TelemetryHandler) history(w http.ResponseWriter, r *http.Request, droneID string) {
	records, err := h.query.RecentByDrone(r.Context(), droneID, historyLimit)
	if err != nil {
		h.logger.Printf("telemetry history: query error: %v", err)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}

	views := make([]recordPayload, 0, len(records))
	for _, rec := range records {
		views = append(views, viewFromRecord(rec))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (h *TelemetryHandler) export(w http.ResponseWriter, r *http.Request, droneID string) {
	records, err := h.query.RecentByDrone(r.Context(), droneID, historyLimit)
	if err != nil {
		h.logger.Printf("telemetry export: query error: %v", err)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}

	data, err := BuildHistoryXLSX(droneID, records)
	if err != nil {
		h.logger.Printf("telemetry export: build error: %v", err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="telemetry-`+droneID+`.xlsx"`)
	_, _ = w.Write(data)
}

func (p recordPayload) toRecord() telemetry.Record {
	rec := telemetry.Record{
		ID:      uuid.NewString(),
		DroneID: p.DroneID,
		TS:      time.Now().UTC(),
		Battery: p.Battery,
		Meta:    p.Meta,
	}
	if p.Timestamp != nil {
		rec.TS = p.Timestamp.UTC()
	}
	if p.Location != nil {
		lat, lon, alt := p.Location.Lat, p.Location.Lon, p.Location.Alt
		rec.Lat, rec.Lon, rec.Alt = &lat, &lon, &alt
	}
	return rec
}

func viewFromRecord(rec telemetry.Record) recordPayload {
	ts := rec.TS
	view := recordPayload{
		DroneID:   rec.DroneID,
		Timestamp: &ts,
		Battery:   rec.Battery,
		Meta:      rec.Meta,
	}
	if rec.Lat != nil && rec.Lon != nil {
		loc := locationView{Lat: *rec.Lat, Lon: *rec.Lon}
		if rec.Alt != nil {
			loc.Alt = *rec.Alt
		}
		view.Location = &loc
	}
	return view
}
