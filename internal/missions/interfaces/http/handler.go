package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	missions "dronelink-cloud/internal/missions/domain"
)

const listLimit = 100

// MissionHandler serves the mission store boundary:
//
//	POST /api/v1/missions
//	GET  /api/v1/missions
//	GET  /api/v1/missions/{id}/report.pdf
type MissionHandler struct {
	repo   missions.Repository
	logger *log.Logger
}

// NewMissionHandler constructs the handler.
func NewMissionHandler(repo missions.Repository, logger *log.Logger) (*MissionHandler, error) {
	if repo == nil {
		return nil, errors.New("missions http: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &MissionHandler{repo: repo, logger: logger}, nil
}

type missionRequest struct {
	Name      string          `json:"name"`
	DroneID   string          `json:"droneId"`
	Waypoints json.RawMessage `json:"waypoints,omitempty"`
	Status    string          `json:"status"`
}

// ServeHTTP routes mission requests.
func (h *MissionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/missions")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "" && r.Method == http.MethodPost:
		h.create(w, r)
	case path == "" && r.Method == http.MethodGet:
		h.list(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/report.pdf"):
		h.report(w, r, strings.TrimSuffix(path, "/report.pdf"))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *MissionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req missionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	status := req.Status
	if status == "" {
		status = "planned"
	}

	mission := missions.Mission{
		ID:        uuid.NewString(),
		Name:      req.Name,
		DroneID:   req.DroneID,
		Waypoints: req.Waypoints,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.repo.Create(r.Context(), mission); err != nil {
		h.logger.Printf("missions: create error: %v", err)
		http.Error(w, "insert error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(mission)
}

func (h *MissionHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context(), listLimit)
	if err != nil {
		h.logger.Printf("missions: list error: %v", err)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []missions.Mission{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

func (h *MissionHandler) report(w http.ResponseWriter, r *http.Request, id string) {
	mission, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, missions.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Printf("missions: get error: %v", err)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}

	data, err := BuildMissionPDF(mission)
	if err != nil {
		h.logger.Printf("missions: report error: %v", err)
		http.Error(w, "report error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="mission-`+mission.ID+`.pdf"`)
	_, _ = w.Write(data)
}
