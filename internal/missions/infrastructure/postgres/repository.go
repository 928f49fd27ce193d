package postgres

import (
	"context"
	"database/sql"
	"errors"

	missions "dronelink-cloud/internal/missions/domain"
)

// MissionRepository is a Postgres implementation for missions.
type MissionRepository struct {
	db *sql.DB
}

// NewMissionRepository constructs a repository.
func NewMissionRepository(db *sql.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

// Create inserts a mission.
func (r *MissionRepository) Create(ctx context.Context, mission missions.Mission) error {
	if r == nil || r.db == nil {
		return errors.New("mission repo: nil db")
	}
	if mission.ID == "" || mission.Name == "" {
		return errors.New("mission repo: invalid mission")
	}

	waypoints := []byte(mission.Waypoints)
	var waypointsValue any
	if len(waypoints) > 0 {
		waypointsValue = waypoints
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO missions (id, name, drone_id, waypoints, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		mission.ID,
		mission.Name,
		mission.DroneID,
		waypointsValue,
		mission.Status,
		mission.CreatedAt,
	)
	return err
}

// List returns the most recent missions, newest first.
func (r *MissionRepository) List(ctx context.Context, limit int) ([]missions.Mission, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("mission repo: nil db")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, drone_id, waypoints, status, created_at
FROM missions
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []missions.Mission
	for rows.Next() {
		mission, err := scanMission(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, mission)
	}
	return out, rows.Err()
}

// Get loads one mission by id.
func (r *MissionRepository) Get(ctx context.Context, id string) (*missions.Mission, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("mission repo: nil db")
	}

	row := r.db.QueryRowContext(ctx, `
SELECT id, name, drone_id, waypoints, status, created_at
FROM missions
WHERE id = $1`, id)

	mission, err := scanMission(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, missions.ErrNotFound
		}
		return nil, err
	}
	return &mission, nil
}

func scanMission(scan func(...any) error) (missions.Mission, error) {
	var (
		mission   missions.Mission
		waypoints []byte
	)
	if err := scan(&mission.ID, &mission.Name, &mission.DroneID, &waypoints, &mission.Status, &mission.CreatedAt); err != nil {
		return missions.Mission{}, err
	}
	if len(waypoints) > 0 {
		mission.Waypoints = append(mission.Waypoints, waypoints...)
	}
	return mission, nil
}
