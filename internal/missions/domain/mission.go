package missions

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Mission is a named flight plan for a drone.
type Mission struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	DroneID   string          `json:"droneId"`
	Waypoints json.RawMessage `json:"waypoints,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

var ErrNotFound = errors.New("missions: not found")

// Repository persists mission definitions.
type Repository interface {
	Create(ctx context.Context, mission Mission) error
	List(ctx context.Context, limit int) ([]Mission, error)
	Get(ctx context.Context, id string) (*Mission, error)
}
