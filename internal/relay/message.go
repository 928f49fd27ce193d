package relay

import (
	"encoding/json"
	"time"
)

// Inbound and outbound event names on the relay wire.
const (
	EventJoin      = "join"
	EventLeave     = "leave"
	EventTelemetry = "telemetry"
	EventControl   = "control"

	EventTelemetryUpdate = "telemetry:update"
	EventControlCmd      = "control:cmd"
)

// Envelope is one JSON frame on the relay wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinRequest subscribes the sender to a drone's topic.
type JoinRequest struct {
	DroneID string `json:"droneId"`
}

// Location is a geographic position.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

// TelemetryMessage is a telemetry frame pushed by a drone.
type TelemetryMessage struct {
	DroneID   string          `json:"droneId"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	Location  *Location       `json:"location,omitempty"`
	Battery   *float64        `json:"battery,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

// ControlMessage is a command frame addressed to a drone's topic.
type ControlMessage struct {
	DroneID string          `json:"droneId"`
	Action  string          `json:"action"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// TopicForDrone derives the routing key for a drone identifier.
func TopicForDrone(droneID string) string {
	return "drone:" + droneID
}
