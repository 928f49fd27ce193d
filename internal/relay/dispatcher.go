package relay

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"dronelink-cloud/internal/observability/metrics"
	telemetry "dronelink-cloud/internal/telemetry/domain"
)

// Sink receives telemetry records for write-behind storage. Submit must not
// block; failures stay inside the sink.
type Sink interface {
	Submit(rec telemetry.Record)
}

// Dispatcher classifies inbound frames, fans them out within their topic,
// and offloads telemetry persistence to the sink.
type Dispatcher struct {
	registry *Registry
	sink     Sink
	logger   *log.Logger
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(registry *Registry, sink Sink, logger *log.Logger) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("relay: nil registry")
	}
	if sink == nil {
		return nil, errors.New("relay: nil sink")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{registry: registry, sink: sink, logger: logger}, nil
}

// HandleFrame processes one inbound frame from a client. Malformed frames
// and unknown events are dropped; routine filtering, not an error.
func (d *Dispatcher) HandleFrame(client *Client, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		metrics.IncDropped(metrics.DropReasonMalformed)
		return
	}
	metrics.IncMessage(env.Event)

	switch env.Event {
	case EventJoin:
		d.handleJoin(client, env.Data)
	case EventLeave:
		d.handleLeave(client, env.Data)
	case EventTelemetry:
		d.handleTelemetry(client, env.Data)
	case EventControl:
		d.handleControl(client, env.Data)
	default:
		metrics.IncDropped(metrics.DropReasonUnknownEvent)
	}
}

// Disconnect tears down all membership for a closed connection.
func (d *Dispatcher) Disconnect(client *Client) {
	if d == nil || client == nil {
		return
	}
	d.registry.LeaveAll(client)
	metrics.DecConnections()
	d.logger.Printf("relay: disconnected %s user=%s", client.ID(), client.Identity().DisplayName)
}

func (d *Dispatcher) handleJoin(client *Client, data json.RawMessage) {
	var req JoinRequest
	if err := json.Unmarshal(data, &req); err != nil || req.DroneID == "" {
		metrics.IncDropped(metrics.DropReasonMissingDrone)
		return
	}
	topic := TopicForDrone(req.DroneID)
	d.registry.Join(client, topic)
	d.logger.Printf("relay: %s joined %s", client.ID(), topic)
}

func (d *Dispatcher) handleLeave(client *Client, data json.RawMessage) {
	var req JoinRequest
	if err := json.Unmarshal(data, &req); err != nil || req.DroneID == "" {
		metrics.IncDropped(metrics.DropReasonMissingDrone)
		return
	}
	d.registry.Leave(client, TopicForDrone(req.DroneID))
}

func (d *Dispatcher) handleTelemetry(client *Client, data json.RawMessage) {
	var msg TelemetryMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.DroneID == "" {
		metrics.IncDropped(metrics.DropReasonMissingDrone)
		return
	}

	d.broadcast(TopicForDrone(msg.DroneID), EventTelemetryUpdate, data)
	d.sink.Submit(recordFromMessage(msg))
}

func (d *Dispatcher) handleControl(client *Client, data json.RawMessage) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.DroneID == "" {
		metrics.IncDropped(metrics.DropReasonMissingDrone)
		return
	}

	// Any authenticated member may issue a control command; there is no
	// role check here. See DESIGN.md.
	d.broadcast(TopicForDrone(msg.DroneID), EventControlCmd, data)
}

// broadcast delivers the payload unchanged to every current member of the
// topic, including the sender. A slow member is skipped, never awaited.
func (d *Dispatcher) broadcast(topic, event string, payload json.RawMessage) {
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return
	}

	delivered := 0
	for _, member := range d.registry.MembersOf(topic) {
		if member.Enqueue(frame) {
			delivered++
		}
	}
	metrics.AddDeliveries(delivered)
}

func recordFromMessage(msg TelemetryMessage) telemetry.Record {
	rec := telemetry.Record{
		ID:      uuid.NewString(),
		DroneID: msg.DroneID,
		TS:      time.Now().UTC(),
		Battery: msg.Battery,
		Meta:    msg.Meta,
	}
	if msg.Timestamp != nil {
		rec.TS = msg.Timestamp.UTC()
	}
	if msg.Location != nil {
		lat, lon, alt := msg.Location.Lat, msg.Location.Lon, msg.Location.Alt
		rec.Lat, rec.Lon, rec.Alt = &lat, &lon, &alt
	}
	return rec
}
