package relay

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"testing"

	telemetry "dronelink-cloud/internal/telemetry/domain"
)

type fakeSink struct {
	mu      sync.Mutex
	records []telemetry.Record
}

func (s *fakeSink) Submit(rec telemetry.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *Registry, *fakeSink) {
	t.Helper()
	registry := NewRegistry()
	sink := &fakeSink{}
	dispatcher, err := NewDispatcher(registry, sink, log.New(os.Stdout, "", log.LstdFlags))
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return dispatcher, registry, sink
}

func frame(t *testing.T, event string, data string) []byte {
	t.Helper()
	payload, err := json.Marshal(Envelope{Event: event, Data: json.RawMessage(data)})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return payload
}

func drain(c *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case payload := <-c.send:
			frames = append(frames, payload)
		default:
			return frames
		}
	}
}

func TestTelemetryFanOutIncludesSender(t *testing.T) {
	dispatcher, registry, sink := newTestDispatcher(t)
	drone := testClient("drone")
	operator := testClient("operator")
	registry.Join(drone, "drone:X")
	registry.Join(operator, "drone:X")

	dispatcher.HandleFrame(drone, frame(t, EventTelemetry, `{"droneId":"X","battery":42}`))

	for _, client := range []*Client{drone, operator} {
		frames := drain(client)
		if len(frames) != 1 {
			t.Fatalf("expected exactly 1 delivery for %s, got %d", client.ID(), len(frames))
		}
		var env Envelope
		if err := json.Unmarshal(frames[0], &env); err != nil {
			t.Fatalf("unmarshal delivery: %v", err)
		}
		if env.Event != EventTelemetryUpdate {
			t.Fatalf("expected telemetry:update, got %s", env.Event)
		}
		if string(env.Data) != `{"droneId":"X","battery":42}` {
			t.Fatalf("payload was modified: %s", env.Data)
		}
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 persistence submission, got %d", sink.count())
	}
}

func TestTelemetryScopedToTopic(t *testing.T) {
	dispatcher, registry, _ := newTestDispatcher(t)
	sender := testClient("sender")
	other := testClient("other")
	registry.Join(sender, "drone:X")
	registry.Join(other, "drone:Y")

	dispatcher.HandleFrame(sender, frame(t, EventTelemetry, `{"droneId":"X"}`))

	if frames := drain(other); len(frames) != 0 {
		t.Fatalf("expected no deliveries to drone:Y member, got %d", len(frames))
	}
}

func TestTelemetryMissingDroneIDDroppedSilently(t *testing.T) {
	dispatcher, registry, sink := newTestDispatcher(t)
	client := testClient("c1")
	registry.Join(client, "drone:X")

	dispatcher.HandleFrame(client, frame(t, EventTelemetry, `{"battery":10}`))

	if frames := drain(client); len(frames) != 0 {
		t.Fatalf("expected zero deliveries, got %d", len(frames))
	}
	if sink.count() != 0 {
		t.Fatalf("expected zero persistence submissions, got %d", sink.count())
	}
}

func TestControlFanOutWithoutPersistence(t *testing.T) {
	dispatcher, registry, sink := newTestDispatcher(t)
	operator := testClient("operator")
	drone := testClient("drone")
	registry.Join(operator, "drone:D1")
	registry.Join(drone, "drone:D1")

	dispatcher.HandleFrame(operator, frame(t, EventControl, `{"droneId":"D1","action":"RTL"}`))

	frames := drain(drone)
	if len(frames) != 1 {
		t.Fatalf("expected 1 delivery to drone, got %d", len(frames))
	}
	var env Envelope
	if err := json.Unmarshal(frames[0], &env); err != nil {
		t.Fatalf("unmarshal delivery: %v", err)
	}
	if env.Event != EventControlCmd {
		t.Fatalf("expected control:cmd, got %s", env.Event)
	}
	if sink.count() != 0 {
		t.Fatalf("control must not be persisted, got %d submissions", sink.count())
	}
}

func TestJoinViaFrame(t *testing.T) {
	dispatcher, registry, _ := newTestDispatcher(t)
	client := testClient("c1")

	dispatcher.HandleFrame(client, frame(t, EventJoin, `{"droneId":"D1"}`))

	members := registry.MembersOf("drone:D1")
	if len(members) != 1 || members[0].ID() != "c1" {
		t.Fatalf("expected c1 joined to drone:D1")
	}

	dispatcher.HandleFrame(client, frame(t, EventLeave, `{"droneId":"D1"}`))
	if registry.MembersOf("drone:D1") != nil {
		t.Fatal("expected membership removed after leave")
	}
}

func TestMalformedFramesDropped(t *testing.T) {
	dispatcher, registry, sink := newTestDispatcher(t)
	client := testClient("c1")
	registry.Join(client, "drone:X")

	dispatcher.HandleFrame(client, []byte("not json"))
	dispatcher.HandleFrame(client, frame(t, "unknown", `{}`))

	if frames := drain(client); len(frames) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(frames))
	}
	if sink.count() != 0 {
		t.Fatalf("expected no submissions, got %d", sink.count())
	}
}

func TestDisconnectCleansMembership(t *testing.T) {
	dispatcher, registry, _ := newTestDispatcher(t)
	leaving := testClient("leaving")
	staying := testClient("staying")
	registry.Join(leaving, "drone:T1")
	registry.Join(leaving, "drone:T2")
	registry.Join(staying, "drone:T1")

	dispatcher.Disconnect(leaving)

	members := registry.MembersOf("drone:T1")
	if len(members) != 1 || members[0].ID() != "staying" {
		t.Fatalf("expected only staying in drone:T1")
	}
	if registry.MembersOf("drone:T2") != nil {
		t.Fatal("expected drone:T2 removed")
	}

	// Traffic after the disconnect reaches the remaining member only.
	dispatcher.HandleFrame(staying, frame(t, EventTelemetry, `{"droneId":"T1"}`))
	if frames := drain(staying); len(frames) != 1 {
		t.Fatalf("expected 1 delivery to staying, got %d", len(frames))
	}
	if frames := drain(leaving); len(frames) != 0 {
		t.Fatalf("expected no deliveries to disconnected client, got %d", len(frames))
	}
}
