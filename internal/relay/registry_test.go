package relay

import (
	"testing"

	"dronelink-cloud/internal/auth"
)

func testClient(id string) *Client {
	return newClient(id, auth.Identity{Subject: id, Role: auth.RoleOperator}, nil, 8)
}

func TestRegistryJoinIdempotent(t *testing.T) {
	registry := NewRegistry()
	client := testClient("c1")

	registry.Join(client, "drone:D1")
	registry.Join(client, "drone:D1")

	members := registry.MembersOf("drone:D1")
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}
	if topics := registry.Topics(client); len(topics) != 1 || topics[0] != "drone:D1" {
		t.Fatalf("expected joined set [drone:D1], got %v", topics)
	}
}

func TestRegistryMembershipSymmetry(t *testing.T) {
	registry := NewRegistry()
	a := testClient("a")
	b := testClient("b")

	registry.Join(a, "drone:D1")
	registry.Join(a, "drone:D2")
	registry.Join(b, "drone:D1")

	for _, topic := range registry.Topics(a) {
		found := false
		for _, member := range registry.MembersOf(topic) {
			if member.ID() == a.ID() {
				found = true
			}
		}
		if !found {
			t.Fatalf("client a joined %s but is not a member", topic)
		}
	}
	if len(registry.MembersOf("drone:D1")) != 2 {
		t.Fatalf("expected 2 members of drone:D1")
	}
}

func TestRegistryLeaveRemovesEmptyTopic(t *testing.T) {
	registry := NewRegistry()
	client := testClient("c1")

	registry.Join(client, "drone:D1")
	registry.Leave(client, "drone:D1")

	if members := registry.MembersOf("drone:D1"); members != nil {
		t.Fatalf("expected topic to be gone, got %d members", len(members))
	}
	if topics := registry.Topics(client); topics != nil {
		t.Fatalf("expected empty joined set, got %v", topics)
	}

	// Leaving again is a no-op.
	registry.Leave(client, "drone:D1")
}

func TestRegistryLeaveAll(t *testing.T) {
	registry := NewRegistry()
	a := testClient("a")
	b := testClient("b")

	registry.Join(a, "drone:D1")
	registry.Join(a, "drone:D2")
	registry.Join(b, "drone:D1")

	registry.LeaveAll(a)

	if topics := registry.Topics(a); topics != nil {
		t.Fatalf("expected no topics for a, got %v", topics)
	}
	members := registry.MembersOf("drone:D1")
	if len(members) != 1 || members[0].ID() != "b" {
		t.Fatalf("expected only b in drone:D1")
	}
	if registry.MembersOf("drone:D2") != nil {
		t.Fatal("expected drone:D2 to be removed")
	}

	// LeaveAll on a client that never joined is safe.
	registry.LeaveAll(testClient("c"))
}
