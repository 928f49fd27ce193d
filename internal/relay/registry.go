package relay

import "sync"

// Registry tracks topic membership for live connections. Topics are created
// lazily on first join and removed when their last member leaves. Membership
// is kept symmetric: a connection is in a topic's member set exactly when the
// topic is in the connection's joined set.
type Registry struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Client
	joined map[string]map[string]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		topics: make(map[string]map[string]*Client),
		joined: make(map[string]map[string]struct{}),
	}
}

// Join adds the client to the topic. Idempotent.
func (r *Registry) Join(client *Client, topic string) {
	if r == nil || client == nil || topic == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.topics[topic]
	if !ok {
		members = make(map[string]*Client)
		r.topics[topic] = members
	}
	members[client.ID()] = client

	joined, ok := r.joined[client.ID()]
	if !ok {
		joined = make(map[string]struct{})
		r.joined[client.ID()] = joined
	}
	joined[topic] = struct{}{}
}

// Leave removes the client from the topic. Idempotent; removes the topic
// entry when its member set becomes empty.
func (r *Registry) Leave(client *Client, topic string) {
	if r == nil || client == nil || topic == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(client.ID(), topic)
}

// LeaveAll removes the client from every topic it joined. Called once on
// connection close; safe to call for a client that never joined anything.
func (r *Registry) LeaveAll(client *Client) {
	if r == nil || client == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for topic := range r.joined[client.ID()] {
		r.leaveLocked(client.ID(), topic)
	}
	delete(r.joined, client.ID())
}

func (r *Registry) leaveLocked(clientID, topic string) {
	if members, ok := r.topics[topic]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(r.topics, topic)
		}
	}
	if joined, ok := r.joined[clientID]; ok {
		delete(joined, topic)
		if len(joined) == 0 {
			delete(r.joined, clientID)
		}
	}
}

// MembersOf returns a snapshot of the topic's current members.
func (r *Registry) MembersOf(topic string) []*Client {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.topics[topic]
	if len(members) == 0 {
		return nil
	}
	snapshot := make([]*Client, 0, len(members))
	for _, client := range members {
		snapshot = append(snapshot, client)
	}
	return snapshot
}

// Topics returns a snapshot of the topics the client has joined.
func (r *Registry) Topics(client *Client) []string {
	if r == nil || client == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	joined := r.joined[client.ID()]
	if len(joined) == 0 {
		return nil
	}
	topics := make([]string, 0, len(joined))
	for topic := range joined {
		topics = append(topics, topic)
	}
	return topics
}
