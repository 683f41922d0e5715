package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Frame is the wire envelope of every realtime message
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Member is a connection that can join identity channels
type Member interface {
	ID() string
	Send(frame Frame) error
}

// Hub tracks which members joined which identity channel. State is local to
// the process; Relay carries events between instances.
type Hub struct {
	mu          sync.RWMutex
	channels    map[string]map[string]Member
	memberships map[string]map[string]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		channels:    make(map[string]map[string]Member),
		memberships: make(map[string]map[string]struct{}),
	}
}

// Join adds m to channel. Joining twice is a no-op.
func (h *Hub) Join(channel string, m Member) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.channels[channel]
	if !ok {
		members = make(map[string]Member)
		h.channels[channel] = members
	}
	members[m.ID()] = m

	joined, ok := h.memberships[m.ID()]
	if !ok {
		joined = make(map[string]struct{})
		h.memberships[m.ID()] = joined
	}
	joined[channel] = struct{}{}
}

// Leave removes m from every channel it joined
func (h *Hub) Leave(m Member) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel := range h.memberships[m.ID()] {
		members := h.channels[channel]
		delete(members, m.ID())
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
	delete(h.memberships, m.ID())
}

// Channels returns the channels memberID joined
func (h *Hub) Channels(memberID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.memberships[memberID]))
	for channel := range h.memberships[memberID] {
		out = append(out, channel)
	}
	return out
}

// Members returns the number of members in channel
func (h *Hub) Members(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.channels[channel])
}

// Emit sends event to every member of channel and returns how many accepted it
func (h *Hub) Emit(channel string, event string, data any) (int, error) {
	frame := Frame{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal %s data: %w", event, err)
		}
		frame.Data = raw
	}

	h.mu.RLock()
	members := make([]Member, 0, len(h.channels[channel]))
	for _, m := range h.channels[channel] {
		members = append(members, m)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, m := range members {
		if err := m.Send(frame); err == nil {
			delivered++
		}
	}
	return delivered, nil
}
