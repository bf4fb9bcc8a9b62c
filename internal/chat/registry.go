// Package chat coordinates room membership, history, and broadcast fan-out
// for the NeonChat server via the Registry type.
package chat

import (
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Member is the registry's view of a joined session: a non-blocking outbound
// queue plus the username the session joined with. Members are compared by
// identity, so implementations must be pointer types.
type Member interface {
	// EnqueueOutbound appends one payload to the member's outbound queue
	// without blocking. It reports false when the member can no longer accept
	// frames; delivery is best effort and the registry only logs the drop.
	EnqueueOutbound(payload []byte) bool

	// Name returns the member's username, empty until it has joined.
	Name() string
}

// Registry is the single authority over cross-session shared state: the
// room membership sets and the bounded per-room history lists. Every
// operation runs under one mutex shared across all rooms, and every critical
// section is a short in-memory map or slice manipulation; broadcast enqueues
// are non-blocking queue pushes, so no I/O ever happens while the lock is
// held.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]map[Member]struct{}
	history map[string][]Message
	log     *zap.Logger
}

// NewRegistry creates an empty registry. Rooms are created lazily on first
// join and removed as soon as their last member leaves.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		rooms:   make(map[string]map[Member]struct{}),
		history: make(map[string][]Message),
		log:     log,
	}
}

// Join adds m to the named room, creating the room if absent. Joining a room
// the member already belongs to is a no-op.
func (r *Registry) Join(room string, m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[Member]struct{})
		r.rooms[room] = members
	}
	members[m] = struct{}{}
}

// Leave removes m from the named room. When the last member leaves, the room
// and its history are deleted; a room with zero members is never observable.
func (r *Registry) Leave(room string, m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, m)
	if len(members) == 0 {
		delete(r.rooms, room)
		delete(r.history, room)
		r.log.Info("room removed", zap.String("room", room))
	}
}

// Broadcast enqueues payload on every current member of the room except
// exclude (pass nil to include everyone). The membership snapshot and the
// fan-out share one critical section, so a concurrently joining or leaving
// session is either fully included or fully excluded, never partially.
func (r *Registry) Broadcast(room string, payload []byte, exclude Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for m := range r.rooms[room] {
		if m == exclude {
			continue
		}
		if !m.EnqueueOutbound(payload) {
			r.log.Warn("dropping broadcast frame for stalled member",
				zap.String("room", room),
				zap.String("username", m.Name()))
		}
	}
}

// RecordHistory appends msg to the room's history, evicting the oldest entry
// once the history exceeds its capacity.
func (r *Registry) RecordHistory(room string, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := append(r.history[room], msg)
	if len(h) > historyLimit {
		h = h[len(h)-historyLimit:]
	}
	r.history[room] = h
}

// History returns a copy of the room's history, oldest first. A room with no
// recorded messages yields an empty slice.
func (r *Registry) History(room string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Message(nil), r.history[room]...)
}

// Usernames returns the non-empty usernames of the room's current members in
// no particular order.
func (r *Registry) Usernames(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.FilterMap(lo.Keys(r.rooms[room]), func(m Member, _ int) (string, bool) {
		name := m.Name()
		return name, name != ""
	})
}

// Rooms returns the names of all rooms that currently have members.
func (r *Registry) Rooms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.Keys(r.rooms)
}
