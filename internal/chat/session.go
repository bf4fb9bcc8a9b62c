// Package chat drives the per-connection protocol state machine that routes
// inbound events to registry operations.
package chat

import (
	"sync"

	"go.uber.org/zap"
)

// Outbound is the delivery queue a session hands its payloads to. The
// transport layer implements it on top of the connection's send queue and
// must preserve the order payloads were enqueued.
type Outbound interface {
	EnqueueOutbound(payload []byte) bool
}

// Session holds the protocol state of one client connection: the username and
// room it joined with, and the outbound queue its payloads go through. The
// transport delivers inbound events strictly in receive order and never
// concurrently for the same session; Disconnected may race with event
// handling, so the joined state is guarded.
//
// A session joins at most one room for its lifetime. The first valid join
// fixes username and room; a redundant join re-runs the registry join
// idempotently and re-sends history and the user list, but never repeats the
// join notice.
type Session struct {
	registry *Registry
	out      Outbound
	log      *zap.Logger

	mu       sync.Mutex
	username string
	room     string
	closed   bool
}

// NewSession creates a session in the not-yet-joined state.
func NewSession(registry *Registry, out Outbound, log *zap.Logger) *Session {
	return &Session{registry: registry, out: out, log: log}
}

// EnqueueOutbound forwards a payload to the session's transport queue. Part
// of the Member contract; called by registry broadcasts on behalf of other
// sessions.
func (s *Session) EnqueueOutbound(payload []byte) bool {
	return s.out.EnqueueOutbound(payload)
}

// Name returns the username the session joined with, empty before the first
// join and after disconnect. Part of the Member contract.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// HandleEvent routes one decoded inbound event. Unknown event types, and
// events that require a joined session before one exists, are ignored.
func (s *Session) HandleEvent(ev Event) {
	switch ev.Type {
	case EventJoin:
		s.handleJoin(ev)
	case EventMessage:
		s.handleMessage(ev)
	case EventTyping:
		s.handleTyping(ev)
	}
}

func (s *Session) handleJoin(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	first := s.username == ""
	if first {
		username := truncate(ev.Username, maxUsernameLen)
		if username == "" {
			username = defaultUsername
		}
		room := truncate(ev.Room, maxRoomLen)
		if room == "" {
			room = defaultRoom
		}
		s.username = username
		s.room = room
	}
	username, room := s.username, s.room
	s.mu.Unlock()

	s.registry.Join(room, s)

	// Replay recent history, then the current user list, before anyone else
	// hears about the join.
	s.out.EnqueueOutbound(encodeHistory(s.registry.History(room)))
	s.out.EnqueueOutbound(encodeUsers(s.registry.Usernames(room)))

	if first {
		s.registry.Broadcast(room, encodeJoinNotice(username), s)
		s.log.Info("joined room",
			zap.String("username", username),
			zap.String("room", room))
	}
}

func (s *Session) handleMessage(ev Event) {
	username, room, ok := s.joined()
	if !ok {
		return
	}

	text := truncate(ev.Text, maxTextLen)
	if text == "" {
		return
	}

	msg := Message{
		ID:        NextID(),
		Username:  username,
		Room:      room,
		Text:      text,
		Timestamp: NowUTC(),
	}
	s.registry.RecordHistory(room, msg)
	s.registry.Broadcast(room, encodeMessage(msg), nil)
}

func (s *Session) handleTyping(ev Event) {
	username, room, ok := s.joined()
	if !ok {
		return
	}
	s.registry.Broadcast(room, encodeTyping(username, ev.Active), s)
}

// Disconnected runs the session's cleanup. It is idempotent: only the first
// call has any effect. If the session had joined, the remaining room members
// receive a leave notice and the session drops out of the registry; the
// cleared username makes any further inbound event a no-op.
func (s *Session) Disconnected() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	username, room := s.username, s.room
	s.username = ""
	s.mu.Unlock()

	if username == "" {
		return
	}

	s.registry.Broadcast(room, encodeLeaveNotice(username), s)
	s.registry.Leave(room, s)
	s.log.Info("left room",
		zap.String("username", username),
		zap.String("room", room))
}

func (s *Session) joined() (username, room string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.username == "" {
		return "", "", false
	}
	return s.username, s.room, true
}
