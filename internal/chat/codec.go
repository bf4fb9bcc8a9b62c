// Package chat encodes and decodes the JSON event envelope exchanged with
// clients. Every frame carries a "type" discriminator.
package chat

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Inbound event types.
const (
	EventJoin    = "join"
	EventMessage = "message"
	EventTyping  = "typing"
)

// Event is the decoded form of one inbound client frame. Fields that do not
// apply to the event's type are left at their zero value.
type Event struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Room     string `json:"room,omitempty"`
	Text     string `json:"text,omitempty"`
	Active   bool   `json:"active,omitempty"`
}

// DecodeEvent parses one raw inbound frame. A frame that is not a JSON object
// returns an error and is dropped by the caller; an object with an unknown
// type decodes fine and falls through the dispatcher unhandled.
func DecodeEvent(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

type messagePayload struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type historyPayload struct {
	Type     string           `json:"type"`
	Messages []messagePayload `json:"messages"`
}

type usersPayload struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

type noticePayload struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

type typingPayload struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Active   bool   `json:"active"`
}

// The encode helpers below marshal fixed struct shapes with string and bool
// fields only; jsoniter cannot fail on them.

func encodeMessage(m Message) []byte {
	payload, _ := json.Marshal(messagePayload{
		Type:      EventMessage,
		Username:  m.Username,
		Text:      m.Text,
		Timestamp: m.Timestamp,
	})
	return payload
}

func encodeHistory(messages []Message) []byte {
	entries := make([]messagePayload, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, messagePayload{
			Type:      EventMessage,
			Username:  m.Username,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	payload, _ := json.Marshal(historyPayload{Type: "history", Messages: entries})
	return payload
}

func encodeUsers(users []string) []byte {
	if users == nil {
		users = []string{}
	}
	payload, _ := json.Marshal(usersPayload{Type: "users", Users: users})
	return payload
}

func encodeJoinNotice(username string) []byte {
	payload, _ := json.Marshal(noticePayload{Type: EventJoin, Username: username})
	return payload
}

func encodeLeaveNotice(username string) []byte {
	payload, _ := json.Marshal(noticePayload{Type: "leave", Username: username})
	return payload
}

func encodeTyping(username string, active bool) []byte {
	payload, _ := json.Marshal(typingPayload{Type: EventTyping, Username: username, Active: active})
	return payload
}
