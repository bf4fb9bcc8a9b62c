// Package chat defines the message record and the input clamping rules shared
// by the dispatcher and the registry.
package chat

const (
	maxUsernameLen = 20
	maxRoomLen     = 30
	maxTextLen     = 500

	// historyLimit caps the number of messages retained per room; the oldest
	// entry is evicted first.
	historyLimit = 100

	defaultUsername = "Anonimo"
	defaultRoom     = "generale"
)

// Message is one posted chat message as recorded in a room's history.
// It is immutable once created.
type Message struct {
	ID        string
	Username  string
	Room      string
	Text      string
	Timestamp string
}

// truncate clamps s to at most n characters. The count is rune based, so a
// multi-byte character is never split. Clamping is not an error.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
