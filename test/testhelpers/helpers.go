// Package testhelpers provides common utilities for testing the NeonChat
// server.
//
// It contains helpers for standing up a full chat server on an ephemeral
// port, dialing WebSocket clients against it, and exchanging protocol frames
// with deadlines, to reduce duplication in the integration tests.
package testhelpers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neonchat/neonchat/internal/chat"
	"github.com/neonchat/neonchat/internal/server"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Frame mirrors every payload shape the server emits, for decoding in
// assertions.
type Frame struct {
	Type      string   `json:"type"`
	Username  string   `json:"username"`
	Text      string   `json:"text"`
	Timestamp string   `json:"timestamp"`
	Active    bool     `json:"active"`
	Users     []string `json:"users"`
	Messages  []Frame  `json:"messages"`
}

// ChatServer is a fully wired chat server listening on an ephemeral port.
type ChatServer struct {
	Hub   *server.Hub
	WSURL string

	ts *httptest.Server
}

// StartChatServer stands up a hub, registry, and HTTP routes on an ephemeral
// port. Cleanup is registered on t.
func StartChatServer(t *testing.T) *ChatServer {
	t.Helper()
	return StartChatServerWithConfig(t, server.NewConfig())
}

// StartChatServerWithConfig is StartChatServer with a caller-supplied
// configuration.
func StartChatServerWithConfig(t *testing.T, cfg server.Config) *ChatServer {
	t.Helper()

	logger := zap.NewNop()
	registry := chat.NewRegistry(logger)
	hub := server.NewHub(registry, cfg, logger)
	go hub.Run()

	ts := httptest.NewServer(server.SetupRoutes(hub))

	cs := &ChatServer{
		Hub:   hub,
		WSURL: "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
		ts:    ts,
	}
	t.Cleanup(func() {
		// Shut the hub down first so hijacked WebSocket connections are
		// closed; httptest.Server.Close blocks while any remain open.
		_ = hub.Shutdown(2 * time.Second)
		ts.Close()
	})
	return cs
}

// Dial connects a WebSocket client to the server. The connection is closed on
// test cleanup.
func (cs *ChatServer) Dial(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(cs.WSURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendEvent writes one JSON event to the connection.
func SendEvent(t *testing.T, conn *websocket.Conn, event any) {
	t.Helper()

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

// ReadFrame reads and decodes the next frame from the connection, failing the
// test if nothing arrives within the timeout.
func ReadFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) Frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err, "expected a frame within %s", timeout)

	var f Frame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

// AssertNoFrame asserts that nothing arrives on the connection for the given
// window.
func AssertNoFrame(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(window)))
	_, raw, err := conn.ReadMessage()
	require.Error(t, err, "expected silence but received frame %s", raw)
}

// JoinRoom performs a join and consumes the history and users replies,
// returning them.
func JoinRoom(t *testing.T, conn *websocket.Conn, username, room string) (history, users Frame) {
	t.Helper()

	SendEvent(t, conn, map[string]any{"type": "join", "username": username, "room": room})
	history = ReadFrame(t, conn, time.Second)
	require.Equal(t, "history", history.Type, "history must arrive first after a join")
	users = ReadFrame(t, conn, time.Second)
	require.Equal(t, "users", users.Type, "the user list must follow the history")
	return history, users
}

// WaitForRooms polls the registry until it holds exactly the expected room
// names or the timeout expires.
func WaitForRooms(t *testing.T, hub *server.Hub, expected []string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		rooms := hub.Registry().Rooms()
		if sameStringSet(rooms, expected) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("rooms never became %v, still %v", expected, rooms)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func sameStringSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	set := make(map[string]struct{}, len(want))
	for _, w := range want {
		set[w] = struct{}{}
	}
	for _, g := range got {
		if _, ok := set[g]; !ok {
			return false
		}
	}
	return true
}
