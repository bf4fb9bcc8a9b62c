package integration

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neonchat/neonchat/test/testhelpers"
)

func TestHubShutdownClosesClients(t *testing.T) {
	cs := testhelpers.StartChatServer(t)

	alice := cs.Dial(t)
	testhelpers.JoinRoom(t, alice, "alice", "lobby")
	bob := cs.Dial(t)
	testhelpers.JoinRoom(t, bob, "bob", "lobby")
	testhelpers.ReadFrame(t, alice, time.Second) // bob's join notice

	require.NoError(t, cs.Hub.Shutdown(2*time.Second))

	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		var err error
		for err == nil {
			_, _, err = conn.ReadMessage()
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			assert.False(t, netErr.Timeout(),
				"read for %s should fail because the server closed the connection, not by timing out", name)
		}
	}
}

func TestShutdownRunsDisconnectCleanup(t *testing.T) {
	cs := testhelpers.StartChatServer(t)

	alice := cs.Dial(t)
	testhelpers.JoinRoom(t, alice, "alice", "lobby")

	require.NoError(t, cs.Hub.Shutdown(2*time.Second))
	assert.Empty(t, cs.Hub.Registry().Rooms(), "disconnect cleanup must run during shutdown")

	// A second shutdown must return immediately without error.
	require.NoError(t, cs.Hub.Shutdown(time.Second))
}
