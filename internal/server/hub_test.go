package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neonchat/neonchat/internal/chat"
)

func newTestHub() *Hub {
	registry := chat.NewRegistry(zap.NewNop())
	return NewHub(registry, NewConfig(), zap.NewNop())
}

func TestNewHub(t *testing.T) {
	hub := newTestHub()
	require.NotNil(t, hub)
	require.NotNil(t, hub.Registry())

	go hub.Run()
	select {
	case hub.GetRegisterChan() <- nil:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("hub did not accept a registration")
	}

	require.NoError(t, hub.Shutdown(time.Second))
}

func TestSafeSendToUnregisteredClient(t *testing.T) {
	hub := newTestHub()
	client := NewClient(nil, hub, "127.0.0.1:12345")

	assert.False(t, hub.safeSend(client, []byte(`payload`)),
		"sends to a client the hub does not own must be refused")
}

func TestSafeSendDeliversInOrder(t *testing.T) {
	hub := newTestHub()
	client := NewClient(nil, hub, "127.0.0.1:12345")
	hub.clients[client] = true

	assert.True(t, hub.safeSend(client, []byte(`first`)))
	assert.True(t, hub.safeSend(client, []byte(`second`)))

	assert.Equal(t, []byte(`first`), <-client.GetSendChan())
	assert.Equal(t, []byte(`second`), <-client.GetSendChan())
}

func TestSafeSendToClosedClient(t *testing.T) {
	hub := newTestHub()
	client := NewClient(nil, hub, "127.0.0.1:12345")
	hub.clients[client] = true
	client.closed = true

	assert.False(t, hub.safeSend(client, []byte(`payload`)))
}

func TestSafeSendOnFullQueue(t *testing.T) {
	hub := newTestHub()
	client := NewClient(nil, hub, "127.0.0.1:12345")
	hub.clients[client] = true

	for i := 0; i < sendQueueSize; i++ {
		require.True(t, hub.safeSend(client, []byte(`fill`)))
	}
	assert.False(t, hub.safeSend(client, []byte(`overflow`)),
		"a full queue must refuse the payload instead of blocking")
}

func TestUnregisterClosesSendQueue(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	defer func() { _ = hub.Shutdown(time.Second) }()

	client := NewClient(nil, hub, "127.0.0.1:12345")
	hub.mutex.Lock()
	hub.clients[client] = true
	hub.mutex.Unlock()

	hub.GetUnregisterChan() <- client

	select {
	case _, ok := <-client.GetSendChan():
		assert.False(t, ok, "send queue must be closed after unregistration")
	case <-time.After(time.Second):
		t.Fatal("send queue was not closed")
	}
	assert.False(t, hub.safeSend(client, []byte(`payload`)))
}

func TestClientSessionIsWiredToHubRegistry(t *testing.T) {
	hub := newTestHub()
	client := NewClient(nil, hub, "127.0.0.1:12345")
	hub.clients[client] = true

	client.Session().HandleEvent(chat.Event{Type: chat.EventJoin, Username: "alice", Room: "lobby"})

	assert.Equal(t, []string{"lobby"}, hub.Registry().Rooms())
	assert.Equal(t, []string{"alice"}, hub.Registry().Usernames("lobby"))

	// Join replays history then the user list through the send queue.
	first := <-client.GetSendChan()
	second := <-client.GetSendChan()
	assert.Contains(t, string(first), `"history"`)
	assert.Contains(t, string(second), `"users"`)
}
