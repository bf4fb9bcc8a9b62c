package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neonchat/neonchat/internal/chat"
)

func TestDecodeEvent(t *testing.T) {
	ev, err := chat.DecodeEvent([]byte(`{"type":"join","username":"alice","room":"lobby"}`))
	require.NoError(t, err)
	assert.Equal(t, chat.EventJoin, ev.Type)
	assert.Equal(t, "alice", ev.Username)
	assert.Equal(t, "lobby", ev.Room)

	ev, err = chat.DecodeEvent([]byte(`{"type":"typing","active":true}`))
	require.NoError(t, err)
	assert.Equal(t, chat.EventTyping, ev.Type)
	assert.True(t, ev.Active)
}

func TestDecodeEventUnknownTypeIsNotAnError(t *testing.T) {
	ev, err := chat.DecodeEvent([]byte(`{"type":"shutdown"}`))
	require.NoError(t, err)
	assert.Equal(t, "shutdown", ev.Type)
}

func TestDecodeEventMalformed(t *testing.T) {
	for _, raw := range []string{`not json`, `[1,2,3]`, `"plain string"`, ``} {
		_, err := chat.DecodeEvent([]byte(raw))
		assert.Error(t, err, "input %q", raw)
	}
}

func TestDecodeEventIgnoresExtraFields(t *testing.T) {
	ev, err := chat.DecodeEvent([]byte(`{"type":"message","text":"hi","color":"neon"}`))
	require.NoError(t, err)
	assert.Equal(t, "hi", ev.Text)
}
