package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neonchat/neonchat/internal/chat"
	"github.com/neonchat/neonchat/internal/server"
)

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()
	logger := zap.NewNop()
	hub := server.NewHub(chat.NewRegistry(logger), server.NewConfig(), logger)
	go hub.Run()
	t.Cleanup(func() { _ = hub.Shutdown(time.Second) })
	return server.SetupRoutes(hub)
}

func TestHealthEndpoint(t *testing.T) {
	ts := httptest.NewServer(newMux(t))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "NeonChat server is running")
}

func TestTestPageServesProtocolClient(t *testing.T) {
	ts := httptest.NewServer(newMux(t))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "NeonChat")
	for _, kind := range []string{"'join'", "'message'", "'typing'"} {
		assert.Contains(t, html, kind)
	}
}

func TestWebSocketEndpointRejectsNonGet(t *testing.T) {
	ts := httptest.NewServer(newMux(t))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/ws", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWebSocketEndpointRejectsPlainGet(t *testing.T) {
	ts := httptest.NewServer(newMux(t))
	defer ts.Close()

	// A GET without upgrade headers must not be treated as a WebSocket.
	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
