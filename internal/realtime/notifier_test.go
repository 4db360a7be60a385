package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func dial(t *testing.T, server *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	return ws
}

func TestNewNotifier(t *testing.T) {
	n := NewNotifier(zap.NewNop())
	assert.NotNil(t, n)
	assert.Equal(t, 0, n.ConnectionCount())
}

func TestNotifier_ConnectDisconnectLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewNotifier(zap.New(core))

	server := httptest.NewServer(http.HandlerFunc(n.HandleConnection))
	defer server.Close()

	ws := dial(t, server, nil)
	assert.Eventually(t, func() bool { return n.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return n.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("Realtime client disconnected").Len() == 1
	}, time.Second, 10*time.Millisecond)

	connected := logs.FilterMessage("Realtime client connected").All()
	disconnected := logs.FilterMessage("Realtime client disconnected").All()
	require.Len(t, connected, 1)
	require.Len(t, disconnected, 1)

	connID := connected[0].ContextMap()["connection_id"]
	assert.NotEmpty(t, connID)
	assert.Equal(t, connID, disconnected[0].ContextMap()["connection_id"])
}

func TestNotifier_AcceptsAnyOrigin(t *testing.T) {
	n := NewNotifier(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(n.HandleConnection))
	defer server.Close()

	header := http.Header{}
	header.Set("Origin", "https://elsewhere.example")
	ws := dial(t, server, header)
	defer ws.Close()

	assert.Eventually(t, func() bool { return n.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestNotifier_Broadcast(t *testing.T) {
	n := NewNotifier(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(n.HandleConnection))
	defer server.Close()

	a := dial(t, server, nil)
	defer a.Close()
	b := dial(t, server, nil)
	defer b.Close()
	require.Eventually(t, func() bool { return n.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)

	sent, err := n.Broadcast(context.Background(), Event{Type: "report.created", Data: map[string]string{"id": "r1"}})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	for _, ws := range []*websocket.Conn{a, b} {
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(time.Second)))
		var ev map[string]interface{}
		require.NoError(t, ws.ReadJSON(&ev))
		assert.Equal(t, "report.created", ev["type"])
	}
}

func TestNotifier_BroadcastNoClients(t *testing.T) {
	n := NewNotifier(zap.NewNop())
	sent, err := n.Broadcast(context.Background(), Event{Type: "noop"})
	assert.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestNotifier_Close(t *testing.T) {
	n := NewNotifier(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(n.HandleConnection))
	defer server.Close()

	ws := dial(t, server, nil)
	defer ws.Close()
	require.Eventually(t, func() bool { return n.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	n.Close()
	assert.Equal(t, 0, n.ConnectionCount())

	// client observes the close
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := ws.ReadMessage()
	assert.Error(t, err)

	// new connections are refused
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	}

	_, err = n.Broadcast(context.Background(), Event{Type: "late"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNotifier_RejectsPlainHTTP(t *testing.T) {
	n := NewNotifier(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(n.HandleConnection))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, n.ConnectionCount())
}
