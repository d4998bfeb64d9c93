package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(Options{QueueSize: 4})
	r := gin.New()
	NewHandler(hub).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) (*websocket.Conn, string) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello ServerEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, TypeConnected, hello.Type)
	require.NotEmpty(t, hello.ClientID)
	return conn, hello.ClientID
}

func TestHub_PickWithoutClients(t *testing.T) {
	hub := NewHub(Options{})

	sender, ok := hub.Pick("req-1")

	assert.False(t, ok)
	assert.Nil(t, sender)
	assert.Equal(t, 0, hub.Count())
}

func TestHub_CountSkipsShutDownClients(t *testing.T) {
	hub := NewHub(Options{})
	live := &client{id: "live", done: make(chan struct{}), requests: map[string]bool{}}
	closing := &client{id: "closing", done: make(chan struct{}), requests: map[string]bool{}}
	hub.register(closing)
	hub.register(live)
	assert.Equal(t, 2, hub.Count())

	closing.shutdown()

	assert.Equal(t, 1, hub.Count())
	sender, ok := hub.Pick("")
	require.True(t, ok)
	assert.Equal(t, "live", sender.ID())
}

func TestHub_PicksEarliestConnectedClient(t *testing.T) {
	hub, srv := setupTestServer(t)

	_, firstID := dial(t, srv, "/ws")
	_, _ = dial(t, srv, "/")
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	sender, ok := hub.Pick("unbound")
	require.True(t, ok)
	assert.Equal(t, firstID, sender.ID())
}

func TestHub_SubscribedClientWins(t *testing.T) {
	hub, srv := setupTestServer(t)

	_, _ = dial(t, srv, "/ws")
	second, secondID := dial(t, srv, "/ws")

	require.NoError(t, second.WriteJSON(ClientMessage{Type: TypeSubscribe, RequestID: "req-42"}))
	require.Eventually(t, func() bool {
		sender, ok := hub.Pick("req-42")
		return ok && sender.ID() == secondID
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, second.WriteJSON(ClientMessage{Type: TypeUnsubscribe, RequestID: "req-42"}))
	require.Eventually(t, func() bool {
		sender, ok := hub.Pick("req-42")
		return ok && sender.ID() != secondID
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_SendDeliversJSON(t *testing.T) {
	hub, srv := setupTestServer(t)
	conn, _ := dial(t, srv, "/ws")

	// plain text is accepted and ignored
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello server")))

	sender, ok := hub.Pick("req-1")
	require.True(t, ok)
	require.NoError(t, sender.Send(context.Background(), map[string]any{"requestId": "req-1", "data": []int{1, 2}}))

	var got struct {
		RequestID string `json:"requestId"`
		Data      []int  `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, []int{1, 2}, got.Data)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, srv := setupTestServer(t)
	conn, _ := dial(t, srv, "/ws")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	sender, ok := hub.Pick("")
	require.True(t, ok)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)

	err := sender.Send(context.Background(), "late")
	assert.ErrorIs(t, err, ErrClientClosed)
	_, ok = hub.Pick("")
	assert.False(t, ok)
}

func TestHandler_RejectsPlainHTTP(t *testing.T) {
	_, srv := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
