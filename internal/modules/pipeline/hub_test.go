package pipeline

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mukamba/internal/pkg/jwt"
)

func startWSServer(t *testing.T) (*Hub, *jwt.Service, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	jwtService := jwt.New("ws-secret", time.Hour)

	router := gin.New()
	NewWSHandler(hub, jwtService, zap.NewNop()).RegisterRoutes(router.Group("/api/v1"))
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return hub, jwtService, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/pipeline/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWebSocket_RejectsMissingAndNonAdminTokens(t *testing.T) {
	_, jwtService, url := startWSServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, _ := jwtService.GenerateToken("agent-9", "viewer")
	_, resp, err = websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocket_BroadcastReachesAgents(t *testing.T) {
	hub, jwtService, url := startWSServer(t)

	alice, _ := jwtService.GenerateToken("alice", "admin")
	bob, _ := jwtService.GenerateToken("bob", "admin")
	connA := dial(t, url+"?token="+alice)
	connB := dial(t, url+"?token="+bob)

	require.Eventually(t, func() bool { return hub.OnlineCount() == 2 }, time.Second, 10*time.Millisecond)
	assert.True(t, hub.IsOnline("alice"))

	sent := hub.Broadcast(Event{Type: EventLeadsDeleted, LeadIDs: []string{"1", "2"}, AgentID: "alice"})
	assert.Equal(t, 2, sent)

	for _, conn := range []*websocket.Conn{connA, connB} {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		var ev Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, EventLeadsDeleted, ev.Type)
		assert.Equal(t, []string{"1", "2"}, ev.LeadIDs)
	}
}

func TestWebSocket_PingAndUnknownMessage(t *testing.T) {
	_, jwtService, url := startWSServer(t)

	token, _ := jwtService.GenerateToken("alice", "admin")
	conn := dial(t, url+"?token="+token)
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	var msg serverMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "shout"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "UNKNOWN_TYPE", msg.Code)
}

func TestWebSocket_ReconnectReplacesConnection(t *testing.T) {
	hub, jwtService, url := startWSServer(t)

	token, _ := jwtService.GenerateToken("alice", "admin")
	first := dial(t, url+"?token="+token)
	require.Eventually(t, func() bool { return hub.IsOnline("alice") }, time.Second, 10*time.Millisecond)

	second := dial(t, url+"?token="+token)
	_ = first.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)

	assert.Equal(t, 1, hub.Broadcast(Event{Type: EventLeadCreated, LeadID: "x"}))
	_ = second.SetReadDeadline(time.Now().Add(time.Second))
	var ev Event
	require.NoError(t, second.ReadJSON(&ev))
	assert.Equal(t, EventLeadCreated, ev.Type)
	assert.Equal(t, 1, hub.OnlineCount())
}

func TestHub_BroadcastDoesNotWaitOnStalledAgent(t *testing.T) {
	hub, jwtService, url := startWSServer(t)

	stalled, _ := jwtService.GenerateToken("stalled", "admin")
	_ = dial(t, url+"?token="+stalled)
	require.Eventually(t, func() bool { return hub.IsOnline("stalled") }, time.Second, 10*time.Millisecond)

	big := Event{Type: EventLeadsDeleted, LeadIDs: []string{strings.Repeat("x", 256<<10)}}
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 200; i++ {
			hub.Broadcast(big)
		}
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast blocked on an agent that stopped reading")
	}
	assert.Eventually(t, func() bool { return !hub.IsOnline("stalled") }, time.Second, 10*time.Millisecond)

	bob, _ := jwtService.GenerateToken("bob", "admin")
	conn := dial(t, url+"?token="+bob)
	require.Eventually(t, func() bool { return hub.IsOnline("bob") }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, hub.Broadcast(Event{Type: EventLeadCreated, LeadID: "after"}))
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "after", ev.LeadID)
}

func TestHub_SendToOfflineAgent(t *testing.T) {
	hub := NewHub()
	assert.False(t, hub.SendToAgent("nobody", Event{Type: EventLeadCreated}))
	assert.Zero(t, hub.Broadcast(Event{Type: EventLeadCreated}))
}
