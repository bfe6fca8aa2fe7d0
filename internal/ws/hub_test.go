package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func dial(t *testing.T, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn, hub, userID).Run(context.Background())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Online(userID) == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestHub_DeliversToUser(t *testing.T) {
	hub, _ := startHub(t)
	userID := uuid.New()
	conn := dial(t, hub, userID)

	require.NoError(t, hub.BroadcastToUser(userID, "booking_accepted", map[string]any{"booking_id": "b-1"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "booking_accepted", msg.Type)
	assert.Equal(t, "b-1", msg.Data["booking_id"])
}

func TestHub_OtherUsersDoNotReceive(t *testing.T) {
	hub, _ := startHub(t)
	alice, bob := uuid.New(), uuid.New()
	bobConn := dial(t, hub, bob)

	require.NoError(t, hub.BroadcastToUser(alice, "ping", nil))

	_ = bobConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := bobConn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, _ := startHub(t)
	userID := uuid.New()
	conn := dial(t, hub, userID)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Online(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StopsOnContextCancel(t *testing.T) {
	hub, cancel := startHub(t)
	userID := uuid.New()
	conn := dial(t, hub, userID)

	cancel()

	assert.Eventually(t, func() bool {
		return hub.BroadcastToUser(userID, "late", nil) == ErrHubStopped
	}, 2*time.Second, 10*time.Millisecond)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Online(userID))
}
