package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritenv/cartified/pkg/domain/cart"
)

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", want, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	hub.Broadcast(context.Background(), cart.BroadcastCartModified, []cart.Item{{ID: "a", Qty: 3}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(frame, &msg))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, cart.BroadcastCartModified, msg.Event)
	assert.Equal(t, []cart.Item{{ID: "a", Qty: 3}}, msg.Items)
}

func TestHub_BroadcastFansOut(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	server := httptest.NewServer(hub)
	defer server.Close()

	first := dialHub(t, server)
	second := dialHub(t, server)
	waitForClients(t, hub, 2)

	hub.Broadcast(context.Background(), cart.BroadcastCartModified, nil)

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		require.NoError(t, err)
	}
}

func TestHub_DisconnectedClientIsDropped(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)

	// Broadcasting with no clients is a no-op.
	hub.Broadcast(context.Background(), cart.BroadcastCartModified, nil)
}
