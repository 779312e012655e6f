// Package ws broadcasts cart changes to connected websocket clients. It
// implements the cart.Notifier boundary for hosts that page browser or TUI
// clients into the cart feed.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ritenv/cartified/pkg/domain/cart"
)

const writeTimeout = 5 * time.Second

// Message is the JSON frame pushed to every connected client.
type Message struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Items     []cart.Item `json:"items"`
}

// Hub upgrades incoming connections and fans cart broadcasts out to them.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty Hub. A nil logger defaults to no-op.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     log,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the connection and keeps it registered until the peer
// goes away. Clients only receive; inbound frames are drained and dropped.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast pushes the event to every connected client. A client that
// cannot be written to is dropped; the caller is never blocked beyond the
// write timeout.
func (h *Hub) Broadcast(ctx context.Context, event string, items []cart.Item) {
	frame, err := json.Marshal(Message{
		ID:        uuid.NewString(),
		Event:     event,
		Timestamp: time.Now(),
		Items:     items,
	})
	if err != nil {
		h.log.Warn("websocket frame marshal failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			h.log.Debug("websocket client dropped", zap.Error(err))
			h.drop(conn)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}
