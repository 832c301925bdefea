package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/coindeck/coindeck/internal/models"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]bool

	broadcast chan models.Message
	upgrader  websocket.Upgrader
	log       *zap.SugaredLogger
}

// NewHub creates a hub for managing WebSocket connections
func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]bool),
		broadcast:   make(chan models.Message),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Run listens for messages and fans them out to all connected clients. The
// connection set is snapshotted under the lock and written to outside it, so
// a stalled client cannot block registrations or disconnect cleanup.
func (h *Hub) Run() {
	for msg := range h.broadcast {
		h.mu.Lock()
		clients := make([]*websocket.Conn, 0, len(h.connections))
		for client := range h.connections {
			clients = append(clients, client)
		}
		h.mu.Unlock()

		for _, client := range clients {
			if err := client.WriteJSON(msg); err != nil {
				h.log.Warnw("dropping websocket client", "err", err)
				client.Close()
				h.mu.Lock()
				delete(h.connections, client)
				h.mu.Unlock()
			}
		}
	}
}

// Broadcast queues a message for all connected clients
func (h *Hub) Broadcast(msg models.Message) {
	h.broadcast <- msg
}

// HandleWebSocket upgrades an HTTP connection and registers the client
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "err", err)
		return
	}

	h.mu.Lock()
	h.connections[conn] = true
	h.mu.Unlock()

	// Drain reads to detect disconnects
	go func() {
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.connections, conn)
				h.mu.Unlock()
				break
			}
		}
	}()
}
