package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is a message pushed to WebSocket clients.
type Event struct {
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload,omitempty"`
}

// Hub manages WebSocket connections and broadcasts server events to all
// connected clients.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	eventCh chan Event
	done    chan struct{}
}

// NewHub creates a hub. Call Run to start the broadcast loop.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
		eventCh: make(chan Event, 256),
		done:    make(chan struct{}),
	}
}

// Broadcast queues an event for delivery to all clients. Events are
// dropped when the queue is full rather than blocking the caller.
func (h *Hub) Broadcast(eventType string, payload any) {
	evt := Event{Type: eventType, Time: time.Now(), Payload: payload}
	select {
	case h.eventCh <- evt:
	default:
		h.logger.Warn("Event queue full, dropping event", "type", eventType)
	}
}

// Run delivers queued events until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case evt := <-h.eventCh:
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Close stops the broadcast loop and disconnects all clients.
func (h *Hub) Close() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// HandleWebSocket upgrades HTTP connections to WebSocket and holds them
// open until the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Messages from clients carry no commands yet; reading drains pings
	// and detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
