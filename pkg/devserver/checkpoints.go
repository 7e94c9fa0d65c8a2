package devserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/resume/pkg/reactive"
)

// Checkpoint is a full copy of the serializable state, pushed to websocket
// clients.
type Checkpoint struct {
	Type      string                  `json:"type"`
	Reason    string                  `json:"reason"`
	Sequence  uint64                  `json:"seq"`
	Timestamp int64                   `json:"timestamp"`
	Values    map[reactive.NodeID]any `json:"values"`
}

// Checkpoint reasons.
const (
	ReasonConnect  = "connect"
	ReasonDispatch = "dispatch"
	ReasonSchedule = "schedule"
)

// Hub manages the websocket connections of the checkpoint stream.
type Hub struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	sendMu   sync.Mutex // one writer per connection at a time
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // preview server only
			},
		},
	}
}

// HandleWebSocket upgrades the connection, sends first to the new client
// and keeps the connection registered until the client goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request, first func() Checkpoint) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	if first != nil {
		data, err := json.Marshal(first())
		if err == nil {
			h.sendMu.Lock()
			err = conn.WriteMessage(websocket.TextMessage, data)
			h.sendMu.Unlock()
		}
		if err != nil {
			conn.Close()
			return
		}
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends cp to every connected client, dropping clients that fail.
func (h *Hub) Broadcast(cp Checkpoint) {
	data, err := json.Marshal(cp)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			client.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}
