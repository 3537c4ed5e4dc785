package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frc2554/targetvision/internal/target"
)

const writeTimeout = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ResultMessage is the JSON payload pushed to /api/results clients.
type ResultMessage struct {
	Result    target.DetectionResult `json:"result"`
	Timestamp int64                  `json:"timestamp"`
}

// ResultsHub pushes every published detection result to WebSocket clients.
// It implements telemetry.Publisher.
type ResultsHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

// NewResultsHub creates a hub with no clients.
func NewResultsHub() *ResultsHub {
	return &ResultsHub{clients: make(map[*websocket.Conn]bool)}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *ResultsHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer h.remove(conn)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *ResultsHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish sends result to every client. Clients that fail to receive it are
// dropped; Publish itself only fails when the result cannot be encoded.
func (h *ResultsHub) Publish(result target.DetectionResult) error {
	msg, err := json.Marshal(ResultMessage{
		Result:    result,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
	return nil
}

func (h *ResultsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}
