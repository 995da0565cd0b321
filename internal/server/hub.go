package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/quantglass/analyst/models"
)

// Hub fans fresh analysis reports out to connected websocket clients.
type Hub struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger
	metrics  *Metrics

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates a websocket hub.
func NewHub(logger zerolog.Logger, metrics *Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The dashboard frontend is served from another origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		metrics: metrics,
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleWS upgrades the connection and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.metrics.WSClients.Set(float64(count))

	h.logger.Debug().Int("clients", count).Msg("websocket client connected")

	// Drain the read side so close frames are processed; clients never
	// send application data.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

// Broadcast sends a report to every connected client, dropping clients
// whose connection has gone away.
func (h *Hub) Broadcast(report *models.AnalysisReport) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(report); err != nil {
			h.logger.Debug().Err(err).Msg("dropping websocket client")
			h.remove(conn)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	h.metrics.WSClients.Set(0)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[conn] {
		conn.Close()
		delete(h.clients, conn)
	}
	count := len(h.clients)
	h.mu.Unlock()
	h.metrics.WSClients.Set(float64(count))
}
