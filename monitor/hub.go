// Package monitor pushes analysis results to connected dashboards over
// WebSocket.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ringpulse/insight"
)

// Message types sent to clients.
const (
	TypeReport    = "report"
	TypeHeartbeat = "heartbeat"
)

// Message is the envelope every broadcast uses.
type Message struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	clientSendBuffer  = 64
	broadcastBuffer   = 256
	maxInboundMessage = 512
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans broadcasts out to every connected client. Slow clients are
// dropped rather than allowed to stall the rest.
type Hub struct {
	logger     *zap.Logger
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	upgrader   websocket.Upgrader
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.RWMutex
}

// NewHub builds a hub. A nil logger disables logging.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		logger:     logger,
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Dashboards are served from the same host; local tooling
				// connects from arbitrary origins.
				return true
			},
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	defer h.logger.Info("monitor hub stopped")

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", zap.Int("total", total))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", zap.Int("total", total))

		case payload := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	h.cancel()
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastReport pushes an analysis report to every client.
func (h *Hub) BroadcastReport(report *insight.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(Message{
		Type:      TypeReport,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- payload:
		return nil
	default:
		return fmt.Errorf("monitor: broadcast queue full, report dropped")
	}
}

// HandleWebSocket upgrades an HTTP request and attaches the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound traffic; clients are listeners. It exists to
// process control frames and detect disconnects.
func (c *client) readPump(h *Hub) {
	defer func() {
		// After Stop the hub loop is gone and nobody drains unregister.
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxInboundMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
