// Package realtime accepts WebSocket connections that business code can
// later push events to. Connections are tracked for connect/disconnect
// logging; the server never reads application messages from clients.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("notifier closed")

const (
	writeTimeout = 10 * time.Second
	readLimit    = 4096
)

// Event is a message pushed to every connected client
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// connection is one accepted WebSocket client
type connection struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *connection) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Notifier owns the set of live real-time connections
type Notifier struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	conns  map[string]*connection
	closed bool
}

// NewNotifier creates a notifier that accepts connections from any origin
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{
		logger: logger.Named("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		conns: make(map[string]*connection),
	}
}

// Handler adapts HandleConnection to gin
func (n *Notifier) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		n.HandleConnection(c.Writer, c.Request)
	}
}

// HandleConnection upgrades the request and tracks the connection until it closes
func (n *Notifier) HandleConnection(w http.ResponseWriter, r *http.Request) {
	n.mu.RLock()
	closed := n.closed
	n.mu.RUnlock()
	if closed {
		http.Error(w, "realtime notifier is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error
		n.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}
	conn.SetReadLimit(readLimit)

	client := &connection{id: uuid.New().String(), conn: conn}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		_ = conn.Close()
		return
	}
	n.conns[client.id] = client
	n.mu.Unlock()

	n.logger.Info("Realtime client connected", zap.String("connection_id", client.id))

	go n.readLoop(client)
}

// readLoop drains client frames so control messages are processed and
// returns when the peer goes away.
func (n *Notifier) readLoop(client *connection) {
	defer func() { _ = client.conn.Close() }()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				n.logger.Debug("Realtime read error",
					zap.String("connection_id", client.id),
					zap.Error(err))
			}
			break
		}
	}

	n.mu.Lock()
	if existing, ok := n.conns[client.id]; ok && existing == client {
		delete(n.conns, client.id)
	}
	n.mu.Unlock()

	n.logger.Info("Realtime client disconnected", zap.String("connection_id", client.id))
}

// Broadcast sends ev to every connected client and returns how many
// received it. Failed writes are logged; the reader loop cleans them up.
func (n *Notifier) Broadcast(ctx context.Context, ev Event) (int, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0, err
	}

	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return 0, ErrClosed
	}
	targets := make([]*connection, 0, len(n.conns))
	for _, c := range n.conns {
		targets = append(targets, c)
	}
	n.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := c.write(data); err != nil {
			n.logger.Warn("Failed to deliver realtime event",
				zap.String("connection_id", c.id),
				zap.String("type", ev.Type),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// ConnectionCount returns the number of live connections
func (n *Notifier) ConnectionCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.conns)
}

// Close closes all connections and refuses new ones
func (n *Notifier) Close() {
	n.mu.Lock()
	n.closed = true
	conns := n.conns
	n.conns = make(map[string]*connection)
	n.mu.Unlock()

	for _, c := range conns {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	}
}
