package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/homesync-core/internal/infrastructure/config"
)

// DefaultSendBuffer is the per-client outbound queue length used when none is configured.
const DefaultSendBuffer = 256

// RequestHandler answers a client message that is not a ping.
type RequestHandler func(c *Client, msg Message)

// Client is one live connection bound to a single tenant.
type Client struct {
	id     string
	tenant string
	conn   *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient wraps conn for tenant. conn may be nil for clients that are
// drained through Messages instead of the socket pumps.
func NewClient(tenant string, conn *websocket.Conn, bufferSize int) *Client {
	if bufferSize < 1 {
		bufferSize = DefaultSendBuffer
	}
	return &Client{
		id:     uuid.NewString(),
		tenant: tenant,
		conn:   conn,
		send:   make(chan []byte, bufferSize),
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string { return c.id }

// Tenant returns the tenant the client is bound to.
func (c *Client) Tenant() string { return c.tenant }

// Messages exposes the outbound queue. It is closed once the client is
// unregistered or evicted.
func (c *Client) Messages() <-chan []byte { return c.send }

// Closed reports whether the client has stopped accepting messages.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// trySend queues data without blocking. It returns false when the client is
// closing or its buffer is full.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close stops delivery. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Start launches the socket pumps. The client unregisters itself from r
// when the socket closes.
func (c *Client) Start(r *Registry, cfg config.WebSocketConfig, onRequest RequestHandler) {
	go c.writePump(cfg)
	go c.readPump(r, cfg, onRequest)
}

func (c *Client) readPump(r *Registry, cfg config.WebSocketConfig, onRequest RequestHandler) {
	defer func() {
		r.Unregister(c)
		c.conn.Close()
	}()

	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait)) //nolint:errcheck // best-effort
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.logger.Warn("websocket read error", "tenant", c.tenant, "client_id", c.id, "error", err)
			} else {
				r.logger.Debug("websocket closed", "tenant", c.tenant, "client_id", c.id, "error", err)
			}
			return
		}
		// Any client traffic counts as liveness.
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait)) //nolint:errcheck // best-effort
		c.handleMessage(data, onRequest)
	}
}

func (c *Client) writePump(cfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	writeWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write error caught below
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil) //nolint:errcheck // best-effort close frame
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // ping error caught below
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage answers pings itself and hands everything else to onRequest.
func (c *Client) handleMessage(data []byte, onRequest RequestHandler) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply("", TypeError, map[string]string{"message": "invalid JSON message"})
		return
	}

	switch {
	case msg.Type == TypePing:
		c.reply(msg.ID, TypePong, nil)
	case onRequest != nil:
		onRequest(c, msg)
	default:
		c.reply(msg.ID, TypeError, map[string]string{"message": "unknown message type: " + msg.Type})
	}
}

// reply queues a non-event message for this client only.
func (c *Client) reply(id, msgType string, payload any) bool {
	data, err := json.Marshal(Message{
		Type:      msgType,
		ID:        id,
		Tenant:    c.tenant,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return false
	}
	return c.trySend(data)
}

// ReplyError queues an error message for this client.
func (c *Client) ReplyError(id, message string) bool {
	return c.reply(id, TypeError, map[string]string{"message": message})
}
