package relay

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dronelink-cloud/internal/auth"
	"dronelink-cloud/internal/observability/metrics"
)

// Client is one live relay connection bound to an authenticated identity.
type Client struct {
	id       string
	identity auth.Identity
	conn     *websocket.Conn
	send     chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(id string, identity auth.Identity, conn *websocket.Conn, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Client{
		id:       id,
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
}

// ID returns the opaque connection id.
func (c *Client) ID() string {
	return c.id
}

// Identity returns the identity bound at admission.
func (c *Client) Identity() auth.Identity {
	return c.identity
}

// Enqueue hands a payload to the client's outbound buffer without blocking.
// A full buffer drops the payload for this recipient only; a closed client
// is skipped. Fan-out can race with teardown, hence the closed guard.
func (c *Client) Enqueue(payload []byte) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		metrics.IncDropped(metrics.DropReasonSlowClient)
		return false
	}
}

// closeSend marks the client closed and releases the write pump.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump consumes inbound frames until the transport closes, then tears
// down membership. Frames are handled in arrival order; per-connection FIFO
// is the only ordering the relay promises.
func (c *Client) readPump(dispatcher *Dispatcher, cfg Config, logger *log.Logger) {
	defer func() {
		dispatcher.Disconnect(c)
		c.closeSend()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(cfg.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait()))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Printf("relay: read error from %s: %v", c.id, err)
			}
			return
		}
		dispatcher.HandleFrame(c, frame)
	}
}

// writePump drains the outbound buffer and keeps the connection alive with
// pings. It exits when the buffer is closed or a write fails.
func (c *Client) writePump(cfg Config) {
	ticker := time.NewTicker(cfg.PingInterval())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait()))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
