// internal/hub/client.go
package hub

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Conn is the transport surface the hub needs from a live connection.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one subscribed connection. Outgoing messages go through a
// buffered channel drained by a single write pump, so Publish never blocks
// on a slow connection.
type Client struct {
	hub       *Hub
	productID string
	conn      Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

const sendBufferSize = 16

func newClient(h *Hub, productID string, conn Conn) *Client {
	return &Client{
		hub:       h,
		productID: productID,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
	}
}

func (c *Client) enqueue(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		// Slow consumer; drop the update rather than stall the hub.
		logrus.WithField("product_id", c.productID).Warn("Dropping price update for slow subscriber")
	}
}

func (c *Client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.Close()
			return
		}
	}
}

// Close removes the client from its room and tears down the connection.
// Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.hub.unsubscribe(c)
	c.conn.Close()
}
