// internal/hub/hub.go
package hub

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// PriceUpdate is the message fanned out to every connection subscribed to a
// product's live feed.
type PriceUpdate struct {
	Type      string  `json:"type"`
	ProductID string  `json:"productId"`
	Price     float64 `json:"price"`
}

// Hub maps product ids to the set of currently subscribed connections.
// State is process-lifetime only; subscriptions do not survive a restart.
// In a multi-instance deployment each process only sees its own
// connections, so this would need to move behind a shared pub/sub layer.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Subscribe adds a connection to a product's room and starts its write
// pump. The returned client must be Closed when the connection ends.
func (h *Hub) Subscribe(productID string, conn Conn) *Client {
	client := newClient(h, productID, conn)

	h.mu.Lock()
	room, ok := h.rooms[productID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[productID] = room
	}
	room[client] = struct{}{}
	h.mu.Unlock()

	go client.writePump()
	return client
}

func (h *Hub) unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.productID]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.productID)
	}
}

// Publish sends a price update to every connection currently subscribed to
// the product. Delivery is fire and forget: no acknowledgment, no retry,
// and connections that cannot keep up or disconnect mid-send are skipped.
func (h *Hub) Publish(productID string, price float64) {
	msg, err := json.Marshal(PriceUpdate{
		Type:      "price_update",
		ProductID: productID,
		Price:     price,
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to encode price update")
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[productID]))
	for client := range h.rooms[productID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.enqueue(msg)
	}
}

// Subscribers reports the number of live connections for a product.
func (h *Hub) Subscribers(productID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[productID])
}
