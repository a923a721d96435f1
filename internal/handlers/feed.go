// internal/handlers/feed.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/pricepulse/pricepulse-backend/internal/hub"
	"github.com/pricepulse/pricepulse-backend/internal/services"
	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

type FeedHandler struct {
	hub            *hub.Hub
	productService *services.ProductService
	upgrader       websocket.Upgrader
}

func NewFeedHandler(h *hub.Hub, productService *services.ProductService) *FeedHandler {
	return &FeedHandler{
		hub:            h,
		productService: productService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS for the feed is handled at the middleware layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// GET /products/:id/feed
func (h *FeedHandler) PriceFeed(c *gin.Context) {
	product, err := h.productService.GetProductByAnyID(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logrus.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	// Send the current price before joining the room so the subscriber
	// has something to render without waiting for the next event. The
	// write pump owns the connection once Subscribe returns.
	snapshot, _ := json.Marshal(hub.PriceUpdate{
		Type:      "price_update",
		ProductID: product.ShopifyProductID,
		Price:     product.CurrentPrice,
	})
	if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
		conn.Close()
		return
	}

	client := h.hub.Subscribe(product.ShopifyProductID, conn)

	// The feed is one-way. Reading serves only to detect the peer
	// closing the connection.
	go func() {
		defer client.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
