// internal/handlers/webhook.go
package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pricepulse/pricepulse-backend/internal/services"
	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

const shopifyHmacHeader = "X-Shopify-Hmac-Sha256"

type WebhookHandler struct {
	webhookService *services.WebhookService
}

func NewWebhookHandler(webhookService *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// POST /webhooks/order-created
func (h *WebhookHandler) OrderCreated(c *gin.Context) {
	h.ingest(c, services.WebhookOrderCreated)
}

// POST /webhooks/order-updated
func (h *WebhookHandler) OrderUpdated(c *gin.Context) {
	h.ingest(c, services.WebhookOrderUpdated)
}

// POST /webhooks/order-paid
func (h *WebhookHandler) OrderPaid(c *gin.Context) {
	h.ingest(c, services.WebhookOrderPaid)
}

func (h *WebhookHandler) ingest(c *gin.Context, event services.WebhookEvent) {
	// Signature is computed over the exact bytes Shopify sent, so the
	// body must be read raw before any binding touches it.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read request body", nil)
		return
	}

	ack, err := h.webhookService.Ingest(c.Request.Context(), event, body, c.GetHeader(shopifyHmacHeader))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadSignature):
			utils.UnauthorizedResponse(c, "Invalid webhook signature")
		case errors.Is(err, services.ErrMalformedPayload):
			utils.BadRequestResponse(c, "Malformed webhook payload", nil)
		case errors.Is(err, services.ErrUnknownEvent):
			utils.BadRequestResponse(c, "Unknown webhook event", nil)
		default:
			logrus.WithError(err).WithField("event", event).Error("Webhook ingestion failed")
			utils.InternalErrorResponse(c, "Failed to process webhook")
		}
		return
	}

	utils.SuccessResponse(c, ack)
}
