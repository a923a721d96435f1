// internal/services/webhook_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

// Webhook event kinds, matching the subscribed Shopify topics.
type WebhookEvent string

const (
	WebhookOrderCreated WebhookEvent = "order-created"
	WebhookOrderUpdated WebhookEvent = "order-updated"
	WebhookOrderPaid    WebhookEvent = "order-paid"
)

// Per-item outcomes reported in the acknowledgment.
const (
	ItemStatusProcessed        = "processed"
	ItemStatusUpdated          = "updated"
	ItemStatusDuplicate        = "duplicate"
	ItemStatusProductNotFound  = "product_not_found"
	ItemStatusAlreadyCancelled = "already_cancelled"
	ItemStatusCancelled        = "cancelled"
	ItemStatusPaid             = "paid"
	ItemStatusTxNotFound       = "transaction_not_found"
	ItemStatusSyncFailed       = "sync_failed"
	ItemStatusFailed           = "failed"
)

var (
	ErrBadSignature     = errors.New("webhook signature mismatch")
	ErrMalformedPayload = errors.New("malformed webhook payload")
	ErrUnknownEvent     = errors.New("unknown webhook event")
)

type WebhookItemResult struct {
	ProductID  string  `json:"product_id"`
	Status     string  `json:"status"`
	UniqueCode string  `json:"unique_code,omitempty"`
	Price      float64 `json:"price,omitempty"`
}

type WebhookAck struct {
	Event   WebhookEvent        `json:"event"`
	OrderID string              `json:"order_id"`
	Results []WebhookItemResult `json:"results"`
}

type orderLineItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type orderPayload struct {
	ID          int64           `json:"id"`
	Email       string          `json:"email"`
	CancelledAt *time.Time      `json:"cancelled_at"`
	LineItems   []orderLineItem `json:"line_items"`
}

// WebhookService runs inbound commerce events through the ingestion gates:
// signature verification over the exact bytes received, payload decoding,
// then dispatch to the pricing orchestrator. Rejections at a gate are
// terminal; past the gates each line item is processed independently and
// reported in the acknowledgment, so one bad item never blocks the rest.
type WebhookService struct {
	pricing *PricingService
	secret  string
}

func NewWebhookService(pricing *PricingService, secret string) *WebhookService {
	return &WebhookService{pricing: pricing, secret: secret}
}

// Ingest moves one delivery through the state machine and returns the
// acknowledgment to relay. ErrBadSignature and ErrMalformedPayload are the
// two terminal rejections. Per-item external sync is bounded by the sync
// adapter's timeout, which keeps the acknowledgment latency bounded too.
func (s *WebhookService) Ingest(ctx context.Context, event WebhookEvent, body []byte, signature string) (*WebhookAck, error) {
	if !utils.VerifySignature(body, signature, s.secret) {
		return nil, ErrBadSignature
	}

	var order orderPayload
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, ErrMalformedPayload
	}

	orderID := strconv.FormatInt(order.ID, 10)
	ack := &WebhookAck{Event: event, OrderID: orderID}

	switch event {
	case WebhookOrderCreated:
		ack.Results = s.dispatchCreated(ctx, orderID, &order)
	case WebhookOrderUpdated:
		ack.Results = s.dispatchUpdated(ctx, orderID, &order)
	case WebhookOrderPaid:
		ack.Results = s.dispatchPaid(orderID, &order)
	default:
		return nil, ErrUnknownEvent
	}

	return ack, nil
}

func (s *WebhookService) dispatchCreated(ctx context.Context, orderID string, order *orderPayload) []WebhookItemResult {
	results := make([]WebhookItemResult, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		productID := strconv.FormatInt(item.ProductID, 10)
		purchasePrice, err := strconv.ParseFloat(item.Price, 64)
		if err != nil {
			results = append(results, WebhookItemResult{ProductID: productID, Status: ItemStatusFailed})
			continue
		}

		res, err := s.pricing.ProcessPurchase(ctx, productID, orderID, order.Email, purchasePrice)
		results = append(results, s.purchaseOutcome(productID, res, err))
	}
	return results
}

func (s *WebhookService) purchaseOutcome(productID string, res *PurchaseResult, err error) WebhookItemResult {
	var syncErr *SyncError
	switch {
	case errors.Is(err, ErrProductNotFound):
		return WebhookItemResult{ProductID: productID, Status: ItemStatusProductNotFound}
	case errors.As(err, &syncErr):
		// Committed internally; only the outward propagation failed.
		return WebhookItemResult{ProductID: productID, Status: ItemStatusSyncFailed, Price: res.NewPrice}
	case err != nil:
		logrus.WithError(err).WithField("product_id", productID).Error("Webhook purchase failed")
		return WebhookItemResult{ProductID: productID, Status: ItemStatusFailed}
	case res.Duplicate:
		return WebhookItemResult{ProductID: productID, Status: ItemStatusDuplicate}
	default:
		return WebhookItemResult{
			ProductID:  productID,
			Status:     ItemStatusProcessed,
			UniqueCode: res.Transaction.UniqueCode,
			Price:      res.NewPrice,
		}
	}
}

func (s *WebhookService) dispatchUpdated(ctx context.Context, orderID string, order *orderPayload) []WebhookItemResult {
	// Updates that are not cancellations are acknowledged without action.
	if order.CancelledAt == nil {
		return []WebhookItemResult{{Status: ItemStatusUpdated}}
	}

	results := make([]WebhookItemResult, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		productID := strconv.FormatInt(item.ProductID, 10)

		newPrice, err := s.pricing.CancelPurchase(ctx, orderID, productID)
		var syncErr *SyncError
		switch {
		case errors.Is(err, ErrTransactionNotFound), errors.Is(err, ErrAlreadyCancelled):
			results = append(results, WebhookItemResult{ProductID: productID, Status: ItemStatusAlreadyCancelled})
		case errors.Is(err, ErrProductNotFound):
			results = append(results, WebhookItemResult{ProductID: productID, Status: ItemStatusProductNotFound})
		case errors.As(err, &syncErr):
			results = append(results, WebhookItemResult{ProductID: productID, Status: ItemStatusSyncFailed, Price: newPrice})
		case err != nil:
			logrus.WithError(err).WithField("product_id", productID).Error("Webhook cancellation failed")
			results = append(results, WebhookItemResult{ProductID: productID, Status: ItemStatusFailed})
		default:
			results = append(results, WebhookItemResult{ProductID: productID, Status: ItemStatusCancelled, Price: newPrice})
		}
	}
	return results
}

func (s *WebhookService) dispatchPaid(orderID string, order *orderPayload) []WebhookItemResult {
	results := make([]WebhookItemResult, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		productID := strconv.FormatInt(item.ProductID, 10)

		err := s.pricing.MarkOrderPaid(orderID, productID)
		switch {
		case errors.Is(err, ErrTransactionNotFound), errors.Is(err, ErrProductNotFound):
			results = append(results, WebhookItemResult{ProductID: productID, Status: ItemStatusTxNotFound})
		case err != nil:
			logrus.WithError(err).WithField("product_id", productID).Error("Webhook paid update failed")
			results = append(results, WebhookItemResult{ProductID: productID, Status: ItemStatusFailed})
		default:
			results = append(results, WebhookItemResult{ProductID: productID, Status: ItemStatusPaid})
		}
	}
	return results
}
