// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pricepulse/pricepulse-backend/internal/models"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyCancelled    = errors.New("transaction already cancelled")
	ErrCodeExhausted       = errors.New("could not generate a unique redemption code")
)

// DuplicateOrderError reports a replayed purchase event. It carries the
// transaction committed by the first delivery so callers can return the
// prior result instead of a bare error.
type DuplicateOrderError struct {
	Existing *models.Transaction
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("order %s already processed for product %s",
		e.Existing.ShopifyOrderID, e.Existing.ProductID)
}

// AlreadyCashedOutError reports a second cashout attempt against a
// transaction, with the identity and time of the cashout that won.
type AlreadyCashedOutError struct {
	CashoutID   uuid.UUID
	CashedOutAt time.Time
}

func (e *AlreadyCashedOutError) Error() string {
	return fmt.Sprintf("transaction already cashed out at %s (cashout %s)",
		e.CashedOutAt.Format(time.RFC3339), e.CashoutID)
}

// SyncError reports a failure to propagate a committed price to the
// commerce platform. The internal price state is retained; this error is
// surfaced distinctly so callers can decide how fatal it is.
type SyncError struct {
	ShopifyProductID string
	Err              error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("price sync failed for shopify product %s: %v", e.ShopifyProductID, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
