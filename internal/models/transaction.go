// internal/models/transaction.go
package models

import (
	"github.com/google/uuid"
)

// Transaction records one purchase of one product within one Shopify order.
// The (shopify_order_id, product_id) composite unique index is the
// idempotency key for purchase events; unique_code is the redemption token
// handed to the buyer for a later cashout.
type Transaction struct {
	BaseModel
	ProductID      uuid.UUID         `json:"product_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_transactions_order_product"`
	ShopifyOrderID string            `json:"shopify_order_id" gorm:"size:64;not null;uniqueIndex:idx_transactions_order_product"`
	UniqueCode     string            `json:"unique_code" gorm:"size:16;not null;uniqueIndex"`
	UserEmail      string            `json:"user_email" gorm:"size:255;not null;index"`
	PurchasePrice  float64           `json:"purchase_price" gorm:"type:decimal(10,2);not null"`
	Status         TransactionStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Cashout *Cashout `json:"cashout,omitempty" gorm:"foreignKey:TransactionID"`
}
