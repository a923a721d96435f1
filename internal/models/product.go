// internal/models/product.go
package models

import (
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	ShopifyProductID string         `json:"shopify_product_id" gorm:"size:64;not null;uniqueIndex"`
	Name             string         `json:"name" gorm:"size:255;not null"`
	Tags             pq.StringArray `json:"tags" gorm:"type:text[]"`
	BasePrice        float64        `json:"base_price" gorm:"type:decimal(10,2);not null"`
	CurrentPrice     float64        `json:"current_price" gorm:"type:decimal(10,2);not null"`
	TotalPurchases   int64          `json:"total_purchases" gorm:"not null;default:0"`
	TotalCashouts    int64          `json:"total_cashouts" gorm:"not null;default:0"`

	// Relationships
	Transactions []Transaction       `json:"transactions,omitempty" gorm:"foreignKey:ProductID"`
	PriceHistory []PriceHistoryEntry `json:"price_history,omitempty" gorm:"foreignKey:ProductID"`
}
