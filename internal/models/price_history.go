// internal/models/price_history.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PriceHistoryEntry is an append-only audit record of one committed price
// change, with the counter values at the time. Entries are never updated
// or deleted, so it does not embed BaseModel.
type PriceHistoryEntry struct {
	ID             uuid.UUID   `json:"id" gorm:"type:uuid;primary_key"`
	ProductID      uuid.UUID   `json:"product_id" gorm:"type:uuid;not null;index"`
	Price          float64     `json:"price" gorm:"type:decimal(10,2);not null"`
	ActionType     PriceAction `json:"action_type" gorm:"type:varchar(20);not null"`
	TotalPurchases int64       `json:"total_purchases" gorm:"not null"`
	TotalCashouts  int64       `json:"total_cashouts" gorm:"not null"`
	CreatedAt      time.Time   `json:"timestamp" gorm:"index"`
}

func (e *PriceHistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (PriceHistoryEntry) TableName() string {
	return "price_history"
}
