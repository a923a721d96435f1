// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the id client-side so records also work on stores
// without a server-side uuid default (the sqlite test driver in particular).
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Enums
type TransactionStatus string

const (
	TransactionStatusActive    TransactionStatus = "active"
	TransactionStatusPaid      TransactionStatus = "paid"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

type CashoutStatus string

const (
	CashoutStatusPending CashoutStatus = "pending"
	CashoutStatusPaid    CashoutStatus = "paid"
)

type PriceAction string

const (
	PriceActionPurchase PriceAction = "purchase"
	PriceActionCashout  PriceAction = "cashout"
	PriceActionCancel   PriceAction = "cancel"
)
