// internal/models/cashout.go
package models

import (
	"github.com/google/uuid"
)

// Cashout redeems one transaction's code for the accumulated profit. The
// unique index on transaction_id enforces at most one cashout per
// transaction at the store level.
type Cashout struct {
	BaseModel
	TransactionID   uuid.UUID     `json:"transaction_id" gorm:"type:uuid;not null;uniqueIndex"`
	UserEmail       string        `json:"user_email" gorm:"size:255;not null"`
	ProfitAmount    float64       `json:"profit_amount" gorm:"type:decimal(10,2);not null"`
	CashoutPrice    float64       `json:"cashout_price" gorm:"type:decimal(10,2);not null"`
	Status          CashoutStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PayoutReference string        `json:"payout_reference,omitempty" gorm:"size:255"`

	// Relationships
	Transaction *Transaction `json:"transaction,omitempty" gorm:"foreignKey:TransactionID"`
}
