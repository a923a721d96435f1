// internal/services/payout_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepulse/pricepulse-backend/internal/config"
	"github.com/pricepulse/pricepulse-backend/internal/models"
)

func TestPayoutAmountCents(t *testing.T) {
	tests := []struct {
		profit float64
		want   int64
	}{
		{0.25, 25},
		{1.15, 115},
		{0.01, 1},
		{10.00, 1000},
		{19.99, 1999},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, payoutAmountCents(tt.profit), "profit %v", tt.profit)
	}
}

func TestExecutePayoutWithoutStripe(t *testing.T) {
	db := setupTestDB(t)
	product := createTestProduct(t, db, "1001", 20.00)

	transaction := &models.Transaction{
		ProductID:      product.ID,
		ShopifyOrderID: "5001",
		UniqueCode:     "abc-defg-hijk",
		UserEmail:      "buyer@example.com",
		PurchasePrice:  20.00,
		Status:         models.TransactionStatusPaid,
	}
	require.NoError(t, db.Create(transaction).Error)

	cashout := &models.Cashout{
		TransactionID: transaction.ID,
		UserEmail:     "buyer@example.com",
		ProfitAmount:  0.25,
		CashoutPrice:  20.25,
		Status:        models.CashoutStatusPending,
	}
	require.NoError(t, db.Create(cashout).Error)

	svc := NewPayoutService(db, &config.Config{
		Payment: config.PaymentConfig{MinimumPayout: 0.01},
	})

	// No Stripe key configured: the cashout still flips to paid, with no
	// external reference.
	require.NoError(t, svc.executePayout(cashout))

	var stored models.Cashout
	require.NoError(t, db.First(&stored, "id = ?", cashout.ID).Error)
	assert.Equal(t, models.CashoutStatusPaid, stored.Status)
	assert.Empty(t, stored.PayoutReference)
}

func TestExecutePayoutBelowMinimum(t *testing.T) {
	db := setupTestDB(t)
	product := createTestProduct(t, db, "1001", 20.00)

	transaction := &models.Transaction{
		ProductID:      product.ID,
		ShopifyOrderID: "5001",
		UniqueCode:     "abc-defg-hijk",
		UserEmail:      "buyer@example.com",
		PurchasePrice:  20.00,
		Status:         models.TransactionStatusPaid,
	}
	require.NoError(t, db.Create(transaction).Error)

	cashout := &models.Cashout{
		TransactionID: transaction.ID,
		UserEmail:     "buyer@example.com",
		ProfitAmount:  0.00,
		CashoutPrice:  20.00,
		Status:        models.CashoutStatusPending,
	}
	require.NoError(t, db.Create(cashout).Error)

	svc := NewPayoutService(db, &config.Config{
		Payment: config.PaymentConfig{MinimumPayout: 0.01},
	})

	require.NoError(t, svc.executePayout(cashout))

	// Below the minimum the cashout stays pending.
	var stored models.Cashout
	require.NoError(t, db.First(&stored, "id = ?", cashout.ID).Error)
	assert.Equal(t, models.CashoutStatusPending, stored.Status)
}
