// internal/services/payout_service.go
package services

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/payout"
	"gorm.io/gorm"

	"github.com/pricepulse/pricepulse-backend/internal/config"
	"github.com/pricepulse/pricepulse-backend/internal/models"
)

// PayoutService pays cashout profits out through Stripe and moves the
// cashout from pending to paid. Payouts are executed asynchronously after
// the cashout commits; a failed payout leaves the cashout pending for a
// later retry, it never touches price state.
type PayoutService struct {
	db     *gorm.DB
	config *config.Config
}

func NewPayoutService(db *gorm.DB, config *config.Config) *PayoutService {
	// Initialize Stripe
	stripe.Key = config.Payment.StripeSecretKey

	return &PayoutService{
		db:     db,
		config: config,
	}
}

// ProcessCashoutPayout executes one payout. Designed to run in its own
// goroutine; all failures are logged rather than returned.
func (s *PayoutService) ProcessCashoutPayout(cashout *models.Cashout) {
	if err := s.executePayout(cashout); err != nil {
		logrus.WithError(err).WithField("cashout_id", cashout.ID).
			Error("Cashout payout failed, left pending")
	}
}

// payoutAmountCents converts a profit amount to Stripe's integer cents.
// Rounding, not truncation: amounts like 1.15 sit just below their true
// value in float64 and would otherwise lose a cent.
func payoutAmountCents(profit float64) int64 {
	return int64(math.Round(profit * 100))
}

func (s *PayoutService) executePayout(cashout *models.Cashout) error {
	if cashout.ProfitAmount < s.config.Payment.MinimumPayout {
		logrus.WithFields(logrus.Fields{
			"cashout_id": cashout.ID,
			"profit":     cashout.ProfitAmount,
		}).Info("Profit below minimum payout, cashout left pending")
		return nil
	}

	reference := ""
	if s.config.Payment.StripeSecretKey != "" {
		params := &stripe.PayoutParams{
			Amount:   stripe.Int64(payoutAmountCents(cashout.ProfitAmount)),
			Currency: stripe.String(s.config.Payment.PayoutCurrency),
		}
		params.AddMetadata("cashout_id", cashout.ID.String())
		params.AddMetadata("user_email", cashout.UserEmail)

		p, err := payout.New(params)
		if err != nil {
			return fmt.Errorf("failed to create payout: %w", err)
		}
		reference = p.ID
	}

	if err := s.db.Model(&models.Cashout{}).Where("id = ?", cashout.ID).
		Updates(map[string]interface{}{
			"status":           models.CashoutStatusPaid,
			"payout_reference": reference,
		}).Error; err != nil {
		return fmt.Errorf("failed to mark cashout paid: %w", err)
	}

	return nil
}
