// internal/services/price_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pricepulse/pricepulse-backend/internal/models"
	"github.com/pricepulse/pricepulse-backend/internal/pricing"
)

// PriceSyncer pushes a committed price to the commerce platform.
type PriceSyncer interface {
	PushPrice(ctx context.Context, shopifyProductID string, price float64) error
}

// Broadcaster fans a price change out to live subscribers.
type Broadcaster interface {
	Publish(productID string, price float64)
}

// PricingService orchestrates every counter-affecting event: it mutates the
// product counters, recomputes the price, and appends the history entry in
// one store transaction, then propagates the committed price externally and
// to live feeds. The internal ledger is the source of truth; a failed
// external sync is surfaced as a SyncError but never rolls the ledger back.
type PricingService struct {
	db          *gorm.DB
	ledger      *LedgerService
	syncer      PriceSyncer
	broadcaster Broadcaster
	payouts     *PayoutService
}

type PurchaseResult struct {
	Transaction *models.Transaction `json:"transaction"`
	NewPrice    float64             `json:"new_price"`
	Duplicate   bool                `json:"duplicate,omitempty"`
}

type CashoutResult struct {
	Cashout  *models.Cashout `json:"cashout"`
	NewPrice float64         `json:"new_price"`
}

func NewPricingService(db *gorm.DB, ledger *LedgerService, syncer PriceSyncer, broadcaster Broadcaster, payouts *PayoutService) *PricingService {
	return &PricingService{
		db:          db,
		ledger:      ledger,
		syncer:      syncer,
		broadcaster: broadcaster,
		payouts:     payouts,
	}
}

// ProcessPurchase applies one purchase event. Replays of the same
// (shopify order, product) pair return the originally committed
// transaction with Duplicate set and mutate nothing. On a sync failure the
// result still carries the committed state alongside the SyncError.
func (s *PricingService) ProcessPurchase(ctx context.Context, shopifyProductID, shopifyOrderID, userEmail string, purchasePrice float64) (*PurchaseResult, error) {
	product, err := s.getByShopifyID(shopifyProductID)
	if err != nil {
		return nil, err
	}

	// Cheap replay check; the unique index at insert time is what actually
	// closes the race.
	if existing, err := s.ledger.FindByShopifyOrder(shopifyOrderID, product.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return &PurchaseResult{Transaction: existing, NewPrice: product.CurrentPrice, Duplicate: true}, nil
	}

	transaction := &models.Transaction{
		ProductID:      product.ID,
		ShopifyOrderID: shopifyOrderID,
		UserEmail:      userEmail,
		PurchasePrice:  purchasePrice,
		Status:         models.TransactionStatusActive,
	}

	var newPrice float64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.ledger.CreateTransaction(tx, transaction); err != nil {
			return err
		}
		price, err := s.applyEvent(tx, product.ID, models.PriceActionPurchase)
		newPrice = price
		return err
	})

	var dup *DuplicateOrderError
	if errors.As(err, &dup) {
		return &PurchaseResult{Transaction: dup.Existing, NewPrice: product.CurrentPrice, Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}

	result := &PurchaseResult{Transaction: transaction, NewPrice: newPrice}
	return result, s.propagate(ctx, product.ShopifyProductID, newPrice)
}

// ProcessCashout redeems a code for the accumulated profit: it records the
// cashout, decrements the price by one step, and marks the transaction
// paid. Profit and cashout price are taken from the pre-decrement price.
func (s *PricingService) ProcessCashout(ctx context.Context, code, userEmail string) (*CashoutResult, error) {
	transaction, err := s.ledger.FindByCode(code, userEmail)
	if err != nil {
		return nil, err
	}

	// Pre-check for prior cashouts; the unique index on transaction_id is
	// authoritative under concurrency.
	if existing, err := s.ledger.FindCashoutByTransaction(transaction.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &AlreadyCashedOutError{CashoutID: existing.ID, CashedOutAt: existing.CreatedAt}
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", transaction.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	cashout := &models.Cashout{
		TransactionID: transaction.ID,
		UserEmail:     userEmail,
		ProfitAmount:  pricing.Profit(product.CurrentPrice, transaction.PurchasePrice),
		CashoutPrice:  product.CurrentPrice,
		Status:        models.CashoutStatusPending,
	}

	var newPrice float64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.ledger.CreateCashout(tx, cashout); err != nil {
			return err
		}
		price, err := s.applyEvent(tx, product.ID, models.PriceActionCashout)
		if err != nil {
			return err
		}
		newPrice = price
		return tx.Model(&models.Transaction{}).Where("id = ?", transaction.ID).
			Update("status", models.TransactionStatusPaid).Error
	})
	if err != nil {
		return nil, err
	}

	if s.payouts != nil {
		go s.payouts.ProcessCashoutPayout(cashout)
	}

	result := &CashoutResult{Cashout: cashout, NewPrice: newPrice}
	return result, s.propagate(ctx, product.ShopifyProductID, newPrice)
}

// CancelPurchase reverses a processed purchase: the transaction flips to
// cancelled, the purchase counter steps back down, and a cancel entry is
// appended to the history. The original purchase entry is kept.
func (s *PricingService) CancelPurchase(ctx context.Context, shopifyOrderID, shopifyProductID string) (float64, error) {
	product, err := s.getByShopifyID(shopifyProductID)
	if err != nil {
		return 0, err
	}

	transaction, err := s.ledger.FindByShopifyOrder(shopifyOrderID, product.ID)
	if err != nil {
		return 0, err
	}
	if transaction == nil {
		return 0, ErrTransactionNotFound
	}

	var newPrice float64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Guarded transition so two concurrent cancellations decrement
		// exactly once.
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status <> ?", transaction.ID, models.TransactionStatusCancelled).
			Update("status", models.TransactionStatusCancelled)
		if res.Error != nil {
			return fmt.Errorf("failed to cancel transaction: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyCancelled
		}

		price, err := s.applyEvent(tx, product.ID, models.PriceActionCancel)
		newPrice = price
		return err
	})
	if err != nil {
		return 0, err
	}

	return newPrice, s.propagate(ctx, product.ShopifyProductID, newPrice)
}

// MarkOrderPaid records a payment confirmation for a purchase.
func (s *PricingService) MarkOrderPaid(shopifyOrderID, shopifyProductID string) error {
	product, err := s.getByShopifyID(shopifyProductID)
	if err != nil {
		return err
	}

	transaction, err := s.ledger.FindByShopifyOrder(shopifyOrderID, product.ID)
	if err != nil {
		return err
	}
	if transaction == nil {
		return ErrTransactionNotFound
	}

	return s.db.Model(&models.Transaction{}).Where("id = ?", transaction.ID).
		Update("status", models.TransactionStatusPaid).Error
}

// applyEvent is the single counter mutation path. The guarded UPDATE both
// moves the counter atomically and takes the product's row lock, so the
// recompute, price write, and history append that follow are serialized
// per product until the surrounding transaction commits. Events on other
// products never contend.
func (s *PricingService) applyEvent(tx *gorm.DB, productID uuid.UUID, action models.PriceAction) (float64, error) {
	query := tx.Model(&models.Product{}).Where("id = ?", productID)
	var column string
	var expr interface{}

	switch action {
	case models.PriceActionPurchase:
		column, expr = "total_purchases", gorm.Expr("total_purchases + ?", 1)
	case models.PriceActionCashout:
		column, expr = "total_cashouts", gorm.Expr("total_cashouts + ?", 1)
	case models.PriceActionCancel:
		column, expr = "total_purchases", gorm.Expr("total_purchases - ?", 1)
		query = query.Where("total_purchases > 0")
	default:
		return 0, fmt.Errorf("unknown price action %q", action)
	}

	res := query.UpdateColumn(column, expr)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update counter: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).
			Count(&count).Error; err != nil {
			return 0, fmt.Errorf("database error: %w", err)
		}
		if count == 0 {
			return 0, ErrProductNotFound
		}
		return 0, errors.New("purchase counter already at zero")
	}

	var product models.Product
	if err := tx.First(&product, "id = ?", productID).Error; err != nil {
		return 0, fmt.Errorf("failed to reload product: %w", err)
	}

	newPrice := pricing.CurrentPrice(product.BasePrice, product.TotalPurchases, product.TotalCashouts)
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).
		UpdateColumn("current_price", newPrice).Error; err != nil {
		return 0, fmt.Errorf("failed to persist price: %w", err)
	}

	entry := &models.PriceHistoryEntry{
		ProductID:      product.ID,
		Price:          newPrice,
		ActionType:     action,
		TotalPurchases: product.TotalPurchases,
		TotalCashouts:  product.TotalCashouts,
	}
	if err := tx.Create(entry).Error; err != nil {
		return 0, fmt.Errorf("failed to append price history: %w", err)
	}

	return newPrice, nil
}

// propagate runs outside the store transaction so network-bound calls
// never hold the product's row lock. Broadcast is fire and forget; sync
// failure comes back for the caller to judge.
func (s *PricingService) propagate(ctx context.Context, shopifyProductID string, price float64) error {
	if s.broadcaster != nil {
		s.broadcaster.Publish(shopifyProductID, price)
	}

	if s.syncer == nil {
		return nil
	}
	if err := s.syncer.PushPrice(ctx, shopifyProductID, price); err != nil {
		logrus.WithError(err).WithField("shopify_product_id", shopifyProductID).
			Error("Price sync failed, internal price retained")
		return err
	}
	return nil
}

func (s *PricingService) getByShopifyID(shopifyProductID string) (*models.Product, error) {
	var product models.Product
	err := s.db.Where("shopify_product_id = ?", shopifyProductID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}
