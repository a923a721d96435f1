// internal/services/ledger_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricepulse/pricepulse-backend/internal/models"
	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

// LedgerService owns transaction and cashout records and the uniqueness
// guarantees around them: one transaction per (shopify order, product), one
// cashout per transaction, globally unique redemption codes. The store's
// unique indexes are authoritative; pre-checks only shortcut the common
// case.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// FindByShopifyOrder is the idempotency gate for purchase events. A nil
// transaction with nil error means the event has not been seen.
func (s *LedgerService) FindByShopifyOrder(shopifyOrderID string, productID uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Where("shopify_order_id = ? AND product_id = ?", shopifyOrderID, productID).
		First(&transaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &transaction, nil
}

// FindByCode authorizes a cashout by possession of the redemption code plus
// a matching email.
func (s *LedgerService) FindByCode(code, email string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Where("unique_code = ? AND user_email = ?", code, email).
		First(&transaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &transaction, nil
}

// FindCashoutByTransaction returns the existing cashout for a transaction,
// or nil if it has not been cashed out.
func (s *LedgerService) FindCashoutByTransaction(transactionID uuid.UUID) (*models.Cashout, error) {
	var cashout models.Cashout
	err := s.db.Where("transaction_id = ?", transactionID).First(&cashout).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &cashout, nil
}

const maxCodeAttempts = 5

// CreateTransaction inserts a purchase record inside the caller's store
// transaction, generating the redemption code when none is set. A duplicate
// (order, product) insert resolves to DuplicateOrderError with the row that
// won; a redemption-code collision regenerates the code and retries,
// bounded by maxCodeAttempts. Each attempt runs in a savepoint so a
// rejected insert does not poison the surrounding transaction.
func (s *LedgerService) CreateTransaction(tx *gorm.DB, transaction *models.Transaction) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if transaction.UniqueCode == "" {
			code, err := utils.GenerateRedemptionCode()
			if err != nil {
				return fmt.Errorf("failed to generate code: %w", err)
			}
			transaction.UniqueCode = code
		}

		err := tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(transaction).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		// Figure out which constraint fired.
		var existing models.Transaction
		ferr := tx.Where("shopify_order_id = ? AND product_id = ?",
			transaction.ShopifyOrderID, transaction.ProductID).First(&existing).Error
		if ferr == nil {
			return &DuplicateOrderError{Existing: &existing}
		}
		if !errors.Is(ferr, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", ferr)
		}

		// Code collision; regenerate and retry.
		transaction.UniqueCode = ""
	}
	return ErrCodeExhausted
}

// CreateCashout inserts a cashout inside the caller's store transaction,
// resolving a duplicate transaction_id to AlreadyCashedOutError carrying
// the winner's identity and timestamp.
func (s *LedgerService) CreateCashout(tx *gorm.DB, cashout *models.Cashout) error {
	err := tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(cashout).Error
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("failed to create cashout: %w", err)
	}

	var existing models.Cashout
	if ferr := tx.Where("transaction_id = ?", cashout.TransactionID).
		First(&existing).Error; ferr != nil {
		return fmt.Errorf("database error: %w", ferr)
	}
	return &AlreadyCashedOutError{CashoutID: existing.ID, CashedOutAt: existing.CreatedAt}
}

// ListTransactions returns a page of transactions for the admin API.
func (s *LedgerService) ListTransactions(params utils.PaginationParams) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{}).Preload("Product").Preload("Cashout")

	if params.Search != "" {
		query = query.Where("user_email = ? OR shopify_order_id = ?", params.Search, params.Search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	allowedSortFields := []string{"created_at", "purchase_price", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return transactions, total, nil
}
