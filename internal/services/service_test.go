// internal/services/service_test.go
package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pricepulse/pricepulse-backend/internal/models"
)

// setupTestDB opens an isolated in-memory store with the same error
// translation the production connection uses, so duplicate-key handling
// behaves the same under test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.Transaction{},
		&models.Cashout{},
		&models.PriceHistoryEntry{},
	))

	return db
}

func createTestProduct(t *testing.T, db *gorm.DB, shopifyID string, basePrice float64) *models.Product {
	t.Helper()

	product := &models.Product{
		ShopifyProductID: shopifyID,
		Name:             "Test Product " + shopifyID,
		BasePrice:        basePrice,
		CurrentPrice:     basePrice,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

type syncCall struct {
	ProductID string
	Price     float64
}

// fakeSyncer records pushed prices and optionally fails every call.
type fakeSyncer struct {
	mu    sync.Mutex
	calls []syncCall
	err   error
}

func (f *fakeSyncer) PushPrice(_ context.Context, shopifyProductID string, price float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, syncCall{ProductID: shopifyProductID, Price: price})
	return f.err
}

func (f *fakeSyncer) Calls() []syncCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]syncCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// fakeBroadcaster records published price updates.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []syncCall
}

func (f *fakeBroadcaster) Publish(productID string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, syncCall{ProductID: productID, Price: price})
}

func (f *fakeBroadcaster) Events() []syncCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]syncCall, len(f.events))
	copy(out, f.events)
	return out
}

// newTestPricingService wires a pricing service against fakes. Payouts are
// disabled; they have their own tests.
func newTestPricingService(t *testing.T, db *gorm.DB) (*PricingService, *fakeSyncer, *fakeBroadcaster) {
	t.Helper()

	syncer := &fakeSyncer{}
	broadcaster := &fakeBroadcaster{}
	ledger := NewLedgerService(db)
	return NewPricingService(db, ledger, syncer, broadcaster, nil), syncer, broadcaster
}
