// internal/services/product_service_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

func TestCreateProduct(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, nil)

	product, err := svc.CreateProduct(&CreateProductRequest{
		ShopifyProductID: "1001",
		Name:             "Limited Print",
		BasePrice:        20.00,
		Tags:             []string{"print", "limited"},
	})
	require.NoError(t, err)
	assert.Equal(t, 20.00, product.CurrentPrice)
	assert.Equal(t, int64(0), product.TotalPurchases)

	// Same Shopify id again is rejected.
	_, err = svc.CreateProduct(&CreateProductRequest{
		ShopifyProductID: "1001",
		Name:             "Other",
		BasePrice:        5.00,
	})
	assert.Error(t, err)
}

func TestCreateProductValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, nil)

	_, err := svc.CreateProduct(&CreateProductRequest{Name: "No Shopify ID", BasePrice: 1})
	assert.Error(t, err)
}

func TestGetProductByAnyID(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, nil)
	product := createTestProduct(t, db, "1001", 20.00)

	byShopify, err := svc.GetProductByAnyID("1001")
	require.NoError(t, err)
	assert.Equal(t, product.ID, byShopify.ID)

	byUUID, err := svc.GetProductByAnyID(product.ID.String())
	require.NoError(t, err)
	assert.Equal(t, product.ID, byUUID.ID)

	_, err = svc.GetProductByAnyID("not-an-id")
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestUpdateProduct(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, nil)
	product := createTestProduct(t, db, "1001", 20.00)

	newBase := 25.00
	updated, err := svc.UpdateProduct(product.ID, &UpdateProductRequest{
		Name:      "Renamed",
		BasePrice: &newBase,
		Tags:      []string{"rare"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 25.00, updated.BasePrice)

	// An empty update is a no-op, not an error.
	same, err := svc.UpdateProduct(product.ID, &UpdateProductRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", same.Name)
}

func TestListProductsSearch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, nil)
	createTestProduct(t, db, "1001", 20.00)
	createTestProduct(t, db, "1002", 5.00)

	all, total, err := svc.ListProducts(utils.PaginationParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	matched, total, err := svc.ListProducts(utils.PaginationParams{Page: 1, Limit: 10, Search: "1002"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, matched, 1)
	assert.Equal(t, "1002", matched[0].ShopifyProductID)
}

func TestSyncCatalog(t *testing.T) {
	db := setupTestDB(t)
	createTestProduct(t, db, "1001", 20.00)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// One existing product, one new, one without variants.
		fmt.Fprint(w, `{"products":[`+
			`{"id":1001,"title":"Existing","variants":[{"id":11,"price":"20.00"}]},`+
			`{"id":1002,"title":"Fresh","tags":"print, rare","variants":[{"id":21,"price":"7.50"}]},`+
			`{"id":1003,"title":"Broken","variants":[]}]}`)
	}))
	defer server.Close()

	svc := NewProductService(db, newStubShopifyService(server.URL))

	imported, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	fresh, err := svc.GetProductByAnyID("1002")
	require.NoError(t, err)
	assert.Equal(t, "Fresh", fresh.Name)
	assert.Equal(t, 7.50, fresh.BasePrice)
	assert.Equal(t, 7.50, fresh.CurrentPrice)

	// Re-running imports nothing new.
	imported, err = svc.SyncCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
}

func TestSyncCatalogUnconfigured(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, nil)

	_, err := svc.SyncCatalog(context.Background())
	assert.Error(t, err)
}

func TestSplitTags(t *testing.T) {
	assert.Nil(t, splitTags(""))
	assert.Equal(t, []string{"print", "rare"}, splitTags("print, rare"))
	assert.Equal(t, []string{"solo"}, splitTags("solo"))
	assert.Equal(t, []string{"a", "b"}, splitTags(" a ,, b ,"))
}
