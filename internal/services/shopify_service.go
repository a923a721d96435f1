// internal/services/shopify_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pricepulse/pricepulse-backend/internal/config"
)

// ShopifyService propagates committed prices to the Shopify store and
// imports catalog data from it. Propagation is best effort: the internal
// ledger is the source of truth and a failed push never rolls it back.
type ShopifyService struct {
	cfg    config.ShopifyConfig
	client *http.Client
}

type ShopifyVariant struct {
	ID    int64  `json:"id"`
	Price string `json:"price"`
}

type ShopifyProduct struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Tags     string           `json:"tags"`
	Variants []ShopifyVariant `json:"variants"`
}

func NewShopifyService(cfg config.ShopifyConfig) *ShopifyService {
	return &ShopifyService{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.SyncTimeout) * time.Second,
		},
	}
}

func (s *ShopifyService) Configured() bool {
	return s.cfg.StoreURL != "" && s.cfg.AccessToken != ""
}

// GetProduct fetches one product snapshot, variants included.
func (s *ShopifyService) GetProduct(ctx context.Context, shopifyProductID string) (*ShopifyProduct, error) {
	url := fmt.Sprintf("%s/admin/api/%s/products/%s.json",
		s.cfg.StoreURL, s.cfg.APIVersion, shopifyProductID)

	var payload struct {
		Product ShopifyProduct `json:"product"`
	}
	if err := s.doRequest(ctx, http.MethodGet, url, nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Product, nil
}

// ListProducts walks one page of the product catalog, for import. Shopify
// pages by since_id with at most 250 products per call.
func (s *ShopifyService) ListProducts(ctx context.Context, sinceID int64) ([]ShopifyProduct, error) {
	url := fmt.Sprintf("%s/admin/api/%s/products.json?limit=250",
		s.cfg.StoreURL, s.cfg.APIVersion)
	if sinceID > 0 {
		url += "&since_id=" + strconv.FormatInt(sinceID, 10)
	}

	var payload struct {
		Products []ShopifyProduct `json:"products"`
	}
	if err := s.doRequest(ctx, http.MethodGet, url, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Products, nil
}

// PushPrice resolves the product's variants and pushes the new price to
// each one concurrently. A variant push gets one immediate retry; variant
// failures are independent and only logged. The whole call is bounded by
// the configured sync timeout, and only a total failure (product
// unreachable, no variants, or every variant rejected) comes back as a
// SyncError.
func (s *ShopifyService) PushPrice(ctx context.Context, shopifyProductID string, price float64) error {
	if !s.Configured() {
		logrus.WithField("shopify_product_id", shopifyProductID).
			Debug("Shopify not configured, skipping price push")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.SyncTimeout)*time.Second)
	defer cancel()

	product, err := s.GetProduct(ctx, shopifyProductID)
	if err != nil {
		return &SyncError{ShopifyProductID: shopifyProductID, Err: err}
	}
	if len(product.Variants) == 0 {
		return &SyncError{ShopifyProductID: shopifyProductID, Err: errors.New("no variants found for product")}
	}

	priceStr := strconv.FormatFloat(price, 'f', 2, 64)
	var failed int64

	g, gctx := errgroup.WithContext(ctx)
	for _, variant := range product.Variants {
		variant := variant
		g.Go(func() error {
			err := s.updateVariantPrice(gctx, variant.ID, priceStr)
			if err != nil {
				// One immediate retry per variant before giving up.
				err = s.updateVariantPrice(gctx, variant.ID, priceStr)
			}
			if err != nil {
				atomic.AddInt64(&failed, 1)
				logrus.WithError(err).WithFields(logrus.Fields{
					"shopify_product_id": shopifyProductID,
					"variant_id":         variant.ID,
				}).Error("Failed to update variant price")
			}
			return nil
		})
	}
	g.Wait()

	total := int64(len(product.Variants))
	if failed == total {
		return &SyncError{
			ShopifyProductID: shopifyProductID,
			Err:              fmt.Errorf("all %d variant updates failed", total),
		}
	}
	if failed > 0 {
		logrus.WithFields(logrus.Fields{
			"shopify_product_id": shopifyProductID,
			"failed":             failed,
			"total":              total,
		}).Warn("Partial price sync")
	}
	return nil
}

func (s *ShopifyService) updateVariantPrice(ctx context.Context, variantID int64, price string) error {
	url := fmt.Sprintf("%s/admin/api/%s/variants/%d.json",
		s.cfg.StoreURL, s.cfg.APIVersion, variantID)

	body := map[string]interface{}{
		"variant": map[string]interface{}{
			"id":    variantID,
			"price": price,
		},
	}
	return s.doRequest(ctx, http.MethodPut, url, body, nil)
}

func (s *ShopifyService) doRequest(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", s.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("shopify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("shopify returned %d: %s", resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
