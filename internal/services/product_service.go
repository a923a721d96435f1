// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pricepulse/pricepulse-backend/internal/models"
	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

type ProductService struct {
	db      *gorm.DB
	shopify *ShopifyService
}

type CreateProductRequest struct {
	ShopifyProductID string   `json:"shopify_product_id" validate:"required"`
	Name             string   `json:"name" validate:"required,min=1,max=255"`
	BasePrice        float64  `json:"base_price" validate:"required,min=0"`
	Tags             []string `json:"tags,omitempty"`
}

type UpdateProductRequest struct {
	Name      string   `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	BasePrice *float64 `json:"base_price,omitempty" validate:"omitempty,min=0"`
	Tags      []string `json:"tags,omitempty"`
}

func NewProductService(db *gorm.DB, shopify *ShopifyService) *ProductService {
	return &ProductService{db: db, shopify: shopify}
}

func (s *ProductService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product := &models.Product{
		ShopifyProductID: req.ShopifyProductID,
		Name:             req.Name,
		Tags:             req.Tags,
		BasePrice:        req.BasePrice,
		CurrentPrice:     req.BasePrice,
	}

	if err := s.db.Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("product with shopify id %s already exists", req.ShopifyProductID)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// GetProductByAnyID resolves either the Shopify product id or the internal
// id, in that order. Price history lookups accept both.
func (s *ProductService) GetProductByAnyID(id string) (*models.Product, error) {
	var product models.Product
	err := s.db.Where("shopify_product_id = ?", id).First(&product).Error
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	parsed, perr := uuid.Parse(id)
	if perr != nil {
		return nil, ErrProductNotFound
	}
	return s.GetProduct(parsed)
}

func (s *ProductService) ListProducts(params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{})

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ?", searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "current_price", "total_purchases"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.BasePrice != nil {
		updates["base_price"] = *req.BasePrice
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}

	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.Model(product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return s.GetProduct(id)
}

// GetPriceHistory returns the audit trail for a product, oldest first, so
// callers can replay the price curve.
func (s *ProductService) GetPriceHistory(productID uuid.UUID) ([]models.PriceHistoryEntry, error) {
	var entries []models.PriceHistoryEntry
	if err := s.db.Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}
	return entries, nil
}

// SyncCatalog walks the Shopify catalog and creates local products that do
// not exist yet, seeding base and current price from the first variant.
// Existing products are left untouched. Returns how many were imported.
func (s *ProductService) SyncCatalog(ctx context.Context) (int, error) {
	if s.shopify == nil || !s.shopify.Configured() {
		return 0, errors.New("shopify is not configured")
	}

	imported := 0
	var sinceID int64

	for {
		page, err := s.shopify.ListProducts(ctx, sinceID)
		if err != nil {
			return imported, fmt.Errorf("failed to list shopify products: %w", err)
		}

		for _, p := range page {
			if len(p.Variants) == 0 {
				logrus.WithField("shopify_product_id", p.ID).Warn("Product has no variants, skipping")
				continue
			}

			shopifyID := strconv.FormatInt(p.ID, 10)
			var count int64
			if err := s.db.Model(&models.Product{}).
				Where("shopify_product_id = ?", shopifyID).Count(&count).Error; err != nil {
				return imported, fmt.Errorf("database error: %w", err)
			}
			if count > 0 {
				continue
			}

			basePrice, err := strconv.ParseFloat(p.Variants[0].Price, 64)
			if err != nil {
				logrus.WithField("shopify_product_id", p.ID).Warn("Unparseable variant price, skipping")
				continue
			}

			product := &models.Product{
				ShopifyProductID: shopifyID,
				Name:             p.Title,
				Tags:             splitTags(p.Tags),
				BasePrice:        basePrice,
				CurrentPrice:     basePrice,
			}
			if err := s.db.Create(product).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					continue
				}
				return imported, fmt.Errorf("failed to create product: %w", err)
			}
			imported++
		}

		if len(page) < 250 {
			return imported, nil
		}
		sinceID = page[len(page)-1].ID
	}
}

// splitTags parses Shopify's comma-separated tags field.
func splitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
