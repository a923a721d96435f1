// internal/handlers/product.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pricepulse/pricepulse-backend/internal/services"
	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	archiveService *services.ArchiveService
}

func NewProductHandler(productService *services.ProductService, archiveService *services.ArchiveService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		archiveService: archiveService,
	}
}

// GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	products, total, err := h.productService.ListProducts(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProductByAnyID(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, product)
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.productService.CreateProduct(&req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, product)
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.productService.UpdateProduct(id, &req)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, product)
}

// GET /products/:id/history
func (h *ProductHandler) GetPriceHistory(c *gin.Context) {
	product, err := h.productService.GetProductByAnyID(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	history, err := h.productService.GetPriceHistory(product.ID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, history)
}

// POST /products/sync
func (h *ProductHandler) SyncCatalog(c *gin.Context) {
	imported, err := h.productService.SyncCatalog(c.Request.Context())
	if err != nil {
		utils.BadGatewayResponse(c, err.Error(), gin.H{"imported": imported})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  "Shopify products synced",
		"imported": imported,
	})
}

// POST /products/:id/history/export
func (h *ProductHandler) ExportPriceHistory(c *gin.Context) {
	product, err := h.productService.GetProductByAnyID(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result, err := h.archiveService.ExportPriceHistory(product.ID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, result)
}
