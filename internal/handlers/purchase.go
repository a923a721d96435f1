// internal/handlers/purchase.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/pricepulse/pricepulse-backend/internal/services"
	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

type PurchaseHandler struct {
	pricingService *services.PricingService
}

type PurchaseRequest struct {
	ShopifyProductID string  `json:"shopify_product_id" validate:"required"`
	UserEmail        string  `json:"user_email" validate:"required,email"`
	PurchasePrice    float64 `json:"purchase_price" validate:"min=0"`
	ShopifyOrderID   string  `json:"shopify_order_id" validate:"required"`
}

func NewPurchaseHandler(pricingService *services.PricingService) *PurchaseHandler {
	return &PurchaseHandler{
		pricingService: pricingService,
	}
}

// POST /purchase
func (h *PurchaseHandler) ProcessPurchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.pricingService.ProcessPurchase(c.Request.Context(),
		req.ShopifyProductID, req.ShopifyOrderID, req.UserEmail, req.PurchasePrice)

	var syncErr *services.SyncError
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "Product")
		return
	case errors.As(err, &syncErr):
		// The price change is committed internally; only the outward push
		// failed.
		utils.BadGatewayResponse(c, "Failed to update Shopify price", gin.H{
			"transaction_id": result.Transaction.ID,
			"new_price":      result.NewPrice,
		})
		return
	case err != nil:
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	if result.Duplicate {
		utils.SuccessResponse(c, result)
		return
	}
	utils.CreatedResponse(c, result)
}
