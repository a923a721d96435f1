// internal/handlers/cashout.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/pricepulse/pricepulse-backend/internal/services"
	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

type CashoutHandler struct {
	pricingService *services.PricingService
}

type CashoutRequest struct {
	UniqueCode string `json:"unique_code" validate:"required"`
	UserEmail  string `json:"user_email" validate:"required,email"`
}

func NewCashoutHandler(pricingService *services.PricingService) *CashoutHandler {
	return &CashoutHandler{
		pricingService: pricingService,
	}
}

// POST /cashout
func (h *CashoutHandler) ProcessCashout(c *gin.Context) {
	var req CashoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.pricingService.ProcessCashout(c.Request.Context(), req.UniqueCode, req.UserEmail)

	var cashedOut *services.AlreadyCashedOutError
	var syncErr *services.SyncError
	switch {
	case errors.Is(err, services.ErrTransactionNotFound):
		utils.NotFoundResponse(c, "Transaction")
		return
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "Product")
		return
	case errors.As(err, &cashedOut):
		utils.ConflictResponse(c, "Transaction already cashed out", gin.H{
			"cashout_id":    cashedOut.CashoutID,
			"cashed_out_at": cashedOut.CashedOutAt,
		})
		return
	case errors.As(err, &syncErr):
		utils.BadGatewayResponse(c, "Failed to update Shopify price", gin.H{
			"cashout_id": result.Cashout.ID,
			"new_price":  result.NewPrice,
		})
		return
	case err != nil:
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, result)
}
