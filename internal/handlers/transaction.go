// internal/handlers/transaction.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pricepulse/pricepulse-backend/internal/services"
	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

type TransactionHandler struct {
	ledgerService *services.LedgerService
}

func NewTransactionHandler(ledgerService *services.LedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
	}
}

// GET /transactions (admin)
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	transactions, total, err := h.ledgerService.ListTransactions(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(transactions, total, params)
	utils.PaginatedResponse(c, result)
}
