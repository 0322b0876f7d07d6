package handler

import (
	"ecommerce-backend/internal/adapter/http/dto"
	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"
	"ecommerce-backend/pkg/apperror"
	"ecommerce-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

const defaultCreditDescription = "Wallet credit"

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetBalance handles GET /api/v1/wallet/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	balance, err := h.walletSvc.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletBalanceResponse{Balance: balance})
}

// AddFunds handles POST /api/v1/wallet/add-funds.
func (h *WalletHandler) AddFunds(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.AddFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)
	if req.Description == "" {
		req.Description = defaultCreditDescription
	}

	txn, err := h.walletSvc.Credit(c.Request.Context(), userID, req.Amount, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, txn)
}

// ListTransactions handles GET /api/v1/wallet/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var q dto.TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	filter := ports.TransactionFilter{Limit: q.Limit}
	if q.Type != "" {
		t := domain.TransactionType(q.Type)
		filter.Type = &t
	}

	txns, err := h.walletSvc.GetTransactionHistory(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, txns)
}
