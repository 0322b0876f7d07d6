package handler

import (
	"fmt"

	"ecommerce-backend/internal/adapter/http/dto"
	"ecommerce-backend/internal/adapter/http/middleware"
	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"
	"ecommerce-backend/pkg/apperror"
	"ecommerce-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

// OrderHandler handles purchases and order queries.
type OrderHandler struct {
	purchaseSvc ports.PurchaseService
}

func NewOrderHandler(purchaseSvc ports.PurchaseService) *OrderHandler {
	return &OrderHandler{purchaseSvc: purchaseSvc}
}

// Purchase handles POST /api/v1/orders/purchase. A replayed response
// carries the original receipt with status 200 instead of 201.
func (h *OrderHandler) Purchase(c *gin.Context) {
	customerID, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.Error(c, apperror.Validation("product_id must be a UUID"))
		return
	}

	key := c.GetHeader(HeaderIdempotencyKey)
	if len(key) > domain.MaxClientIdempotencyKeyLength {
		response.Error(c, apperror.Validation(fmt.Sprintf("Idempotency-Key must be at most %d characters", domain.MaxClientIdempotencyKeyLength)))
		return
	}

	result, err := h.purchaseSvc.CreatePurchase(c.Request.Context(), ports.PurchaseRequest{
		CustomerID:     customerID,
		ProductID:      productID,
		Quantity:       req.Quantity,
		IdempotencyKey: key,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	body := dto.PurchaseResponse{
		Order:            result.Order,
		Transaction:      result.Transaction,
		Product:          dto.NewProductResponse(&result.Product),
		TotalAmount:      result.TotalAmount,
		RemainingBalance: result.RemainingBalance,
	}
	if result.Replayed {
		c.Header(HeaderReplayed, "true")
		response.OK(c, body)
		return
	}
	response.Created(c, body)
}

// List handles GET /api/v1/orders.
func (h *OrderHandler) List(c *gin.Context) {
	customerID, ok := callerID(c)
	if !ok {
		return
	}

	var q dto.OrderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	var status *domain.OrderStatus
	if q.Status != "" {
		s := domain.OrderStatus(q.Status)
		status = &s
	}

	orders, err := h.purchaseSvc.GetCustomerOrders(c.Request.Context(), customerID, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, orders)
}

// Get handles GET /api/v1/orders/:id. Admins may read any order.
func (h *OrderHandler) Get(c *gin.Context) {
	customerID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	scope := &customerID
	if role, _ := middleware.RoleFrom(c); role == domain.UserRoleAdmin {
		scope = nil
	}

	order, err := h.purchaseSvc.GetOrderByID(c.Request.Context(), id, scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order)
}

// Stats handles GET /api/v1/orders/stats.
func (h *OrderHandler) Stats(c *gin.Context) {
	customerID, ok := callerID(c)
	if !ok {
		return
	}

	stats, err := h.purchaseSvc.GetOrderStatistics(c.Request.Context(), customerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
