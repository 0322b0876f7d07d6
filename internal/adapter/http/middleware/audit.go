package middleware

import (
	"encoding/json"
	"net/http"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records every state-changing request that maps to an audit
// action, including rejected ones. The outcome is kept in StatusCode.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapRouteToAction(c.Request.Method, c.FullPath())
		if action == "" {
			return
		}

		var actorID *uuid.UUID
		if id, ok := UserIDFrom(c); ok {
			actorID = &id
		}

		status := c.Writer.Status()
		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ActorID:      actorID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.Param("id"),
			Details:      string(details),
			IPAddress:    c.ClientIP(),
			StatusCode:   status,
		})
	}
}

func mapRouteToAction(method, route string) (domain.AuditAction, string) {
	switch method + " " + route {
	case "POST /api/v1/auth/register":
		return domain.AuditActionRegister, "user"
	case "POST /api/v1/auth/login":
		return domain.AuditActionLogin, "session"
	case "POST /api/v1/wallet/add-funds":
		return domain.AuditActionAddFunds, "wallet"
	case "POST /api/v1/orders/purchase":
		return domain.AuditActionPurchase, "order"
	case "POST /api/v1/products":
		return domain.AuditActionProductCreate, "product"
	case "PATCH /api/v1/products/:id":
		return domain.AuditActionProductUpdate, "product"
	case "DELETE /api/v1/products/:id":
		return domain.AuditActionProductDelete, "product"
	case "POST /api/v1/products/:id/stock":
		return domain.AuditActionStockUpdate, "product"
	case "POST /api/v1/products/bulk":
		return domain.AuditActionBulkImport, "product"
	}
	return "", ""
}
