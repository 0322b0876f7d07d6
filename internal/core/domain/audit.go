package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister      AuditAction = "REGISTER"
	AuditActionLogin         AuditAction = "LOGIN"
	AuditActionAddFunds      AuditAction = "ADD_FUNDS"
	AuditActionPurchase      AuditAction = "PURCHASE"
	AuditActionProductCreate AuditAction = "PRODUCT_CREATE"
	AuditActionProductUpdate AuditAction = "PRODUCT_UPDATE"
	AuditActionProductDelete AuditAction = "PRODUCT_DELETE"
	AuditActionStockUpdate   AuditAction = "STOCK_UPDATE"
	AuditActionBulkImport    AuditAction = "PRODUCT_BULK_IMPORT"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	ActorID      *uuid.UUID  `json:"actor_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	StatusCode   int         `json:"status_code"`
	CreatedAt    time.Time   `json:"created_at"`
}
