package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog stores the result of a purchase under a client-supplied key
// so a retried request replays the result instead of buying twice.
type IdempotencyLog struct {
	Key          string    `json:"key"` // Format: "customer_id:purchase:client_key"
	OrderID      uuid.UUID `json:"order_id"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	// MaxIdempotencyKeyLength is the width of idempotency_logs.key.
	MaxIdempotencyKeyLength = 255

	purchaseKeyInfix = ":purchase:"

	// MaxClientIdempotencyKeyLength is the longest client key that still fits
	// once scoped by BuildPurchaseIdempotencyKey.
	MaxClientIdempotencyKeyLength = MaxIdempotencyKeyLength - 36 - len(purchaseKeyInfix)
)

// BuildPurchaseIdempotencyKey scopes a client key to one customer.
func BuildPurchaseIdempotencyKey(customerID uuid.UUID, clientKey string) string {
	return customerID.String() + purchaseKeyInfix + clientKey
}
