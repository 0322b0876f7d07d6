package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxOrderQuantity caps the units bought in a single purchase.
const MaxOrderQuantity = 1000

// OrderStatus is fixed when the order is written.
type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusPending   OrderStatus = "PENDING"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusFailed, OrderStatusPending:
		return true
	}
	return false
}

// Order is the receipt of one purchase. UnitPrice is captured at purchase
// time and does not follow later product price changes.
type Order struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     OrderStatus     `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OrderStats aggregates a customer's purchase history.
type OrderStats struct {
	TotalOrders     int64           `json:"total_orders"`
	CompletedOrders int64           `json:"completed_orders"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
}
