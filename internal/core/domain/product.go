package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LowStockThreshold marks the stock level below which a product is low.
const LowStockThreshold = 10

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// Product is a catalog item with a stock counter that never goes negative.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}

func (p *Product) IsLowStock() bool {
	return p.StockQuantity > 0 && p.StockQuantity < LowStockThreshold
}

// HasStock reports whether quantity can be taken from the counter.
func (p *Product) HasStock(quantity int) bool {
	return quantity <= p.StockQuantity
}

// ReduceStock takes quantity units off the counter.
// The caller must hold the row lock on p.
func (p *Product) ReduceStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !p.HasStock(quantity) {
		return ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	return nil
}

// IncreaseStock adds quantity units to the counter.
func (p *Product) IncreaseStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.StockQuantity += quantity
	return nil
}

// TotalFor multiplies the unit price by quantity exactly.
func (p *Product) TotalFor(quantity int) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(quantity)))
}
