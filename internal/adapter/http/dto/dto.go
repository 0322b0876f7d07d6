package dto

import (
	"time"

	"ecommerce-backend/internal/core/domain"

	"github.com/shopspring/decimal"
)

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username        string  `json:"username" binding:"required,min=3,max=150,safe_id"`
	Email           string  `json:"email" binding:"required,email,max=254"`
	Password        string  `json:"password" binding:"required,min=8,max=128" sanitize:"-"`
	PasswordConfirm string  `json:"password_confirm" binding:"required,eqfield=Password" sanitize:"-"`
	FirstName       string  `json:"first_name" binding:"required,max=150"`
	LastName        string  `json:"last_name" binding:"required,max=150"`
	PhoneNumber     *string `json:"phone_number,omitempty" binding:"omitempty,max=20"`
	Role            string  `json:"role,omitempty" binding:"omitempty,oneof=ADMIN CUSTOMER"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// UpdateProfileRequest is the body of PATCH /users/me.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name,omitempty" binding:"omitempty,max=150"`
	LastName    *string `json:"last_name,omitempty" binding:"omitempty,max=150"`
	PhoneNumber *string `json:"phone_number,omitempty" binding:"omitempty,max=20"`
}

// AddFundsRequest is the body of POST /wallet/add-funds.
type AddFundsRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"money"`
	Description string          `json:"description" binding:"max=255"`
}

// TransactionQuery binds the transaction history filters.
type TransactionQuery struct {
	Type  string `form:"transaction_type" binding:"omitempty,oneof=CREDIT DEBIT"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// WalletBalanceResponse is the response for balance query.
type WalletBalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// ProductRequest is the body for creating a product and one row of a bulk import.
type ProductRequest struct {
	Name          string          `json:"name" binding:"required,max=255"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price" binding:"money"`
	StockQuantity int             `json:"stock_quantity" binding:"min=0"`
}

// ProductPatchRequest is the body of PATCH /products/:id.
type ProductPatchRequest struct {
	Name          *string          `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty" binding:"omitempty,money"`
	StockQuantity *int             `json:"stock_quantity,omitempty" binding:"omitempty,min=0"`
}

// BulkProductsRequest is the body of POST /products/bulk. Rows are validated
// one by one by the service so a bad row does not reject the batch.
type BulkProductsRequest struct {
	Products []BulkProductRow `json:"products" binding:"required,min=1,max=1000"`
}

// BulkProductRow is one import row.
type BulkProductRow struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

// StockUpdateRequest is the body of POST /products/:id/stock.
type StockUpdateRequest struct {
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Operation string `json:"operation" binding:"required,oneof=reduce increase"`
}

// ProductQuery binds the catalog listing filters.
type ProductQuery struct {
	InStock bool   `form:"in_stock"`
	Search  string `form:"search" binding:"max=100"`
}

// ProductResponse adds the derived stock flags to a product.
type ProductResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	IsInStock     bool            `json:"is_in_stock"`
	IsLowStock    bool            `json:"is_low_stock"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewProductResponse renders p.
func NewProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		IsInStock:     p.IsInStock(),
		IsLowStock:    p.IsLowStock(),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// NewProductList renders products.
func NewProductList(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, NewProductResponse(&products[i]))
	}
	return out
}

// PurchaseRequest is the body of POST /orders/purchase.
type PurchaseRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=1000"`
}

// PurchaseResponse is the receipt of a completed purchase.
type PurchaseResponse struct {
	Order            domain.Order       `json:"order"`
	Transaction      domain.Transaction `json:"transaction"`
	Product          ProductResponse    `json:"product"`
	TotalAmount      decimal.Decimal    `json:"total_amount"`
	RemainingBalance decimal.Decimal    `json:"remaining_balance"`
}

// OrderQuery binds the order listing filter.
type OrderQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=COMPLETED FAILED PENDING"`
}

// RegisterResponse is the response body for a new account.
type RegisterResponse struct {
	User   *domain.User `json:"user"`
	Token  string       `json:"token"`
	Expiry int64        `json:"expiry"`
}
