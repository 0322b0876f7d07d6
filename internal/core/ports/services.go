package ports

import (
	"context"
	"time"

	"ecommerce-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, role domain.UserRole) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.UserRole
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// --- Service Ports (Business Logic) ---

// WalletService moves money in and out of wallets. Every mutation locks the
// wallet row; the *Tx variants join a transaction owned by the caller.
type WalletService interface {
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.Transaction, error)
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.Transaction, error)
	CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.Transaction, error)
	DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.Transaction, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	CheckSufficientBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) bool
	GetTransactionHistory(ctx context.Context, userID uuid.UUID, filter TransactionFilter) ([]domain.Transaction, error)
}

// CatalogService manages products and their stock counters.
type CatalogService interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, update ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	// LockProduct loads the product holding its row lock until tx ends.
	LockProduct(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Product, error)
	// ReduceStock requires the caller to hold the lock taken by LockProduct.
	ReduceStock(ctx context.Context, tx pgx.Tx, product *domain.Product, quantity int) error
	IncreaseStock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error)
	UpdateStock(ctx context.Context, id uuid.UUID, quantity int, op StockOperation) (*domain.Product, error)
	CheckStockAvailability(ctx context.Context, id uuid.UUID, quantity int) (bool, string, error)
	BulkUpsertProducts(ctx context.Context, items []ProductInput) (*BulkUpsertResult, error)
}

// StockOperation selects the direction of a stock update.
type StockOperation string

const (
	StockOperationReduce   StockOperation = "reduce"
	StockOperationIncrease StockOperation = "increase"
)

// ProductInput holds validated input for product creation.
type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
}

// ProductUpdate holds a partial product update; nil fields are left alone.
type ProductUpdate struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	StockQuantity *int
}

// BulkUpsertResult reports the outcome of a bulk product import.
type BulkUpsertResult struct {
	Created int               `json:"created"`
	Updated int               `json:"updated"`
	Failed  int               `json:"failed"`
	Errors  []BulkUpsertError `json:"errors"`
}

// BulkUpsertError describes one rejected import row.
type BulkUpsertError struct {
	Product string `json:"product"`
	Error   string `json:"error"`
}

// PurchaseService runs the atomic purchase and answers order queries.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error)
	GetCustomerOrders(ctx context.Context, customerID uuid.UUID, status *domain.OrderStatus) ([]domain.Order, error)
	// GetOrderByID restricts the lookup to customerID when it is non-nil.
	GetOrderByID(ctx context.Context, id uuid.UUID, customerID *uuid.UUID) (*domain.Order, error)
	GetOrderStatistics(ctx context.Context, customerID uuid.UUID) (*domain.OrderStats, error)
}

// PurchaseRequest holds validated input for a purchase.
type PurchaseRequest struct {
	CustomerID     uuid.UUID
	ProductID      uuid.UUID
	Quantity       int
	IdempotencyKey string // optional
}

// PurchaseResult is everything a completed purchase produced.
type PurchaseResult struct {
	Order            domain.Order       `json:"order"`
	Transaction      domain.Transaction `json:"transaction"`
	Product          domain.Product     `json:"product"`
	TotalAmount      decimal.Decimal    `json:"total_amount"`
	RemainingBalance decimal.Decimal    `json:"remaining_balance"`
	Replayed         bool               `json:"-"`
}

// UserService defines account business logic.
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, username string, password string) (string, time.Time, error) // token, expiry, error
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*domain.User, error)
}

// RegisterRequest holds input for account registration.
type RegisterRequest struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber *string
	Role        domain.UserRole
}

// ProfileUpdate holds a partial profile update.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
}

// AuditService records audit trail entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
