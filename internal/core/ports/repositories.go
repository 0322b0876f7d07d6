package ports

import (
	"context"
	"errors"

	"ecommerce-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Storage sentinels. Adapters translate driver errors into these so the
// service layer never inspects driver codes.
var (
	ErrDuplicate  = errors.New("duplicate record")
	ErrReferenced = errors.New("record is still referenced")
	ErrNotFound   = errors.New("record not found")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	// GetOrCreate inserts an empty wallet unless one exists and returns the stored row.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
}

// TransactionRepository is the append-only ledger.
type TransactionRepository interface {
	// Create appends entry and fills its Sequence.
	Create(ctx context.Context, tx pgx.Tx, entry *domain.Transaction) error
	ListByWallet(ctx context.Context, walletID uuid.UUID, filter TransactionFilter) ([]domain.Transaction, error)
}

// TransactionFilter narrows a ledger listing. Results are newest first.
type TransactionFilter struct {
	Type  *domain.TransactionType
	Limit int
}

// ProductRepository defines persistence operations for the catalog.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Product, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, tx pgx.Tx, product *domain.Product) error
	UpdateStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, stock int) error
	// IncrementStock adds quantity in a single statement and returns the updated row.
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductFilter narrows a catalog listing. Results are newest first.
type ProductFilter struct {
	InStockOnly bool
	Search      string
}

// OrderRepository stores write-once orders.
type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, status *domain.OrderStatus) ([]domain.Order, error)
	GetStats(ctx context.Context, customerID uuid.UUID) (*domain.OrderStats, error)
}

// IdempotencyRepository is the durable record of replayable purchase results.
// Create returns ErrDuplicate when the key is already taken.
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// AuditRepository persists audit trail entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
