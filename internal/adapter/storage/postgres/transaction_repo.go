package postgres

import (
	"context"
	"fmt"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultHistoryLimit bounds a ledger listing when the caller sets no limit.
const DefaultHistoryLimit = 50

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a ledger entry within a database transaction. seq is
// assigned by the database while the wallet row lock is held, so it follows
// the order in which balances were mutated.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, transaction_type, amount, balance_after_transaction,
		description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq`

	err := tx.QueryRow(ctx, query,
		t.ID, t.WalletID, t.Type, t.Amount, t.BalanceAfter, t.Description, t.CreatedAt,
	).Scan(&t.Sequence)
	if err != nil {
		return translate("insert transaction", err)
	}
	return nil
}

// ListByWallet returns a wallet's entries, newest first.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, filter ports.TransactionFilter) ([]domain.Transaction, error) {
	args := []any{walletID}
	where := "wallet_id = $1"
	if filter.Type != nil {
		args = append(args, *filter.Type)
		where += fmt.Sprintf(" AND transaction_type = $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT id, wallet_id, seq, transaction_type, amount, balance_after_transaction,
		description, created_at
		FROM transactions WHERE %s ORDER BY created_at DESC, seq DESC LIMIT $%d`, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var entries []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		if err := rows.Scan(
			&t.ID, &t.WalletID, &t.Sequence, &t.Type, &t.Amount, &t.BalanceAfter,
			&t.Description, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		entries = append(entries, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return entries, nil
}
