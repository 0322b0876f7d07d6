package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const defaultHistoryLimit = 50

var minAmount = decimal.New(1, -2)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	s *Store
}

// NewTransactionRepo creates a TransactionRepo over s.
func NewTransactionRepo(s *Store) *TransactionRepo {
	return &TransactionRepo{s: s}
}

// Create stages a ledger entry and assigns its sequence number. Numbers
// taken by rolled-back entries are not reused.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.Transaction) error {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	switch {
	case !entry.Type.Valid():
		return fmt.Errorf("insert transaction: unknown type %q", entry.Type)
	case entry.Amount.LessThan(minAmount):
		return fmt.Errorf("insert transaction: amount %s violates transactions_amount_check", entry.Amount)
	case entry.BalanceAfter.IsNegative():
		return fmt.Errorf("insert transaction: balance %s violates transactions_balance_after_transaction_check", entry.BalanceAfter)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.wallets[entry.WalletID]; !ok {
		return fmt.Errorf("insert transaction: %w (transactions_wallet_id_fkey)", ports.ErrReferenced)
	}
	r.s.seq++
	entry.Sequence = r.s.seq
	t.ledger = append(t.ledger, *entry)
	return nil
}

// ListByWallet returns committed entries, newest first.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, filter ports.TransactionFilter) ([]domain.Transaction, error) {
	r.s.mu.Lock()
	var entries []domain.Transaction
	for _, e := range r.s.ledger {
		if e.WalletID != walletID {
			continue
		}
		if filter.Type != nil && e.Type != *filter.Type {
			continue
		}
		entries = append(entries, e)
	}
	r.s.mu.Unlock()

	slices.SortFunc(entries, func(a, b domain.Transaction) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Sequence, a.Sequence)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
