package memory

import (
	"context"

	"ecommerce-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Tx is a memory transaction. Writes are staged and applied atomically on
// Commit; Rollback discards them. Only Commit and Rollback are implemented
// from pgx.Tx; the repositories never issue SQL through it.
type Tx struct {
	pgx.Tx

	store  *Store
	held   []string
	closed bool

	wallets     map[uuid.UUID]domain.Wallet
	products    map[uuid.UUID]domain.Product
	ledger      []domain.Transaction
	orders      []domain.Order
	idempotency map[string]domain.IdempotencyLog
}

func newTx(s *Store) *Tx {
	return &Tx{
		store:       s,
		wallets:     make(map[uuid.UUID]domain.Wallet),
		products:    make(map[uuid.UUID]domain.Product),
		idempotency: make(map[string]domain.IdempotencyLog),
	}
}

// Commit applies staged writes and releases row locks.
func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, w := range t.wallets {
		s.wallets[id] = w
		s.walletsByUser[w.UserID] = id
	}
	for id, p := range t.products {
		s.products[id] = p
	}
	s.ledger = append(s.ledger, t.ledger...)
	for _, o := range t.orders {
		s.orders[o.ID] = o
	}
	for k, l := range t.idempotency {
		s.idempotency[k] = l
	}

	s.release(t)
	t.closed = true
	return nil
}

// Rollback discards staged writes and releases row locks. Rolling back a
// finished transaction returns pgx.ErrTxClosed.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	s := t.store
	s.mu.Lock()
	s.release(t)
	s.mu.Unlock()
	t.closed = true
	return nil
}

// Begin would start a savepoint; nested transactions are not supported.
func (t *Tx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errNestedTx
}
