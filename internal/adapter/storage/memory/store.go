// Package memory is an in-process storage backend implementing every
// repository port. It honours the same contracts as the PostgreSQL adapter:
// rows read for update stay locked until the owning transaction ends, writes
// made inside a transaction are invisible to other readers until commit, and
// uniqueness and reference constraints yield the ports sentinels.
package memory

import (
	"context"
	"errors"
	"sync"

	"ecommerce-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrForeignTx is returned when a repository receives a pgx.Tx that was not
// started by the same Store.
var ErrForeignTx = errors.New("transaction does not belong to this store")

var errNestedTx = errors.New("nested transactions are not supported")

// Store holds committed state. Tables are keyed by primary key and hold
// values, never pointers, so callers cannot mutate stored rows.
type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]domain.User
	wallets       map[uuid.UUID]domain.Wallet
	walletsByUser map[uuid.UUID]uuid.UUID
	ledger        []domain.Transaction
	seq           int64
	products      map[uuid.UUID]domain.Product
	orders        map[uuid.UUID]domain.Order
	idempotency   map[string]domain.IdempotencyLog
	audit         []domain.AuditLog

	locks  map[string]chan struct{}
	owners map[string]*Tx
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]domain.User),
		wallets:       make(map[uuid.UUID]domain.Wallet),
		walletsByUser: make(map[uuid.UUID]uuid.UUID),
		products:      make(map[uuid.UUID]domain.Product),
		orders:        make(map[uuid.UUID]domain.Order),
		idempotency:   make(map[string]domain.IdempotencyLog),
		locks:         make(map[string]chan struct{}),
		owners:        make(map[string]*Tx),
	}
}

// Begin starts a transaction. It implements ports.DBTransactor.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newTx(s), nil
}

// Ping implements ports.HealthChecker.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "memory"
}

// acquire blocks until tx owns the row lock for key. Locks are reentrant
// within one transaction.
func (s *Store) acquire(ctx context.Context, tx *Tx, key string) error {
	s.mu.Lock()
	if s.owners[key] == tx {
		s.mu.Unlock()
		return nil
	}
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	s.owners[key] = tx
	s.mu.Unlock()
	tx.held = append(tx.held, key)
	return nil
}

// release frees every lock tx holds. Callers hold s.mu.
func (s *Store) release(tx *Tx) {
	for _, key := range tx.held {
		delete(s.owners, key)
		<-s.locks[key]
	}
	tx.held = nil
}

// autocommit runs fn in a short transaction, the way a single UPDATE
// statement takes and releases its row lock.
func (s *Store) autocommit(ctx context.Context, fn func(tx *Tx) error) error {
	tx := newTx(s)
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// txFrom unwraps a pgx.Tx handed to a repository.
func (s *Store) txFrom(tx pgx.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, ErrForeignTx
	}
	if t.closed {
		return nil, pgx.ErrTxClosed
	}
	return t, nil
}

func walletLockKey(userID uuid.UUID) string { return "wallet:" + userID.String() }
func productLockKey(id uuid.UUID) string    { return "product:" + id.String() }
func idempotencyLockKey(key string) string  { return "idempotency:" + key }
