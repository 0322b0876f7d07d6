package memory

import (
	"context"
	"fmt"
	"time"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	s *Store
}

// NewWalletRepo creates a WalletRepo over s.
func NewWalletRepo(s *Store) *WalletRepo {
	return &WalletRepo{s: s}
}

// GetOrCreate returns the user's wallet, creating an empty one on first access.
func (r *WalletRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if id, ok := r.s.walletsByUser[userID]; ok {
		w := r.s.wallets[id]
		return &w, nil
	}
	if _, ok := r.s.users[userID]; !ok {
		return nil, fmt.Errorf("insert wallet: %w (wallets_user_id_fkey)", ports.ErrReferenced)
	}

	w := domain.NewWallet(userID)
	r.s.wallets[w.ID] = *w
	r.s.walletsByUser[userID] = w.ID
	return w, nil
}

func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.walletsByUser[userID]
	if !ok {
		return nil, nil
	}
	w := r.s.wallets[id]
	return &w, nil
}

// GetByUserIDForUpdate locks the wallet row until tx ends and returns the
// row as tx sees it.
func (r *WalletRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return nil, err
	}
	if err := r.s.acquire(ctx, t, walletLockKey(userID)); err != nil {
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.walletsByUser[userID]
	if !ok {
		return nil, nil
	}
	w, ok := t.wallets[id]
	if !ok {
		w = r.s.wallets[id]
	}
	return &w, nil
}

// UpdateBalance stages a new balance within tx.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	if balance.IsNegative() {
		return fmt.Errorf("update wallet balance: balance %s violates wallets_balance_check", balance)
	}

	r.s.mu.Lock()
	w, ok := r.s.wallets[walletID]
	r.s.mu.Unlock()
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}

	if err := r.s.acquire(ctx, t, walletLockKey(w.UserID)); err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if staged, ok := t.wallets[walletID]; ok {
		w = staged
	} else {
		w = r.s.wallets[walletID]
	}
	w.Balance = balance
	w.UpdatedAt = time.Now().UTC()
	t.wallets[walletID] = w
	return nil
}
