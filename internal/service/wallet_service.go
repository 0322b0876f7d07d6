package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"
	"ecommerce-backend/pkg/apperror"
	"ecommerce-backend/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MaxHistoryLimit caps a single transaction history page.
	MaxHistoryLimit = 100
	// DefaultHistoryLimit applies when the caller sets no limit.
	DefaultHistoryLimit = 50

	maxDescriptionLen = 255
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		log:        log,
	}
}

// GetOrCreateWallet returns the user's wallet, creating an empty one if absent.
// Concurrent first access settles on the unique user_id constraint.
func (s *WalletServiceImpl) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetOrCreate(ctx, userID)
	if err != nil {
		if errors.Is(err, ports.ErrReferenced) {
			return nil, apperror.NotFound("user")
		}
		return nil, apperror.InternalError(fmt.Errorf("get or create wallet: %w", err))
	}
	return wallet, nil
}

// Credit adds amount to the user's wallet in its own transaction.
func (s *WalletServiceImpl) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	return s.inTx(ctx, func(tx pgx.Tx) (*domain.Transaction, error) {
		return s.CreditTx(ctx, tx, userID, amount, description)
	})
}

// Debit takes amount from the user's wallet in its own transaction.
func (s *WalletServiceImpl) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	return s.inTx(ctx, func(tx pgx.Tx) (*domain.Transaction, error) {
		return s.DebitTx(ctx, tx, userID, amount, description)
	})
}

// CreditTx adds amount within tx. The wallet row stays locked until tx ends.
func (s *WalletServiceImpl) CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, description string) (entry *domain.Transaction, err error) {
	ctx, span := tracer.Start(ctx, "wallet.credit", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("amount", money.Format(amount)),
	))
	defer func() { finishSpan(span, err) }()

	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	wallet, err := s.lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		// First credit: create the row outside tx, then lock it.
		if _, err := s.GetOrCreateWallet(ctx, userID); err != nil {
			return nil, err
		}
		if wallet, err = s.lockWallet(ctx, tx, userID); err != nil {
			return nil, err
		}
		if wallet == nil {
			return nil, apperror.WalletNotFound()
		}
	}

	newBalance := wallet.Balance.Add(amount)
	if newBalance.GreaterThan(money.MaxBalance) {
		return nil, apperror.InvalidTransaction("Credit would exceed the maximum wallet balance")
	}

	entry, err = s.appendEntry(ctx, tx, wallet, domain.TransactionTypeCredit, amount, newBalance,
		describe(description, domain.DefaultCreditDescription))
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", entry.ID.String()).
		Str("user_id", userID.String()).
		Str("amount", money.Format(amount)).
		Str("balance", money.Format(newBalance)).
		Msg("wallet credited")

	return entry, nil
}

// DebitTx takes amount within tx. Sufficiency is decided on the locked row,
// so a concurrent debit can never spend the same funds.
func (s *WalletServiceImpl) DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, description string) (entry *domain.Transaction, err error) {
	ctx, span := tracer.Start(ctx, "wallet.debit", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("amount", money.Format(amount)),
	))
	defer func() { finishSpan(span, err) }()

	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	wallet, err := s.lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, apperror.WalletNotFound()
	}
	if !wallet.CanCover(amount) {
		return nil, apperror.InsufficientBalance(amount, wallet.Balance)
	}

	newBalance := wallet.Balance.Sub(amount)
	entry, err = s.appendEntry(ctx, tx, wallet, domain.TransactionTypeDebit, amount, newBalance,
		describe(description, domain.DefaultDebitDescription))
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", entry.ID.String()).
		Str("user_id", userID.String()).
		Str("amount", money.Format(amount)).
		Str("balance", money.Format(newBalance)).
		Msg("wallet debited")

	return entry, nil
}

// GetBalance is a non-locking read for display. It creates the wallet lazily.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

// CheckSufficientBalance is an unlocked fast-fail check. It reports false
// when the wallet is absent or cannot be read.
func (s *WalletServiceImpl) CheckSufficientBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) bool {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("balance pre-check failed")
		return false
	}
	return wallet != nil && wallet.CanCover(amount)
}

// GetTransactionHistory lists the user's ledger entries, newest first.
func (s *WalletServiceImpl) GetTransactionHistory(ctx context.Context, userID uuid.UUID, filter ports.TransactionFilter) ([]domain.Transaction, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, apperror.Validation("transaction_type must be CREDIT or DEBIT")
	}
	if filter.Limit < 0 || filter.Limit > MaxHistoryLimit {
		return nil, apperror.Validation(fmt.Sprintf("limit must be between 1 and %d", MaxHistoryLimit))
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultHistoryLimit
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return []domain.Transaction{}, nil
	}

	entries, err := s.txRepo.ListByWallet(ctx, wallet.ID, filter)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	if entries == nil {
		entries = []domain.Transaction{}
	}
	return entries, nil
}

func (s *WalletServiceImpl) lockWallet(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	return wallet, nil
}

// appendEntry writes the new balance and its ledger entry under the wallet lock.
func (s *WalletServiceImpl) appendEntry(
	ctx context.Context,
	tx pgx.Tx,
	wallet *domain.Wallet,
	typ domain.TransactionType,
	amount, newBalance decimal.Decimal,
	description string,
) (*domain.Transaction, error) {
	if err := s.walletRepo.UpdateBalance(ctx, tx, wallet.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	entry := &domain.Transaction{
		ID:           uuid.New(),
		WalletID:     wallet.ID,
		Type:         typ,
		Amount:       amount,
		BalanceAfter: newBalance,
		Description:  description,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.txRepo.Create(ctx, tx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}
	return entry, nil
}

func (s *WalletServiceImpl) inTx(ctx context.Context, fn func(tx pgx.Tx) (*domain.Transaction, error)) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	entry, err := fn(dbTx)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return entry, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.InvalidTransaction("Amount must be positive")
	}
	if !money.HasValidScale(amount) {
		return apperror.InvalidTransaction("Amount must have at most 2 decimal places")
	}
	return nil
}

// describe applies the default and clips to the column width.
func describe(description, fallback string) string {
	if description == "" {
		return fallback
	}
	if utf8.RuneCountInString(description) <= maxDescriptionLen {
		return description
	}
	return string([]rune(description)[:maxDescriptionLen])
}
