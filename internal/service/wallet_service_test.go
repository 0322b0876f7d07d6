package service

import (
	"context"
	"errors"
	"testing"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"
	"ecommerce-backend/internal/core/ports/mocks"
	"ecommerce-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decimalEq matches a decimal.Decimal by value, ignoring its exponent.
type decimalEq struct{ want decimal.Decimal }

func (m decimalEq) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalEq) String() string { return "decimal equal to " + m.want.String() }

func decEq(s string) gomock.Matcher { return decimalEq{want: dec(s)} }

type walletTestDeps struct {
	svc        *WalletServiceImpl
	walletRepo *mocks.MockWalletRepository
	txRepo     *mocks.MockTransactionRepository
	transactor *mocks.MockDBTransactor
}

func setupWalletService(t *testing.T) *walletTestDeps {
	ctrl := gomock.NewController(t)
	d := &walletTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
	}
	d.svc = NewWalletService(d.walletRepo, d.txRepo, d.transactor, zerolog.Nop())
	return d
}

func TestWalletService_Credit_Success(t *testing.T) {
	d := setupWalletService(t)
	ctx := context.Background()
	userID := uuid.New()
	wallet := &domain.Wallet{ID: uuid.New(), UserID: userID, Balance: dec("10.00")}
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(gomock.Any(), tx, userID).Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalance(gomock.Any(), tx, wallet.ID, decEq("60.00")).Return(nil)
	d.txRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, e *domain.Transaction) error {
			e.Sequence = 7
			return nil
		})

	entry, err := d.svc.Credit(ctx, userID, dec("50.00"), "")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeCredit, entry.Type)
	assert.True(t, entry.Amount.Equal(dec("50")))
	assert.True(t, entry.BalanceAfter.Equal(dec("60")))
	assert.Equal(t, domain.DefaultCreditDescription, entry.Description)
	assert.Equal(t, wallet.ID, entry.WalletID)
	assert.Equal(t, int64(7), entry.Sequence)
}

func TestWalletService_Credit_CreatesMissingWallet(t *testing.T) {
	d := setupWalletService(t)
	ctx := context.Background()
	userID := uuid.New()
	wallet := &domain.Wallet{ID: uuid.New(), UserID: userID, Balance: decimal.Zero}
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	gomock.InOrder(
		d.walletRepo.EXPECT().GetByUserIDForUpdate(gomock.Any(), tx, userID).Return(nil, nil),
		d.walletRepo.EXPECT().GetOrCreate(gomock.Any(), userID).Return(wallet, nil),
		d.walletRepo.EXPECT().GetByUserIDForUpdate(gomock.Any(), tx, userID).Return(wallet, nil),
	)
	d.walletRepo.EXPECT().UpdateBalance(gomock.Any(), tx, wallet.ID, decEq("5")).Return(nil)
	d.txRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)

	entry, err := d.svc.Credit(ctx, userID, dec("5.00"), "top up")
	require.NoError(t, err)
	assert.Equal(t, "top up", entry.Description)
}

func TestWalletService_Credit_InvalidAmounts(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"zero", "0"},
		{"negative", "-5.00"},
		{"three decimals", "1.005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupWalletService(t)
			tx := &mockTx{}
			d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)

			_, err := d.svc.Credit(context.Background(), uuid.New(), dec(tt.amount), "")
			assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransaction), err)
		})
	}
}

func TestWalletService_Credit_ExceedsMaxBalance(t *testing.T) {
	d := setupWalletService(t)
	userID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(gomock.Any(), tx, userID).
		Return(&domain.Wallet{ID: uuid.New(), UserID: userID, Balance: dec("9999999999.00")}, nil)

	_, err := d.svc.Credit(context.Background(), userID, dec("1.00"), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransaction))
}

func TestWalletService_Debit_Success(t *testing.T) {
	d := setupWalletService(t)
	userID := uuid.New()
	wallet := &domain.Wallet{ID: uuid.New(), UserID: userID, Balance: dec("100.00")}
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(gomock.Any(), tx, userID).Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalance(gomock.Any(), tx, wallet.ID, decEq("40.00")).Return(nil)
	d.txRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)

	entry, err := d.svc.Debit(context.Background(), userID, dec("60.00"), "Purchase: Mug x1")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeDebit, entry.Type)
	assert.True(t, entry.BalanceAfter.Equal(dec("40")))
}

func TestWalletService_Debit_InsufficientBalance(t *testing.T) {
	d := setupWalletService(t)
	userID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(gomock.Any(), tx, userID).
		Return(&domain.Wallet{ID: uuid.New(), UserID: userID, Balance: dec("40.00")}, nil)

	_, err := d.svc.Debit(context.Background(), userID, dec("60.00"), "")
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientBalance))

	details, ok := apperror.InsufficientBalanceDetails(err)
	require.True(t, ok)
	assert.True(t, details.Required.Equal(dec("60")))
	assert.True(t, details.Available.Equal(dec("40")))
	assert.True(t, details.Shortfall.Equal(dec("20")))
}

func TestWalletService_Debit_WalletNotFound(t *testing.T) {
	d := setupWalletService(t)
	userID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(gomock.Any(), tx, userID).Return(nil, nil)

	_, err := d.svc.Debit(context.Background(), userID, dec("1.00"), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeWalletNotFound))
}

func TestWalletService_Debit_LockFailure(t *testing.T) {
	d := setupWalletService(t)
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(gomock.Any(), tx, gomock.Any()).Return(nil, errors.New("deadlock"))

	_, err := d.svc.Debit(context.Background(), uuid.New(), dec("1.00"), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeInternal))
}

func TestWalletService_Debit_ClipsDescription(t *testing.T) {
	d := setupWalletService(t)
	userID := uuid.New()
	tx := &mockTx{}
	long := make([]rune, 300)
	for i := range long {
		long[i] = 'é'
	}

	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(gomock.Any(), tx, userID).
		Return(&domain.Wallet{ID: uuid.New(), UserID: userID, Balance: dec("5.00")}, nil)
	d.walletRepo.EXPECT().UpdateBalance(gomock.Any(), tx, gomock.Any(), gomock.Any()).Return(nil)
	d.txRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)

	entry, err := d.svc.Debit(context.Background(), userID, dec("1.00"), string(long))
	require.NoError(t, err)
	assert.Len(t, []rune(entry.Description), maxDescriptionLen)
}

func TestWalletService_Begin_Failure(t *testing.T) {
	d := setupWalletService(t)
	d.transactor.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("pool closed"))

	_, err := d.svc.Credit(context.Background(), uuid.New(), dec("1.00"), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeInternal))
}

func TestWalletService_GetOrCreateWallet_UnknownUser(t *testing.T) {
	d := setupWalletService(t)
	d.walletRepo.EXPECT().GetOrCreate(gomock.Any(), gomock.Any()).Return(nil, ports.ErrReferenced)

	_, err := d.svc.GetOrCreateWallet(context.Background(), uuid.New())
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}

func TestWalletService_GetBalance(t *testing.T) {
	d := setupWalletService(t)
	userID := uuid.New()
	d.walletRepo.EXPECT().GetOrCreate(gomock.Any(), userID).
		Return(&domain.Wallet{ID: uuid.New(), UserID: userID, Balance: dec("12.34")}, nil)

	balance, err := d.svc.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("12.34")))
}

func TestWalletService_CheckSufficientBalance(t *testing.T) {
	userID := uuid.New()
	tests := []struct {
		name   string
		wallet *domain.Wallet
		err    error
		amount string
		want   bool
	}{
		{"covers", &domain.Wallet{Balance: dec("10.00")}, nil, "10.00", true},
		{"short", &domain.Wallet{Balance: dec("9.99")}, nil, "10.00", false},
		{"no wallet", nil, nil, "0.01", false},
		{"read error", nil, errors.New("timeout"), "0.01", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupWalletService(t)
			d.walletRepo.EXPECT().GetByUserID(gomock.Any(), userID).Return(tt.wallet, tt.err)
			assert.Equal(t, tt.want, d.svc.CheckSufficientBalance(context.Background(), userID, dec(tt.amount)))
		})
	}
}

func TestWalletService_GetTransactionHistory(t *testing.T) {
	d := setupWalletService(t)
	userID := uuid.New()
	wallet := &domain.Wallet{ID: uuid.New(), UserID: userID}
	credit := domain.TransactionTypeCredit

	d.walletRepo.EXPECT().GetByUserID(gomock.Any(), userID).Return(wallet, nil)
	d.txRepo.EXPECT().ListByWallet(gomock.Any(), wallet.ID, ports.TransactionFilter{Type: &credit, Limit: DefaultHistoryLimit}).
		Return([]domain.Transaction{{ID: uuid.New(), Type: credit}}, nil)

	entries, err := d.svc.GetTransactionHistory(context.Background(), userID, ports.TransactionFilter{Type: &credit})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWalletService_GetTransactionHistory_NoWallet(t *testing.T) {
	d := setupWalletService(t)
	d.walletRepo.EXPECT().GetByUserID(gomock.Any(), gomock.Any()).Return(nil, nil)

	entries, err := d.svc.GetTransactionHistory(context.Background(), uuid.New(), ports.TransactionFilter{Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestWalletService_GetTransactionHistory_InvalidFilter(t *testing.T) {
	bogus := domain.TransactionType("REFUND")
	tests := []struct {
		name   string
		filter ports.TransactionFilter
	}{
		{"unknown type", ports.TransactionFilter{Type: &bogus}},
		{"limit too large", ports.TransactionFilter{Limit: MaxHistoryLimit + 1}},
		{"negative limit", ports.TransactionFilter{Limit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupWalletService(t)
			_, err := d.svc.GetTransactionHistory(context.Background(), uuid.New(), tt.filter)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}
