package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProduct_StockFlags(t *testing.T) {
	tests := []struct {
		name     string
		stock    int
		inStock  bool
		lowStock bool
	}{
		{"empty", 0, false, false},
		{"one left", 1, true, true},
		{"nine left", 9, true, true},
		{"threshold", 10, true, false},
		{"plenty", 250, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{StockQuantity: tt.stock}
			assert.Equal(t, tt.inStock, p.IsInStock())
			assert.Equal(t, tt.lowStock, p.IsLowStock())
		})
	}
}

func TestProduct_ReduceStock(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		quantity  int
		wantErr   error
		wantStock int
	}{
		{"partial", 5, 2, nil, 3},
		{"all of it", 5, 5, nil, 0},
		{"too many", 5, 6, ErrInsufficientStock, 5},
		{"zero", 5, 0, ErrInvalidQuantity, 5},
		{"negative", 5, -1, ErrInvalidQuantity, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{StockQuantity: tt.stock}
			err := p.ReduceStock(tt.quantity)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantStock, p.StockQuantity)
		})
	}
}

func TestProduct_ReduceToZeroLeavesOutOfStock(t *testing.T) {
	p := &Product{StockQuantity: 5}
	require.NoError(t, p.ReduceStock(5))
	assert.False(t, p.IsInStock())
}

func TestProduct_IncreaseStock(t *testing.T) {
	p := &Product{StockQuantity: 0}
	require.NoError(t, p.IncreaseStock(12))
	assert.Equal(t, 12, p.StockQuantity)
	assert.ErrorIs(t, p.IncreaseStock(0), ErrInvalidQuantity)
}

func TestProduct_TotalFor(t *testing.T) {
	p := &Product{Price: dec("19.99")}
	assert.True(t, p.TotalFor(3).Equal(dec("59.97")))
}

func TestTransaction_SignedAmount(t *testing.T) {
	credit := Transaction{Type: TransactionTypeCredit, Amount: dec("5.00")}
	debit := Transaction{Type: TransactionTypeDebit, Amount: dec("5.00")}

	assert.True(t, credit.SignedAmount().Equal(dec("5")))
	assert.True(t, debit.SignedAmount().Equal(dec("-5")))
}

func TestReplayLedger(t *testing.T) {
	entries := []Transaction{
		{ID: uuid.New(), Type: TransactionTypeCredit, Amount: dec("50.00"), BalanceAfter: dec("50.00")},
		{ID: uuid.New(), Type: TransactionTypeDebit, Amount: dec("50.00"), BalanceAfter: dec("0.00")},
	}

	balance, err := ReplayLedger(entries)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestReplayLedger_DetectsSnapshotMismatch(t *testing.T) {
	entries := []Transaction{
		{ID: uuid.New(), Type: TransactionTypeCredit, Amount: dec("50.00"), BalanceAfter: dec("50.00")},
		{ID: uuid.New(), Type: TransactionTypeDebit, Amount: dec("10.00"), BalanceAfter: dec("45.00")},
	}

	_, err := ReplayLedger(entries)
	assert.Error(t, err)
}

func TestReplayLedger_DetectsNegativeBalance(t *testing.T) {
	entries := []Transaction{
		{ID: uuid.New(), Type: TransactionTypeDebit, Amount: dec("1.00"), BalanceAfter: dec("-1.00")},
	}

	_, err := ReplayLedger(entries)
	assert.Error(t, err)
}

func TestWallet_CanCover(t *testing.T) {
	w := NewWallet(uuid.New())
	assert.True(t, w.Balance.IsZero())
	assert.True(t, w.CanCover(decimal.Zero))
	assert.False(t, w.CanCover(dec("0.01")))

	w.Balance = dec("10.00")
	assert.True(t, w.CanCover(dec("10")))
}

func TestUser_Roles(t *testing.T) {
	admin := &User{Role: UserRoleAdmin}
	customer := &User{Role: UserRoleCustomer, Username: "jdoe"}

	assert.True(t, admin.IsAdmin())
	assert.False(t, admin.IsCustomer())
	assert.True(t, customer.IsCustomer())
	assert.Equal(t, "jdoe", customer.FullName())
	assert.False(t, UserRole("ROOT").Valid())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusCompleted.Valid())
	assert.True(t, OrderStatusFailed.Valid())
	assert.True(t, OrderStatusPending.Valid())
	assert.False(t, OrderStatus("SHIPPED").Valid())
}

func TestBuildPurchaseIdempotencyKey(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	key := BuildPurchaseIdempotencyKey(id, "cart-42")
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000:purchase:cart-42", key)
	assert.Equal(t, 209, MaxClientIdempotencyKeyLength)
}
