package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("WAL_001", "Insufficient wallet balance", http.StatusBadRequest),
			expected: "[WAL_001] Insufficient wallet balance",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := InternalError(inner)

	assert.True(t, errors.Is(appErr, inner))
	assert.Nil(t, Validation("bad").Unwrap())
}

func TestTaxonomy(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidTransaction", InvalidTransaction("Credit amount must be greater than zero"), CodeInvalidTransaction, 400},
		{"InsufficientBalance", InsufficientBalance(decimal.NewFromInt(10), decimal.Zero), CodeInsufficientBalance, 400},
		{"WalletNotFound", WalletNotFound(), CodeWalletNotFound, 404},
		{"StockUnavailable", StockUnavailable("Lamp", 3, 1), CodeStockUnavailable, 400},
		{"ProductNotFound", ProductNotFound(id), CodeProductNotFound, 404},
		{"ProductInUse", ProductInUse(id), CodeProductInUse, 409},
		{"OrderNotFound", OrderNotFound(id), CodeOrderNotFound, 404},
		{"InvalidCredentials", ErrInvalidCredentials(), CodeUnauthorized, 401},
		{"InvalidToken", ErrInvalidToken(), CodeInvalidToken, 401},
		{"UnauthorizedAccess", UnauthorizedAccess("admins only"), CodeUnauthorizedAccess, 403},
		{"Validation", Validation("bad"), CodeValidation, 400},
		{"Conflict", Conflict("dup"), CodeConflict, 409},
		{"NotFound", NotFound("user"), CodeNotFound, 404},
		{"Internal", InternalError(errors.New("boom")), CodeInternal, 500},
		{"RateLimited", ErrRateLimitExceeded(), CodeRateLimited, 429},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestInsufficientBalance_Details(t *testing.T) {
	err := fmt.Errorf("purchase: %w", InsufficientBalance(
		decimal.RequireFromString("60.00"),
		decimal.RequireFromString("40.00"),
	))

	d, ok := InsufficientBalanceDetails(err)
	require.True(t, ok)
	assert.Equal(t, "60", d.Required.String())
	assert.Equal(t, "40", d.Available.String())
	assert.True(t, d.Shortfall.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, HasCode(err, CodeInsufficientBalance))

	_, ok = StockUnavailableDetails(err)
	assert.False(t, ok)
}

func TestStockUnavailable_Details(t *testing.T) {
	d, ok := StockUnavailableDetails(StockUnavailable("Lamp", 7, 5))
	require.True(t, ok)
	assert.Equal(t, StockShortage{Product: "Lamp", Requested: 7, Available: 5}, d)

	_, ok = StockUnavailableDetails(errors.New("plain"))
	assert.False(t, ok)
}

func TestHasCode_NonAppError(t *testing.T) {
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}
