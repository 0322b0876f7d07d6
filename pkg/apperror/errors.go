package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Details    any    `json:"details,omitempty"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithDetails attaches structured context rendered alongside the message.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// Codes of the domain taxonomy.
const (
	CodeInvalidTransaction  = "TXN_001"
	CodeInsufficientBalance = "WAL_001"
	CodeWalletNotFound      = "WAL_002"
	CodeStockUnavailable    = "PRD_001"
	CodeProductNotFound     = "PRD_002"
	CodeProductInUse        = "PRD_003"
	CodeOrderNotFound       = "ORD_001"
	CodeUnauthorized        = "AUTH_001"
	CodeInvalidToken        = "AUTH_002"
	CodeUnauthorizedAccess  = "AUTH_003"
	CodeValidation          = "VAL_001"
	CodeConflict            = "VAL_002"
	CodeNotFound            = "VAL_003"
	CodeInternal            = "SYS_001"
	CodeRateLimited         = "SYS_002"
)

// BalanceShortfall is the context carried by InsufficientBalance.
type BalanceShortfall struct {
	Required  decimal.Decimal `json:"required_balance"`
	Available decimal.Decimal `json:"available_balance"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// StockShortage is the context carried by StockUnavailable.
type StockShortage struct {
	Product   string `json:"product"`
	Requested int    `json:"requested_quantity"`
	Available int    `json:"available_quantity"`
}

// ---- Transactions (TXN) ----

func InvalidTransaction(message string) *AppError {
	return New(CodeInvalidTransaction, message, http.StatusBadRequest)
}

// ---- Wallet (WAL) ----

// InsufficientBalance reports a debit that does not fit the balance.
// Shortfall is always required minus available.
func InsufficientBalance(required, available decimal.Decimal) *AppError {
	return New(CodeInsufficientBalance, "Insufficient wallet balance", http.StatusBadRequest).
		WithDetails(BalanceShortfall{
			Required:  required,
			Available: available,
			Shortfall: required.Sub(available),
		})
}

func WalletNotFound() *AppError {
	return New(CodeWalletNotFound, "Wallet not found for this user", http.StatusNotFound)
}

// ---- Catalog (PRD) ----

func StockUnavailable(product string, requested, available int) *AppError {
	return New(CodeStockUnavailable,
		fmt.Sprintf("Insufficient stock for %s", product), http.StatusBadRequest).
		WithDetails(StockShortage{
			Product:   product,
			Requested: requested,
			Available: available,
		})
}

func ProductNotFound(id uuid.UUID) *AppError {
	return New(CodeProductNotFound,
		fmt.Sprintf("Product with ID %s not found", id), http.StatusNotFound).
		WithDetails(map[string]string{"product_id": id.String()})
}

func ProductInUse(id uuid.UUID) *AppError {
	return New(CodeProductInUse, "Product is referenced by existing orders", http.StatusConflict).
		WithDetails(map[string]string{"product_id": id.String()})
}

// ---- Orders (ORD) ----

func OrderNotFound(id uuid.UUID) *AppError {
	return New(CodeOrderNotFound,
		fmt.Sprintf("Order with ID %s not found", id), http.StatusNotFound).
		WithDetails(map[string]string{"order_id": id.String()})
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New(CodeUnauthorized, "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

func UnauthorizedAccess(message string) *AppError {
	return New(CodeUnauthorizedAccess, message, http.StatusForbidden)
}

// ---- Validation (VAL) ----

// Validation returns a client input error.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func NotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests)
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// InsufficientBalanceDetails extracts the shortfall context from err.
func InsufficientBalanceDetails(err error) (BalanceShortfall, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return BalanceShortfall{}, false
	}
	d, ok := appErr.Details.(BalanceShortfall)
	return d, ok
}

// StockUnavailableDetails extracts the stock context from err.
func StockUnavailableDetails(err error) (StockShortage, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return StockShortage{}, false
	}
	d, ok := appErr.Details.(StockShortage)
	return d, ok
}
