package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// Valid reports whether t is a known entry type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// Default descriptions when the caller supplies none.
const (
	DefaultCreditDescription = "Wallet credit"
	DefaultDebitDescription  = "Wallet debit"
)

// Transaction is an immutable ledger entry. BalanceAfter is the wallet
// balance immediately after this entry was applied.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	WalletID     uuid.UUID       `json:"wallet_id"`
	Sequence     int64           `json:"sequence"`
	Type         TransactionType `json:"transaction_type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after_transaction"`
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"timestamp"`
}

// SignedAmount is positive for credits and negative for debits.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// ReplayLedger rebuilds a balance from entries in application order
// (ascending Sequence) and verifies every BalanceAfter snapshot on the way.
func ReplayLedger(entries []Transaction) (decimal.Decimal, error) {
	balance := decimal.Zero
	for i := range entries {
		e := &entries[i]
		balance = balance.Add(e.SignedAmount())
		if balance.IsNegative() {
			return balance, fmt.Errorf("entry %s drives balance negative (%s)", e.ID, balance)
		}
		if !balance.Equal(e.BalanceAfter) {
			return balance, fmt.Errorf("entry %s snapshot %s does not match replayed balance %s",
				e.ID, e.BalanceAfter, balance)
		}
	}
	return balance, nil
}
