// Package money holds the fixed-point rules shared by every monetary value.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits stored for money.
const Scale = 2

// MaxBalance is the largest value a NUMERIC(12,2) column can hold.
var MaxBalance = decimal.RequireFromString("9999999999.99")

// HasValidScale reports whether d has at most two fractional digits.
func HasValidScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}

// IsPositive reports whether d is a strictly positive amount with a valid scale.
func IsPositive(d decimal.Decimal) bool {
	return d.IsPositive() && HasValidScale(d)
}

// Parse reads a decimal string and rejects values with more than two places.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if !HasValidScale(d) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d decimal places", s, Scale)
	}
	return d, nil
}

// Format renders d with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// Sum adds amounts exactly.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
