// Package money provides the exact-decimal arithmetic used for all monetary
// values in the ledger. Amounts are shopspring decimals; binary floating point
// is never used on a money path.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Precision of stored amounts by kind.
const (
	// CurrencyPlaces is the precision for document-level amounts.
	CurrencyPlaces = 2
	// UnitCostPlaces is the precision for per-unit costs (inventory, assembly).
	UnitCostPlaces = 4
)

var (
	// ErrInvalidAmount is returned when a decimal string cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrDivisionByZero is returned instead of producing infinity or NaN.
	ErrDivisionByZero = errors.New("division by zero")
)

var hundred = decimal.NewFromInt(100)

// Parse converts a decimal string ("12.50") into an exact decimal value.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// ParseNonNegative parses a decimal string and rejects negative values.
func ParseNonNegative(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q must not be negative", ErrInvalidAmount, s)
	}
	return d, nil
}

// Add returns a + b.
func Add(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) }

// Sub returns a - b.
func Sub(a, b decimal.Decimal) decimal.Decimal { return a.Sub(b) }

// Mul returns a × b.
func Mul(a, b decimal.Decimal) decimal.Decimal { return a.Mul(b) }

// Div returns a ÷ b, guarding against a zero divisor.
func Div(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}
	return a.Div(b), nil
}

// PercentOf returns base × (rate / 100), unrounded.
// A rate of 18 means 18%.
func PercentOf(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}

// Round rounds half-up to the given number of decimal places.
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// RoundCurrency rounds to document-amount precision.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// RoundUnitCost rounds to per-unit cost precision.
func RoundUnitCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(UnitCostPlaces)
}
