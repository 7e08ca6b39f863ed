package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"books-ledger/internal/money"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParse(t *testing.T) {
	d, err := money.Parse("12.50")
	require.NoError(t, err)
	assert.True(t, d.Equal(dec("12.5")))

	d, err = money.Parse("-3.99")
	require.NoError(t, err)
	assert.True(t, d.IsNegative())

	_, err = money.Parse("12.5.0")
	assert.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = money.Parse("")
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestParseNonNegative(t *testing.T) {
	d, err := money.ParseNonNegative("0")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = money.ParseNonNegative("-0.01")
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestDiv(t *testing.T) {
	q, err := money.Div(dec("10"), dec("4"))
	require.NoError(t, err)
	assert.True(t, q.Equal(dec("2.5")))

	_, err = money.Div(dec("10"), decimal.Zero)
	assert.ErrorIs(t, err, money.ErrDivisionByZero)
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		base, rate, want string
	}{
		{"850.00", "18", "153"},
		{"100.00", "0", "0"},
		{"118.00", "2", "2.36"},
		{"1000.00", "5", "50"},
	}
	for _, tt := range tests {
		got := money.PercentOf(dec(tt.base), dec(tt.rate))
		assert.True(t, got.Equal(dec(tt.want)), "PercentOf(%s, %s) = %s, want %s", tt.base, tt.rate, got, tt.want)
	}
}

func TestRounding(t *testing.T) {
	// Half-up at currency precision.
	assert.Equal(t, "2.35", money.RoundCurrency(dec("2.345")).StringFixed(2))
	assert.Equal(t, "2.34", money.RoundCurrency(dec("2.344")).StringFixed(2))
	assert.Equal(t, "10.00", money.RoundCurrency(dec("9.999")).StringFixed(2))

	// Unit costs keep four places.
	assert.Equal(t, "5.7501", money.RoundUnitCost(dec("5.75005")).StringFixed(4))
	assert.Equal(t, "9.5000", money.RoundUnitCost(dec("9.5")).StringFixed(4))
}
