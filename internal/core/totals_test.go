package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"books-ledger/internal/core"
)

func TestComputeTotals_MultiLineVAT(t *testing.T) {
	lines := []core.LineItem{
		{
			Description: "Widgets",
			Quantity:    dec("5"),
			UnitPrice:   dec("100.00"),
			Discount:    dec("50.00"),
			TaxLines:    []core.TaxLine{{Type: core.TaxStandard, Rate: dec("18")}},
		},
		{
			Description: "Gadgets",
			Quantity:    dec("4"),
			UnitPrice:   dec("100.00"),
			TaxLines:    []core.TaxLine{{Type: core.TaxStandard, Rate: dec("18")}},
		},
	}

	totals, results, err := core.ComputeTotals(lines)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "450.00", results[0].Subtotal.StringFixed(2))
	assert.Equal(t, "531.00", results[0].Amount.StringFixed(2))
	assert.Equal(t, "400.00", results[1].Subtotal.StringFixed(2))
	assert.Equal(t, "472.00", results[1].Amount.StringFixed(2))

	assert.Equal(t, "850.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "153.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "0.00", totals.Withholding.StringFixed(2))
	assert.Equal(t, "1003.00", totals.Total.StringFixed(2))
	assert.Equal(t, "1003.00", totals.AmountDue.StringFixed(2))
}

func TestComputeTotals_WithholdingReducesAmountDue(t *testing.T) {
	lines := []core.LineItem{
		{
			Description: "Consulting services",
			Quantity:    dec("1"),
			UnitPrice:   dec("1000.00"),
			TaxLines: []core.TaxLine{
				{Type: core.TaxStandard, Rate: dec("12"), CompoundSequence: 1},
				{Type: core.TaxWithholding, Rate: dec("5"), CompoundSequence: 2},
			},
		},
	}

	totals, results, err := core.ComputeTotals(lines)
	require.NoError(t, err)

	assert.Equal(t, "1000.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "120.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "50.00", totals.Withholding.StringFixed(2))
	assert.Equal(t, "1120.00", totals.Total.StringFixed(2))
	assert.Equal(t, "1070.00", totals.AmountDue.StringFixed(2))

	// Withholding never appears in the line amount.
	assert.Equal(t, "1120.00", results[0].Amount.StringFixed(2))
}

func TestComputeTotals_RoundsLineSubtotalBeforeTax(t *testing.T) {
	lines := []core.LineItem{
		{
			Quantity:  dec("3"),
			UnitPrice: dec("33.333"),
			TaxLines:  []core.TaxLine{{Type: core.TaxStandard, Rate: dec("10")}},
		},
	}

	totals, results, err := core.ComputeTotals(lines)
	require.NoError(t, err)

	// 3 × 33.333 = 99.999 rounds to 100.00 before the 10% is applied.
	assert.Equal(t, "100.00", results[0].Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", totals.Tax.StringFixed(2))
}

func TestComputeTotals_Idempotent(t *testing.T) {
	lines := []core.LineItem{
		{
			Quantity:  dec("7"),
			UnitPrice: dec("19.99"),
			Discount:  dec("4.93"),
			TaxLines: []core.TaxLine{
				{Type: core.TaxStandard, Rate: dec("18"), CompoundSequence: 1},
				{Type: core.TaxCustom, Rate: dec("1"), IsCompound: true, CompoundSequence: 2},
			},
		},
	}

	first, _, err := core.ComputeTotals(lines)
	require.NoError(t, err)
	second, _, err := core.ComputeTotals(lines)
	require.NoError(t, err)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.Tax.Equal(second.Tax))
	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.AmountDue.Equal(second.AmountDue))
}

func TestComputeTotals_EmptyDocument(t *testing.T) {
	totals, results, err := core.ComputeTotals(nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Total.IsZero())
	assert.True(t, totals.AmountDue.IsZero())
}

func TestComputeTotals_InvalidRateNamesLine(t *testing.T) {
	lines := []core.LineItem{
		{Quantity: dec("1"), UnitPrice: dec("10.00")},
		{
			Quantity:  dec("1"),
			UnitPrice: dec("10.00"),
			TaxLines:  []core.TaxLine{{Type: core.TaxStandard, Rate: dec("-5")}},
		},
	}

	_, _, err := core.ComputeTotals(lines)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidTaxRate)
	assert.Contains(t, err.Error(), "line 2")
}
