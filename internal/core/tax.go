package core

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"books-ledger/internal/money"
)

// EvaluateTaxes computes the tax amounts for one line item given its pre-tax
// subtotal and ordered tax lines.
//
// Tax lines are processed in ascending CompoundSequence order (stable for
// ties). A compound line is taxed on subtotal plus the non-withholding tax
// accumulated so far; a non-compound line is taxed on the bare subtotal. Each
// amount is rounded to currency precision as it is computed, so later compound
// bases see the rounded figures a reader of the document would see.
//
// Withholding lines are computed on the same bases but accumulate separately:
// they never increase the compound base for later lines, and they reduce the
// amount due at document level rather than the invoiced total.
func EvaluateTaxes(lineSubtotal decimal.Decimal, taxLines []TaxLine) (*LineTaxResult, error) {
	for _, tl := range taxLines {
		if tl.Rate.IsNegative() {
			return nil, fmt.Errorf("%w: rate %s on %s tax line", ErrInvalidTaxRate, tl.Rate, tl.Type)
		}
		if tl.Rate.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("%w: rate %s exceeds 100%%", ErrInvalidTaxRate, tl.Rate)
		}
	}

	ordered := make([]TaxLine, len(taxLines))
	copy(ordered, taxLines)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CompoundSequence < ordered[j].CompoundSequence
	})

	result := &LineTaxResult{
		Ordinary:    decimal.Zero,
		Withholding: decimal.Zero,
	}
	accumulated := decimal.Zero

	for _, tl := range ordered {
		base := lineSubtotal
		if tl.IsCompound {
			base = lineSubtotal.Add(accumulated)
		}

		amount := money.RoundCurrency(money.PercentOf(base, tl.Rate))

		withholding := tl.IsWithholding || tl.Type == TaxWithholding
		if withholding {
			result.Withholding = result.Withholding.Add(amount)
		} else {
			accumulated = accumulated.Add(amount)
			result.Ordinary = result.Ordinary.Add(amount)
		}

		result.Taxes = append(result.Taxes, TaxAmount{
			Type:          tl.Type,
			Rate:          tl.Rate,
			Amount:        amount,
			IsWithholding: withholding,
		})
	}

	return result, nil
}
