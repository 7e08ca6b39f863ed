package core

import (
	"fmt"

	"github.com/shopspring/decimal"

	"books-ledger/internal/money"
)

// ComputeTotals aggregates document lines into document-level totals.
//
//	subtotal    = Σ (quantity × unit price − discount)
//	tax         = Σ ordinary tax across lines
//	withholding = Σ withholding tax across lines
//	total       = subtotal + tax
//	amountDue   = total − withholding
//
// The function is pure: calling it twice on the same input yields identical
// results. Line subtotals are rounded to currency precision before tax
// evaluation so the evaluated bases match the displayed figures.
func ComputeTotals(lines []LineItem) (*DocumentTotals, []LineResult, error) {
	totals := &DocumentTotals{
		Subtotal:    decimal.Zero,
		Tax:         decimal.Zero,
		Withholding: decimal.Zero,
	}

	results := make([]LineResult, 0, len(lines))
	for i, li := range lines {
		subtotal := money.RoundCurrency(li.LineSubtotal())

		taxResult, err := EvaluateTaxes(subtotal, li.TaxLines)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		results = append(results, LineResult{
			Subtotal:    subtotal,
			Tax:         *taxResult,
			Amount:      subtotal.Add(taxResult.Ordinary),
			Description: li.Description,
		})

		totals.Subtotal = totals.Subtotal.Add(subtotal)
		totals.Tax = totals.Tax.Add(taxResult.Ordinary)
		totals.Withholding = totals.Withholding.Add(taxResult.Withholding)
	}

	totals.Total = totals.Subtotal.Add(totals.Tax)
	totals.AmountDue = totals.Total.Sub(totals.Withholding)
	return totals, results, nil
}
