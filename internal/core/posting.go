package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"books-ledger/internal/money"
)

// ── Posting header validation ─────────────────────────────────────────────────

// Normalize cleans up caller input: trims header fields and defaults the
// document date to the posting date when absent.
func (p *Posting) Normalize() {
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.PostingDate = strings.TrimSpace(p.PostingDate)
	p.DocumentDate = strings.TrimSpace(p.DocumentDate)

	if p.DocumentDate == "" && p.PostingDate != "" {
		p.DocumentDate = p.PostingDate
	}
}

// Validate enforces the structural rules on a posting before it touches the
// ledger: required header fields, parseable dates, at least two lines, strictly
// positive amounts, and exact debit/credit balance. Currency may be empty; the
// ledger falls back to the company's base currency. The balance check has no
// tolerance — rounding must have been settled when the lines were built.
func (p *Posting) Validate() error {
	if p.DocumentTypeCode == "" {
		return errors.New("posting must specify a document type code")
	}
	if p.CompanyCode == "" {
		return errors.New("posting must specify a company code")
	}
	if p.PostingDate == "" {
		return errors.New("posting must specify a posting date")
	}
	if _, err := time.Parse("2006-01-02", p.PostingDate); err != nil {
		return fmt.Errorf("invalid posting date format: %w", err)
	}
	if p.DocumentDate != "" {
		if _, err := time.Parse("2006-01-02", p.DocumentDate); err != nil {
			return fmt.Errorf("invalid document date format: %w", err)
		}
	}

	if len(p.Lines) < 2 {
		return errors.New("transaction must have at least 2 lines")
	}

	for _, line := range p.Lines {
		if line.AccountCode == "" {
			return errors.New("entry line must specify an account code")
		}
		if line.Amount.IsNegative() {
			return fmt.Errorf("amount cannot be negative for account %s", line.AccountCode)
		}
		if line.Amount.IsZero() {
			return fmt.Errorf("amount must be > 0 for account %s", line.AccountCode)
		}
	}

	return CheckBalance(p.Lines)
}

// TotalDebits sums the debit legs of an entry set.
func TotalDebits(lines []EntryLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.IsDebit {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// TotalCredits sums the credit legs of an entry set.
func TotalCredits(lines []EntryLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if !l.IsDebit {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// CheckBalance verifies Σdebits == Σcredits exactly.
func CheckBalance(lines []EntryLine) error {
	debits := TotalDebits(lines)
	credits := TotalCredits(lines)
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits %s != credits %s",
			ErrUnbalancedTransaction, debits.StringFixed(2), credits.StringFixed(2))
	}
	return nil
}

// settleResidual assigns any rounding residue to the line on the designated
// account so the set balances exactly before it is finalized. The residue is
// at most a few minor units; anything larger indicates a construction bug and
// is left for CheckBalance to reject.
func settleResidual(lines []EntryLine, designatedAccount string) []EntryLine {
	residual := TotalDebits(lines).Sub(TotalCredits(lines))
	if residual.IsZero() {
		return lines
	}
	if residual.Abs().GreaterThan(decimal.NewFromFloat(0.05)) {
		return lines
	}
	for i := range lines {
		if lines[i].AccountCode != designatedAccount {
			continue
		}
		// A positive residual means debits exceed credits: grow the designated
		// credit leg (or shrink the debit leg) by the residue, and vice versa.
		if lines[i].IsDebit {
			lines[i].Amount = lines[i].Amount.Sub(residual)
		} else {
			lines[i].Amount = lines[i].Amount.Add(residual)
		}
		return lines
	}
	return lines
}

// dropZeroLines removes legs whose amount rounded to zero (e.g. a tax-free
// document has no tax leg). Zero-amount lines are invalid on a posting.
func dropZeroLines(lines []EntryLine) []EntryLine {
	kept := lines[:0]
	for _, l := range lines {
		if !l.Amount.IsZero() {
			kept = append(kept, l)
		}
	}
	return kept
}

// ── Account bindings ──────────────────────────────────────────────────────────

// InvoiceAccounts are the resolved GL accounts a sales invoice posts to.
type InvoiceAccounts struct {
	Receivable            string // DR total − withholding
	Revenue               string // CR subtotal
	TaxPayable            string // CR ordinary tax
	WithholdingReceivable string // DR withholding deducted by the customer
}

// BillAccounts are the resolved GL accounts a purchase bill posts to.
type BillAccounts struct {
	ExpenseOrInventory string // DR subtotal
	InputTax           string // DR recoverable tax
	Payable            string // CR subtotal + tax, reduced by withholding
	WithholdingPayable string // CR withholding retained from the vendor
}

// AssemblyAccounts are the resolved GL accounts a manufacturing build posts to.
type AssemblyAccounts struct {
	FinishedGoods   string // DR total build cost
	RawMaterials    string // CR material cost
	LaborApplied    string // CR labor cost
	OverheadApplied string // CR overhead cost
	ExciseClearing  string // DR excise duty (separate liability leg)
	ExcisePayable   string // CR excise duty
}

// ── Entry derivation ──────────────────────────────────────────────────────────

// BuildInvoicePosting derives the balanced entry set for a sales invoice:
//
//	DR  AR                    (amount due)
//	DR  WHT receivable        (withholding, when present)
//	CR  Revenue               (subtotal)
//	CR  Tax payable           (ordinary tax)
//
// Withholding deducted by the customer is recognized as a receivable against
// the tax authority, so the transaction still balances: due + WHT = subtotal + tax.
func BuildInvoicePosting(totals *DocumentTotals, acc InvoiceAccounts) ([]EntryLine, error) {
	lines := []EntryLine{
		{AccountCode: acc.Receivable, IsDebit: true, Amount: totals.AmountDue, Description: "Accounts receivable"},
		{AccountCode: acc.WithholdingReceivable, IsDebit: true, Amount: totals.Withholding, Description: "Withholding tax receivable"},
		{AccountCode: acc.Revenue, IsDebit: false, Amount: totals.Subtotal, Description: "Revenue"},
		{AccountCode: acc.TaxPayable, IsDebit: false, Amount: totals.Tax, Description: "Tax payable"},
	}
	lines = dropZeroLines(lines)
	lines = settleResidual(lines, acc.TaxPayable)
	if err := CheckBalance(lines); err != nil {
		return nil, fmt.Errorf("invoice posting: %w", err)
	}
	return lines, nil
}

// BuildCreditNotePosting derives the entry set for a credit note: the exact
// inverse of the sales invoice posting for the same totals.
func BuildCreditNotePosting(totals *DocumentTotals, acc InvoiceAccounts) ([]EntryLine, error) {
	lines, err := BuildInvoicePosting(totals, acc)
	if err != nil {
		return nil, fmt.Errorf("credit note posting: %w", err)
	}
	for i := range lines {
		lines[i].IsDebit = !lines[i].IsDebit
	}
	return lines, nil
}

// BuildBillPosting derives the balanced entry set for a purchase bill:
//
//	DR  Expense / Inventory   (subtotal)
//	DR  Input tax             (recoverable tax)
//	CR  Accounts payable      (subtotal + tax)
//	DR  Accounts payable      (withholding, when present)
//	CR  WHT payable           (withholding)
//
// Withholding retained from the vendor reduces the net payable via the
// offsetting AP debit, keeping the gross liability visible on the account.
func BuildBillPosting(totals *DocumentTotals, acc BillAccounts) ([]EntryLine, error) {
	lines := []EntryLine{
		{AccountCode: acc.ExpenseOrInventory, IsDebit: true, Amount: totals.Subtotal, Description: "Expense / inventory"},
		{AccountCode: acc.InputTax, IsDebit: true, Amount: totals.Tax, Description: "Input tax"},
		{AccountCode: acc.Payable, IsDebit: false, Amount: totals.Total, Description: "Accounts payable"},
		{AccountCode: acc.Payable, IsDebit: true, Amount: totals.Withholding, Description: "Withholding offset"},
		{AccountCode: acc.WithholdingPayable, IsDebit: false, Amount: totals.Withholding, Description: "Withholding tax payable"},
	}
	lines = dropZeroLines(lines)
	lines = settleResidual(lines, acc.InputTax)
	if err := CheckBalance(lines); err != nil {
		return nil, fmt.Errorf("bill posting: %w", err)
	}
	return lines, nil
}

// BuildTransferPosting derives the entry set for a bank-to-bank transfer:
// DR destination GL account / CR source GL account. The source balance is the
// caller's row-locked running balance; the guard rejects overdrafts before any
// entry is formed.
func BuildTransferPosting(sourceAccount, destAccount string, sourceBalance, amount decimal.Decimal) ([]EntryLine, error) {
	if sourceAccount == destAccount {
		return nil, fmt.Errorf("%w: %s", ErrSameAccountTransfer, sourceAccount)
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, fmt.Errorf("transfer amount must be positive, got %s", amount)
	}
	if sourceBalance.LessThan(amount) {
		return nil, fmt.Errorf("%w: account %s has %s, transfer requires %s",
			ErrInsufficientFunds, sourceAccount, sourceBalance.StringFixed(2), amount.StringFixed(2))
	}
	amount = money.RoundCurrency(amount)
	return []EntryLine{
		{AccountCode: destAccount, IsDebit: true, Amount: amount, Description: "Transfer in"},
		{AccountCode: sourceAccount, IsDebit: false, Amount: amount, Description: "Transfer out"},
	}, nil
}

// BuildAssemblyPosting derives the entry set for a manufacturing build:
//
//	DR  Finished goods        (total build cost)
//	CR  Raw materials         (material cost)
//	CR  Labor applied         (labor cost)
//	CR  Overhead applied      (overhead cost)
//
// When an excise duty applies, a separate DR excise clearing / CR excise
// payable pair is appended. It is its own balanced leg, so the manufacturing
// entries above are never distorted by the duty.
func BuildAssemblyPosting(build AssemblyBuild, costing *CostingResult, acc AssemblyAccounts) ([]EntryLine, error) {
	lines := []EntryLine{
		{AccountCode: acc.FinishedGoods, IsDebit: true, Amount: costing.TotalCost, Description: "Finished goods inventory"},
		{AccountCode: acc.RawMaterials, IsDebit: false, Amount: costing.MaterialCost, Description: "Raw materials consumed"},
		{AccountCode: acc.LaborApplied, IsDebit: false, Amount: money.RoundCurrency(build.LaborCost), Description: "Labor applied"},
		{AccountCode: acc.OverheadApplied, IsDebit: false, Amount: money.RoundCurrency(build.OverheadCost), Description: "Overhead applied"},
	}
	lines = dropZeroLines(lines)
	lines = settleResidual(lines, acc.FinishedGoods)
	if err := CheckBalance(lines); err != nil {
		return nil, fmt.Errorf("assembly posting: %w", err)
	}

	if !build.ExciseDuty.IsZero() {
		duty := money.RoundCurrency(build.ExciseDuty)
		lines = append(lines,
			EntryLine{AccountCode: acc.ExciseClearing, IsDebit: true, Amount: duty, Description: "Excise duty clearing"},
			EntryLine{AccountCode: acc.ExcisePayable, IsDebit: false, Amount: duty, Description: "Excise duty payable"},
		)
		if err := CheckBalance(lines); err != nil {
			return nil, fmt.Errorf("assembly posting with excise: %w", err)
		}
	}
	return lines, nil
}
