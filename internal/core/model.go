package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Equity    AccountType = "equity"
	Revenue   AccountType = "revenue"
	Expense   AccountType = "expense"
)

// DebitIncreases reports whether a debit increases the running balance for
// this account type. Asset and expense accounts are debit-normal; liability,
// equity and revenue accounts are credit-normal.
func (t AccountType) DebitIncreases() bool {
	return t == Asset || t == Expense
}

type Account struct {
	ID             int             `json:"id"`
	CompanyID      int             `json:"company_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

type Company struct {
	ID           int    `json:"id"`
	CompanyCode  string `json:"company_code"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

// ── Tax model ─────────────────────────────────────────────────────────────────

type TaxType string

const (
	TaxStandard    TaxType = "STANDARD"
	TaxReduced     TaxType = "REDUCED"
	TaxZero        TaxType = "ZERO"
	TaxExempt      TaxType = "EXEMPT"
	TaxWithholding TaxType = "WITHHOLDING"
	TaxCustom      TaxType = "CUSTOM"
)

// TaxLine is one tax rule applied to a line item. Within a line item's tax set,
// lines are evaluated in ascending CompoundSequence order; ties keep their
// original insertion order.
type TaxLine struct {
	Type             TaxType         `json:"type"`
	Rate             decimal.Decimal `json:"rate"` // percentage, 0–100
	IsCompound       bool            `json:"is_compound"`
	CompoundSequence int             `json:"compound_sequence"`
	IsWithholding    bool            `json:"is_withholding"`
	JurisdictionRef  string          `json:"jurisdiction_ref,omitempty"`
	RuleRef          string          `json:"rule_ref,omitempty"`
}

// LineItem is one commercial document line. LineSubtotal can be negative only
// by caller error; the engine does not clamp it.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TaxLines    []TaxLine       `json:"tax_lines,omitempty"`
}

// LineSubtotal returns quantity × unit price − discount.
func (li LineItem) LineSubtotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice).Sub(li.Discount)
}

// TaxAmount is the evaluated result of a single TaxLine.
type TaxAmount struct {
	Type          TaxType         `json:"type"`
	Rate          decimal.Decimal `json:"rate"`
	Amount        decimal.Decimal `json:"amount"`
	IsWithholding bool            `json:"is_withholding"`
}

// LineTaxResult holds the per-tax-line amounts and the line's tax rollup.
type LineTaxResult struct {
	Taxes       []TaxAmount     `json:"taxes"`
	Ordinary    decimal.Decimal `json:"ordinary"`    // accumulated non-withholding tax
	Withholding decimal.Decimal `json:"withholding"` // accumulated withholding tax
}

// LineResult is a line item after evaluation: subtotal, its taxes, and the
// displayed amount (subtotal + ordinary tax). Withholding is a document-level
// deduction and never appears in the line amount.
type LineResult struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         LineTaxResult   `json:"tax"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// DocumentTotals is the document-level rollup.
type DocumentTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Withholding decimal.Decimal `json:"withholding"`
	Total       decimal.Decimal `json:"total"`      // subtotal + tax
	AmountDue   decimal.Decimal `json:"amount_due"` // total − withholding
}

// ── Ledger model ──────────────────────────────────────────────────────────────

// EntryLine is a single debit or credit leg of a journal entry. Amount is
// always positive; the side is carried by IsDebit.
type EntryLine struct {
	AccountCode string          `json:"account_code"`
	IsDebit     bool            `json:"is_debit"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// Posting is a complete journal entry ready for the ledger: header metadata
// plus a set of entry lines that must balance exactly.
type Posting struct {
	DocumentTypeCode string      `json:"document_type_code"`
	CompanyCode      string      `json:"company_code"`
	IdempotencyKey   string      `json:"idempotency_key,omitempty"`
	Currency         string      `json:"currency"`
	Summary          string      `json:"summary"`
	PostingDate      string      `json:"posting_date"`  // YYYY-MM-DD
	DocumentDate     string      `json:"document_date"` // YYYY-MM-DD
	Lines            []EntryLine `json:"lines"`
}

type JournalEntry struct {
	ID              int           `json:"id"`
	CompanyID       int           `json:"company_id"`
	IdempotencyKey  string        `json:"idempotency_key,omitempty"`
	PostingDate     time.Time     `json:"posting_date"`
	DocumentDate    time.Time     `json:"document_date"`
	CreatedAt       time.Time     `json:"created_at"`
	Narration       string        `json:"narration"`
	ReferenceType   *string       `json:"reference_type,omitempty"`
	ReferenceID     *string       `json:"reference_id,omitempty"`
	ReversedEntryID *int          `json:"reversed_entry_id,omitempty"`
	Lines           []JournalLine `json:"lines"`
}

type JournalLine struct {
	ID        int             `json:"id"`
	EntryID   int             `json:"entry_id"`
	AccountID int             `json:"account_id"`
	Currency  string          `json:"currency"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// ── Document lifecycle ────────────────────────────────────────────────────────

type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusPosted    DocumentStatus = "POSTED"
	DocumentStatusCancelled DocumentStatus = "CANCELLED"
)

type DocumentType struct {
	Code              string `json:"code"`
	Name              string `json:"name"`
	AffectsInventory  bool   `json:"affects_inventory"`
	AffectsGL         bool   `json:"affects_gl"`
	AffectsAR         bool   `json:"affects_ar"`
	AffectsAP         bool   `json:"affects_ap"`
	NumberingStrategy string `json:"numbering_strategy"` // 'global', 'per_fy', 'per_branch'
	ResetsEveryFY     bool   `json:"resets_every_fy"`
}

type Document struct {
	ID             int            `json:"id"`
	CompanyID      int            `json:"company_id"`
	TypeCode       string         `json:"type_code"`
	Status         DocumentStatus `json:"status"`
	DocumentNumber *string        `json:"document_number,omitempty"`
	FinancialYear  *int           `json:"financial_year,omitempty"`
	BranchID       *int           `json:"branch_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	PostedAt       *time.Time     `json:"posted_at,omitempty"`
}

// ── Manufacturing model ───────────────────────────────────────────────────────

// ComponentConsumption is the material draw for one component in a build.
type ComponentConsumption struct {
	ComponentCode string          `json:"component_code"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
}

// AssemblyBuild describes a manufacturing run: components consumed, applied
// labor and overhead, and the finished output. WastageQuantity is recorded for
// audit but does not change the unit cost — wastage cost stays spread across
// the surviving output units.
type AssemblyBuild struct {
	OutputProductCode string                 `json:"output_product_code"`
	Components        []ComponentConsumption `json:"components"`
	LaborCost         decimal.Decimal        `json:"labor_cost"`
	OverheadCost      decimal.Decimal        `json:"overhead_cost"`
	OutputQuantity    decimal.Decimal        `json:"output_quantity"`
	WastageQuantity   decimal.Decimal        `json:"wastage_quantity"`
	ExciseDuty        decimal.Decimal        `json:"excise_duty"` // zero when no duty applies
}

// FinishedStock is the existing inventory position of the output product,
// used for the weighted-average recalculation.
type FinishedStock struct {
	QtyOnHand   decimal.Decimal `json:"qty_on_hand"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

// CostingResult is the rollup of one assembly build.
type CostingResult struct {
	MaterialCost   decimal.Decimal `json:"material_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	NewAverageCost decimal.Decimal `json:"new_average_cost"`
}
