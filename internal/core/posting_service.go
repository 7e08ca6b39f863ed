package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentInput is a commercial document handed to the posting engine by the
// edge layer: header data plus line items. It is validated once here; the
// pure calculators assume well-formed values.
type DocumentInput struct {
	CompanyCode    string     `json:"company_code"`
	PartyRef       string     `json:"party_ref"` // customer or vendor reference
	Currency       string     `json:"currency"`
	PostingDate    string     `json:"posting_date"`
	DocumentDate   string     `json:"document_date"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	Lines          []LineItem `json:"lines"`
}

// PostResult reports a successful posting back to the caller.
type PostResult struct {
	DocumentNumber string         `json:"document_number"`
	EntryID        int            `json:"entry_id"`
	Totals         DocumentTotals `json:"totals"`
	Lines          []LineResult   `json:"lines"`
	Entries        []EntryLine    `json:"entries"`
}

// PostingService turns commercial documents into posted ledger transactions:
// sales invoices, purchase bills, and credit notes.
type PostingService interface {
	PostSalesInvoice(ctx context.Context, doc DocumentInput) (*PostResult, error)
	PostPurchaseBill(ctx context.Context, doc DocumentInput) (*PostResult, error)
	PostCreditNote(ctx context.Context, doc DocumentInput) (*PostResult, error)
}

type postingService struct {
	pool       *pgxpool.Pool
	ledger     *Ledger
	ruleEngine RuleEngine
}

func NewPostingService(pool *pgxpool.Pool, ledger *Ledger, ruleEngine RuleEngine) PostingService {
	return &postingService{pool: pool, ledger: ledger, ruleEngine: ruleEngine}
}

// PostSalesInvoice computes document totals and books
// DR AR / CR Revenue / CR Tax payable (plus the withholding-receivable leg
// when the customer deducts withholding tax).
func (s *postingService) PostSalesInvoice(ctx context.Context, doc DocumentInput) (*PostResult, error) {
	return s.post(ctx, doc, "SI", false, fmt.Sprintf("Sales invoice — %s", doc.PartyRef))
}

// PostCreditNote books the exact inverse of a sales invoice with the same
// totals, crediting the customer's receivable.
func (s *postingService) PostCreditNote(ctx context.Context, doc DocumentInput) (*PostResult, error) {
	return s.post(ctx, doc, "CN", false, fmt.Sprintf("Credit note — %s", doc.PartyRef))
}

// PostPurchaseBill computes document totals and books
// DR Expense + DR Input tax / CR AP (plus the withholding-payable pair when
// withholding is retained from the vendor).
func (s *postingService) PostPurchaseBill(ctx context.Context, doc DocumentInput) (*PostResult, error) {
	return s.post(ctx, doc, "PI", true, fmt.Sprintf("Purchase bill — %s", doc.PartyRef))
}

func (s *postingService) post(ctx context.Context, doc DocumentInput, typeCode string, isBill bool, summary string) (*PostResult, error) {
	if len(doc.Lines) == 0 {
		return nil, fmt.Errorf("document must have at least one line")
	}

	totals, lineResults, err := ComputeTotals(doc.Lines)
	if err != nil {
		return nil, fmt.Errorf("compute totals: %w", err)
	}

	var companyID int
	var baseCurrency string
	if err := s.pool.QueryRow(ctx,
		"SELECT id, base_currency FROM companies WHERE company_code = $1", doc.CompanyCode,
	).Scan(&companyID, &baseCurrency); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company code %s not found", doc.CompanyCode)
		}
		return nil, fmt.Errorf("failed to resolve company: %w", err)
	}

	var entries []EntryLine
	if isBill {
		ruleTypes := []string{RuleAP, RuleInputTax, RulePurchaseExpense}
		if !totals.Withholding.IsZero() {
			ruleTypes = append(ruleTypes, RuleWHTPayable)
		}
		accounts, err := s.ruleEngine.ResolveAccounts(ctx, companyID, ruleTypes...)
		if err != nil {
			return nil, err
		}
		entries, err = BuildBillPosting(totals, BillAccounts{
			ExpenseOrInventory: accounts[RulePurchaseExpense],
			InputTax:           accounts[RuleInputTax],
			Payable:            accounts[RuleAP],
			WithholdingPayable: accounts[RuleWHTPayable],
		})
		if err != nil {
			return nil, err
		}
	} else {
		ruleTypes := []string{RuleAR, RuleRevenue, RuleTaxPayable}
		if !totals.Withholding.IsZero() {
			ruleTypes = append(ruleTypes, RuleWHTReceivable)
		}
		accounts, err := s.ruleEngine.ResolveAccounts(ctx, companyID, ruleTypes...)
		if err != nil {
			return nil, err
		}
		invoiceAccounts := InvoiceAccounts{
			Receivable:            accounts[RuleAR],
			Revenue:               accounts[RuleRevenue],
			TaxPayable:            accounts[RuleTaxPayable],
			WithholdingReceivable: accounts[RuleWHTReceivable],
		}
		if typeCode == "CN" {
			entries, err = BuildCreditNotePosting(totals, invoiceAccounts)
		} else {
			entries, err = BuildInvoicePosting(totals, invoiceAccounts)
		}
		if err != nil {
			return nil, err
		}
	}

	idempotencyKey := doc.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	currency := doc.Currency
	if currency == "" {
		currency = baseCurrency
	}

	posting := Posting{
		DocumentTypeCode: typeCode,
		CompanyCode:      doc.CompanyCode,
		IdempotencyKey:   idempotencyKey,
		Currency:         currency,
		Summary:          summary,
		PostingDate:      doc.PostingDate,
		DocumentDate:     doc.DocumentDate,
		Lines:            entries,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin posting tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.ledger.PostInTx(ctx, tx, posting); err != nil {
		return nil, err
	}

	var entryID int
	var documentNumber string
	if err := tx.QueryRow(ctx, `
		SELECT id, reference_id FROM journal_entries WHERE idempotency_key = $1
	`, idempotencyKey).Scan(&entryID, &documentNumber); err != nil {
		return nil, fmt.Errorf("failed to read back posted entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit posting tx: %w", err)
	}

	return &PostResult{
		DocumentNumber: documentNumber,
		EntryID:        entryID,
		Totals:         *totals,
		Lines:          lineResults,
		Entries:        entries,
	}, nil
}
