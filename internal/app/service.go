package app

import (
	"context"

	"books-ledger/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from posting logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// PostInvoice computes totals for a sales invoice and posts the balanced
	// journal entry (DR receivable / CR revenue, tax payable).
	PostInvoice(ctx context.Context, doc core.DocumentInput) (*core.PostResult, error)

	// PostBill computes totals for a purchase bill and posts the balanced
	// journal entry (DR expense, input tax / CR payable).
	PostBill(ctx context.Context, doc core.DocumentInput) (*core.PostResult, error)

	// PostCreditNote posts the inverse of a sales invoice with the same totals.
	PostCreditNote(ctx context.Context, doc core.DocumentInput) (*core.PostResult, error)

	// TransferFunds moves money between two bank accounts of one company,
	// failing on overdraft or same-account transfers.
	TransferFunds(ctx context.Context, req core.TransferRequest) (*core.TransferResult, error)

	// BuildAssembly consumes component stock, receives finished goods at the
	// rolled-up unit cost, and books the manufacturing entry.
	BuildAssembly(ctx context.Context, req core.BuildRequest) (*core.BuildResult, error)

	// ValidatePosting runs the full posting path for a raw journal posting
	// without committing anything.
	ValidatePosting(ctx context.Context, posting core.Posting) error

	// PostJournal commits a raw balanced journal posting.
	PostJournal(ctx context.Context, posting core.Posting) error

	// ReverseEntry books the mirror image of a posted entry. An entry can only
	// be reversed once.
	ReverseEntry(ctx context.Context, entryID int, reason string) error

	// GetTrialBalance returns a trial balance for the given company.
	GetTrialBalance(ctx context.Context, companyCode string) (*TrialBalanceResult, error)

	// GetAccountStatement returns a chronological account statement with
	// running balance. fromDate and toDate are optional (empty = unbounded).
	GetAccountStatement(ctx context.Context, companyCode, accountCode, fromDate, toDate string) (*AccountStatementResult, error)

	// GetStockLevels returns current stock levels for all inventory items in a company.
	GetStockLevels(ctx context.Context, companyCode string) (*StockResult, error)

	// LoadDefaultCompany loads the active company. Uses COMPANY_CODE env var if
	// set; otherwise expects exactly one company in the database.
	LoadDefaultCompany(ctx context.Context) (*core.Company, error)
}
