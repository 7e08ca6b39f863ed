package app

import (
	"context"
	"fmt"
	"os"

	"books-ledger/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool             *pgxpool.Pool
	ledger           *core.Ledger
	postingService   core.PostingService
	bankingService   core.BankingService
	assemblyService  core.AssemblyService
	inventoryService core.InventoryService
	reportingService core.ReportingService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	ledger *core.Ledger,
	postingService core.PostingService,
	bankingService core.BankingService,
	assemblyService core.AssemblyService,
	inventoryService core.InventoryService,
	reportingService core.ReportingService,
) ApplicationService {
	return &appService{
		pool:             pool,
		ledger:           ledger,
		postingService:   postingService,
		bankingService:   bankingService,
		assemblyService:  assemblyService,
		inventoryService: inventoryService,
		reportingService: reportingService,
	}
}

func (s *appService) PostInvoice(ctx context.Context, doc core.DocumentInput) (*core.PostResult, error) {
	return s.postingService.PostSalesInvoice(ctx, doc)
}

func (s *appService) PostBill(ctx context.Context, doc core.DocumentInput) (*core.PostResult, error) {
	return s.postingService.PostPurchaseBill(ctx, doc)
}

func (s *appService) PostCreditNote(ctx context.Context, doc core.DocumentInput) (*core.PostResult, error) {
	return s.postingService.PostCreditNote(ctx, doc)
}

func (s *appService) TransferFunds(ctx context.Context, req core.TransferRequest) (*core.TransferResult, error) {
	return s.bankingService.Transfer(ctx, req)
}

func (s *appService) BuildAssembly(ctx context.Context, req core.BuildRequest) (*core.BuildResult, error) {
	return s.assemblyService.BuildAssembly(ctx, req)
}

func (s *appService) ValidatePosting(ctx context.Context, posting core.Posting) error {
	return s.ledger.Validate(ctx, posting)
}

func (s *appService) PostJournal(ctx context.Context, posting core.Posting) error {
	return s.ledger.Post(ctx, posting)
}

func (s *appService) ReverseEntry(ctx context.Context, entryID int, reason string) error {
	return s.ledger.Reverse(ctx, entryID, reason)
}

// GetTrialBalance returns the trial balance for the given company.
func (s *appService) GetTrialBalance(ctx context.Context, companyCode string) (*TrialBalanceResult, error) {
	var companyName, currency string
	if err := s.pool.QueryRow(ctx,
		"SELECT name, base_currency FROM companies WHERE company_code = $1", companyCode,
	).Scan(&companyName, &currency); err != nil {
		return nil, fmt.Errorf("company %s not found: %w", companyCode, err)
	}

	balances, err := s.ledger.GetBalances(ctx, companyCode)
	if err != nil {
		return nil, err
	}

	return &TrialBalanceResult{
		CompanyCode: companyCode,
		CompanyName: companyName,
		Currency:    currency,
		Accounts:    balances,
	}, nil
}

func (s *appService) GetAccountStatement(ctx context.Context, companyCode, accountCode, fromDate, toDate string) (*AccountStatementResult, error) {
	lines, err := s.reportingService.GetAccountStatement(ctx, companyCode, accountCode, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return &AccountStatementResult{
		CompanyCode: companyCode,
		AccountCode: accountCode,
		Lines:       lines,
	}, nil
}

func (s *appService) GetStockLevels(ctx context.Context, companyCode string) (*StockResult, error) {
	levels, err := s.inventoryService.GetStockLevels(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels, CompanyCode: companyCode}, nil
}

// LoadDefaultCompany loads the active company, using COMPANY_CODE env var if set.
func (s *appService) LoadDefaultCompany(ctx context.Context) (*core.Company, error) {
	if code := os.Getenv("COMPANY_CODE"); code != "" {
		c := &core.Company{}
		err := s.pool.QueryRow(ctx,
			"SELECT id, company_code, name, base_currency FROM companies WHERE company_code = $1", code,
		).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.BaseCurrency)
		if err != nil {
			return nil, fmt.Errorf("company %s not found: %w", code, err)
		}
		return c, nil
	}

	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM companies").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple companies found; set COMPANY_CODE env var (e.g. COMPANY_CODE=1000)")
	}

	c := &core.Company{}
	if err := s.pool.QueryRow(ctx,
		"SELECT id, company_code, name, base_currency FROM companies LIMIT 1",
	).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.BaseCurrency); err != nil {
		return nil, fmt.Errorf("no default company found, have migrations run?: %w", err)
	}
	return c, nil
}
