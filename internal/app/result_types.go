package app

import "books-ledger/internal/core"

// TrialBalanceResult is returned by GetTrialBalance.
type TrialBalanceResult struct {
	CompanyCode string
	CompanyName string
	Currency    string
	Accounts    []core.AccountBalance
}

// AccountStatementResult is returned by GetAccountStatement.
type AccountStatementResult struct {
	CompanyCode string
	AccountCode string
	Lines       []core.StatementLine
}

// StockResult is returned by GetStockLevels.
type StockResult struct {
	Levels      []core.StockLevel
	CompanyCode string
}
