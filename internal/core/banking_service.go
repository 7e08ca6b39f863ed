package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransferRequest moves funds between two bank GL accounts of one company.
type TransferRequest struct {
	CompanyCode        string          `json:"company_code"`
	SourceAccountCode  string          `json:"source_account_code"`
	DestAccountCode    string          `json:"dest_account_code"`
	Amount             decimal.Decimal `json:"amount"`
	TransferDate       string          `json:"transfer_date"` // YYYY-MM-DD
	Memo               string          `json:"memo,omitempty"`
	IdempotencyKey     string          `json:"idempotency_key,omitempty"`
}

// TransferResult reports a posted transfer.
type TransferResult struct {
	DocumentNumber string          `json:"document_number"`
	EntryID        int             `json:"entry_id"`
	Amount         decimal.Decimal `json:"amount"`
	SourceBalance  decimal.Decimal `json:"source_balance"` // balance after the transfer
	DestBalance    decimal.Decimal `json:"dest_balance"`
}

// BankingService posts bank-to-bank transfers. The overdraft check reads the
// source account's running balance under a row lock, so concurrent transfers
// from the same account serialize and cannot jointly overdraw it.
type BankingService interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

type bankingService struct {
	pool   *pgxpool.Pool
	ledger *Ledger
}

func NewBankingService(pool *pgxpool.Pool, ledger *Ledger) BankingService {
	return &bankingService{pool: pool, ledger: ledger}
}

func (s *bankingService) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if req.SourceAccountCode == req.DestAccountCode {
		return nil, fmt.Errorf("%w: %s", ErrSameAccountTransfer, req.SourceAccountCode)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transfer tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var companyID int
	if err := tx.QueryRow(ctx,
		"SELECT id FROM companies WHERE company_code = $1", req.CompanyCode,
	).Scan(&companyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company code %s not found", req.CompanyCode)
		}
		return nil, fmt.Errorf("failed to resolve company: %w", err)
	}

	// Lock the source account and read its balance before forming any entry.
	var sourceBalance decimal.Decimal
	var sourceType AccountType
	if err := tx.QueryRow(ctx, `
		SELECT running_balance, type FROM accounts
		WHERE company_id = $1 AND code = $2
		FOR UPDATE
	`, companyID, req.SourceAccountCode).Scan(&sourceBalance, &sourceType); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: source account %s", ErrAccountNotFound, req.SourceAccountCode)
		}
		return nil, fmt.Errorf("failed to lock source account: %w", err)
	}
	if sourceType != Asset {
		return nil, fmt.Errorf("source account %s is %s, transfers require asset accounts", req.SourceAccountCode, sourceType)
	}

	entries, err := BuildTransferPosting(req.SourceAccountCode, req.DestAccountCode, sourceBalance, req.Amount)
	if err != nil {
		return nil, err
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	summary := fmt.Sprintf("Bank transfer %s → %s", req.SourceAccountCode, req.DestAccountCode)
	if req.Memo != "" {
		summary = fmt.Sprintf("%s: %s", summary, req.Memo)
	}

	posting := Posting{
		DocumentTypeCode: "BT",
		CompanyCode:      req.CompanyCode,
		IdempotencyKey:   idempotencyKey,
		Summary:          summary,
		PostingDate:      req.TransferDate,
		DocumentDate:     req.TransferDate,
		Lines:            entries,
	}

	if err := s.ledger.PostInTx(ctx, tx, posting); err != nil {
		return nil, err
	}

	var entryID int
	var documentNumber string
	if err := tx.QueryRow(ctx,
		"SELECT id, reference_id FROM journal_entries WHERE idempotency_key = $1", idempotencyKey,
	).Scan(&entryID, &documentNumber); err != nil {
		return nil, fmt.Errorf("failed to read back transfer entry: %w", err)
	}

	var newSource, newDest decimal.Decimal
	if err := tx.QueryRow(ctx,
		"SELECT running_balance FROM accounts WHERE company_id = $1 AND code = $2",
		companyID, req.SourceAccountCode,
	).Scan(&newSource); err != nil {
		return nil, fmt.Errorf("failed to read source balance: %w", err)
	}
	if err := tx.QueryRow(ctx,
		"SELECT running_balance FROM accounts WHERE company_id = $1 AND code = $2",
		companyID, req.DestAccountCode,
	).Scan(&newDest); err != nil {
		return nil, fmt.Errorf("failed to read destination balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transfer: %w", err)
	}

	return &TransferResult{
		DocumentNumber: documentNumber,
		EntryID:        entryID,
		Amount:         req.Amount,
		SourceBalance:  newSource,
		DestBalance:    newDest,
	}, nil
}
