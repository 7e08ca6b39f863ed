package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerService is the write interface to the general ledger.
type LedgerService interface {
	Post(ctx context.Context, posting Posting) error
	Validate(ctx context.Context, posting Posting) error
	GetBalances(ctx context.Context, companyCode string) ([]AccountBalance, error)
	Reverse(ctx context.Context, entryID int, reason string) error
}

// Ledger persists balanced postings as journal entries + lines and maintains
// each account's running balance under the double-entry sign convention.
// Entry creation and balance updates always happen inside one transaction.
type Ledger struct {
	pool       *pgxpool.Pool
	docService DocumentService
}

func NewLedger(pool *pgxpool.Pool, docService DocumentService) *Ledger {
	return &Ledger{pool: pool, docService: docService}
}

// Post commits a posting in its own transaction.
func (l *Ledger) Post(ctx context.Context, posting Posting) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := l.PostInTx(ctx, tx, posting); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Validate runs the full posting path inside a transaction that is always
// rolled back: structural checks, company/account resolution, balance rules.
func (l *Ledger) Validate(ctx context.Context, posting Posting) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	return l.PostInTx(ctx, tx, posting)
}

// PostInTx commits a posting within the caller's transaction. Used by the
// domain services to keep ledger writes atomic with their own state changes
// (inventory movements, document transitions, assembly records).
func (l *Ledger) PostInTx(ctx context.Context, tx pgx.Tx, posting Posting) error {
	posting.Normalize()
	if err := posting.Validate(); err != nil {
		return fmt.Errorf("posting validation failed: %w", err)
	}

	var companyID int
	var baseCurrency string
	err := tx.QueryRow(ctx,
		"SELECT id, base_currency FROM companies WHERE company_code = $1",
		posting.CompanyCode,
	).Scan(&companyID, &baseCurrency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("company code %s not found", posting.CompanyCode)
		}
		return fmt.Errorf("failed to fetch company ID: %w", err)
	}

	// Create and post the controlling document inside the same transaction so
	// a failed journal insert rolls the document back too. Posting an already
	// posted document fails here with ErrAlreadyPosted.
	var draftDocID int
	err = tx.QueryRow(ctx, `
		INSERT INTO documents (company_id, type_code, status, financial_year, branch_id)
		VALUES ($1, $2, $3, NULL, NULL)
		RETURNING id
	`, companyID, posting.DocumentTypeCode, string(DocumentStatusDraft)).Scan(&draftDocID)
	if err != nil {
		return fmt.Errorf("failed to create draft document: %w", err)
	}

	if err = l.docService.PostDocumentTx(ctx, tx, draftDocID); err != nil {
		return fmt.Errorf("failed to post document: %w", err)
	}

	var documentNumber string
	err = tx.QueryRow(ctx, "SELECT document_number FROM documents WHERE id = $1", draftDocID).Scan(&documentNumber)
	if err != nil {
		return fmt.Errorf("failed to retrieve posted document number: %w", err)
	}
	referenceType := "DOCUMENT"

	// Insert the journal entry header. A duplicate idempotency key means this
	// business event was already posted.
	var entryID int
	if posting.IdempotencyKey != "" {
		err = tx.QueryRow(ctx, `
			INSERT INTO journal_entries (company_id, narration, posting_date, document_date, reference_type, reference_id, idempotency_key, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			ON CONFLICT (idempotency_key) DO NOTHING
			RETURNING id
		`, companyID, posting.Summary, posting.PostingDate, posting.DocumentDate, referenceType, documentNumber, posting.IdempotencyKey).Scan(&entryID)
	} else {
		err = tx.QueryRow(ctx, `
			INSERT INTO journal_entries (company_id, narration, posting_date, document_date, reference_type, reference_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING id
		`, companyID, posting.Summary, posting.PostingDate, posting.DocumentDate, referenceType, documentNumber).Scan(&entryID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: idempotency key %s already posted", ErrAlreadyPosted, posting.IdempotencyKey)
		}
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}

	currency := posting.Currency
	if currency == "" {
		currency = baseCurrency
	}

	for _, line := range posting.Lines {
		if err := l.applyLineTx(ctx, tx, companyID, entryID, currency, line); err != nil {
			return err
		}
	}

	return nil
}

// applyLineTx inserts one journal line and updates the account's running
// balance. The account row is locked FOR UPDATE so concurrent postings against
// the same account serialize their balance updates.
func (l *Ledger) applyLineTx(ctx context.Context, tx pgx.Tx, companyID, entryID int, currency string, line EntryLine) error {
	var accountID int
	var accountType AccountType
	err := tx.QueryRow(ctx, `
		SELECT id, type FROM accounts
		WHERE company_id = $1 AND code = $2
		FOR UPDATE
	`, companyID, line.AccountCode).Scan(&accountID, &accountType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: code %s for company %d", ErrAccountNotFound, line.AccountCode, companyID)
		}
		return fmt.Errorf("failed to fetch account ID for code %s: %w", line.AccountCode, err)
	}

	var debit, credit decimal.Decimal
	if line.IsDebit {
		debit = line.Amount
	} else {
		credit = line.Amount
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO journal_lines (entry_id, account_id, currency, debit, credit)
		VALUES ($1, $2, $3, $4, $5)
	`, entryID, accountID, currency, debit.StringFixed(2), credit.StringFixed(2))
	if err != nil {
		return fmt.Errorf("failed to insert journal line: %w", err)
	}

	// Sign convention: debit increases asset/expense balances and decreases
	// the rest; credit is the inverse.
	delta := line.Amount
	if line.IsDebit != accountType.DebitIncreases() {
		delta = delta.Neg()
	}
	_, err = tx.Exec(ctx, `
		UPDATE accounts SET running_balance = running_balance + $1 WHERE id = $2
	`, delta, accountID)
	if err != nil {
		return fmt.Errorf("failed to update running balance for account %s: %w", line.AccountCode, err)
	}

	return nil
}

// AccountBalance is one row of the trial balance.
type AccountBalance struct {
	Code    string
	Name    string
	Type    AccountType
	Balance decimal.Decimal
}

// GetBalances returns the running balance of every account for a company,
// ordered by account code.
func (l *Ledger) GetBalances(ctx context.Context, companyCode string) ([]AccountBalance, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT a.code, a.name, a.type, a.running_balance
		FROM accounts a
		JOIN companies c ON c.id = a.company_id
		WHERE c.company_code = $1
		ORDER BY a.code
	`, companyCode)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.Code, &b.Name, &b.Type, &b.Balance); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, nil
}

// Reverse books the mirror image of a posted entry: debits and credits are
// swapped, and every touched account's running balance is adjusted back under
// the same sign convention. An entry can only be reversed once.
func (l *Ledger) Reverse(ctx context.Context, entryID int, reason string) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var narration string
	var companyID int
	err = tx.QueryRow(ctx, "SELECT company_id, narration FROM journal_entries WHERE id = $1", entryID).Scan(&companyID, &narration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("entry %d not found", entryID)
		}
		return fmt.Errorf("failed to fetch entry %d: %w", entryID, err)
	}

	var count int
	err = tx.QueryRow(ctx, "SELECT count(*) FROM journal_entries WHERE reversed_entry_id = $1", entryID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check reversal status: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("entry %d is already reversed", entryID)
	}

	reversalNarration := fmt.Sprintf("Reversal of entry %d: %s", entryID, narration)
	var newEntryID int
	// The reversal reuses the original posting_date and document_date.
	err = tx.QueryRow(ctx, `
		INSERT INTO journal_entries (company_id, narration, posting_date, document_date, reference_type, reference_id, reversed_entry_id, created_at)
		SELECT company_id, $1, posting_date, document_date, 'REVERSAL', $2, $3, NOW()
		FROM journal_entries WHERE id = $3
		RETURNING id
	`, reversalNarration, reason, entryID).Scan(&newEntryID)
	if err != nil {
		return fmt.Errorf("failed to insert reversal entry: %w", err)
	}

	rows, err := tx.Query(ctx,
		"SELECT account_id, currency, debit, credit FROM journal_lines WHERE entry_id = $1", entryID)
	if err != nil {
		return fmt.Errorf("failed to fetch lines for entry %d: %w", entryID, err)
	}

	type lineData struct {
		accountID int
		currency  string
		debit     decimal.Decimal
		credit    decimal.Decimal
	}
	var lines []lineData
	for rows.Next() {
		var ld lineData
		if err := rows.Scan(&ld.accountID, &ld.currency, &ld.debit, &ld.credit); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, ld)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating lines: %w", err)
	}

	for _, line := range lines {
		// Invert debits and credits for the reversal
		_, err := tx.Exec(ctx, `
			INSERT INTO journal_lines (entry_id, account_id, currency, debit, credit)
			VALUES ($1, $2, $3, $4, $5)
		`, newEntryID, line.accountID, line.currency, line.credit.StringFixed(2), line.debit.StringFixed(2))
		if err != nil {
			return fmt.Errorf("failed to insert inverted line: %w", err)
		}

		var accountType AccountType
		if err := tx.QueryRow(ctx,
			"SELECT type FROM accounts WHERE id = $1 FOR UPDATE", line.accountID,
		).Scan(&accountType); err != nil {
			return fmt.Errorf("failed to lock account %d: %w", line.accountID, err)
		}

		// The reversal's debit is the original credit and vice versa.
		delta := line.credit.Sub(line.debit)
		if !accountType.DebitIncreases() {
			delta = delta.Neg()
		}
		if _, err := tx.Exec(ctx,
			"UPDATE accounts SET running_balance = running_balance + $1 WHERE id = $2",
			delta, line.accountID,
		); err != nil {
			return fmt.Errorf("failed to update running balance for account %d: %w", line.accountID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reversal: %w", err)
	}

	return nil
}
