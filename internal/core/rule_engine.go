package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Rule types resolved by the posting services. Each maps to a GL account code
// per company in the account_rules table.
const (
	RuleAR              = "AR"
	RulePurchaseExpense = "PURCHASE_EXPENSE"
	RuleRevenue         = "REVENUE"
	RuleTaxPayable      = "TAX_PAYABLE"
	RuleInputTax        = "INPUT_TAX"
	RuleAP              = "AP"
	RuleWHTPayable      = "WHT_PAYABLE"
	RuleWHTReceivable   = "WHT_RECEIVABLE"
	RuleRawMaterials    = "RM_INVENTORY"
	RuleFinishedGoods   = "FG_INVENTORY"
	RuleLaborApplied    = "LABOR_APPLIED"
	RuleOverheadApplied = "OVERHEAD_APPLIED"
	RuleExciseClearing  = "EXCISE_CLEARING"
	RuleExcisePayable   = "EXCISE_PAYABLE"
)

// RuleEngine resolves configurable account mappings from the account_rules
// table. It replaces hardcoded account constants in the posting services.
type RuleEngine interface {
	ResolveAccount(ctx context.Context, companyID int, ruleType string) (string, error)
	// ResolveAccounts resolves several rule types at once, returning a map
	// keyed by rule type. Fails on the first missing rule.
	ResolveAccounts(ctx context.Context, companyID int, ruleTypes ...string) (map[string]string, error)
}

type ruleEngine struct {
	pool *pgxpool.Pool
}

// NewRuleEngine constructs a RuleEngine backed by the account_rules table.
func NewRuleEngine(pool *pgxpool.Pool) RuleEngine {
	return &ruleEngine{pool: pool}
}

// ResolveAccount returns the account code for (companyID, ruleType), highest
// priority first. Returns a descriptive error if no active rule exists.
func (r *ruleEngine) ResolveAccount(ctx context.Context, companyID int, ruleType string) (string, error) {
	var accountCode string
	err := r.pool.QueryRow(ctx, `
		SELECT account_code
		FROM account_rules
		WHERE company_id = $1
		  AND rule_type = $2
		  AND (effective_to IS NULL OR effective_to >= CURRENT_DATE)
		ORDER BY priority DESC
		LIMIT 1
	`, companyID, ruleType).Scan(&accountCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("no account rule found for company_id %d, rule_type %q — seed account_rules or run migrations", companyID, ruleType)
		}
		return "", fmt.Errorf("failed to resolve account rule (company_id=%d, rule_type=%q): %w", companyID, ruleType, err)
	}
	return accountCode, nil
}

func (r *ruleEngine) ResolveAccounts(ctx context.Context, companyID int, ruleTypes ...string) (map[string]string, error) {
	resolved := make(map[string]string, len(ruleTypes))
	for _, rt := range ruleTypes {
		code, err := r.ResolveAccount(ctx, companyID, rt)
		if err != nil {
			return nil, err
		}
		resolved[rt] = code
	}
	return resolved, nil
}
