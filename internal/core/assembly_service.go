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

// BuildRequest submits a manufacturing assembly build for posting.
type BuildRequest struct {
	CompanyCode    string        `json:"company_code"`
	Build          AssemblyBuild `json:"build"`
	BuildDate      string        `json:"build_date"` // YYYY-MM-DD
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
}

// BuildResult reports a completed build: the costing rollup and the ledger
// entry it produced.
type BuildResult struct {
	BuildID        int           `json:"build_id"`
	DocumentNumber string        `json:"document_number"`
	EntryID        int           `json:"entry_id"`
	Costing        CostingResult `json:"costing"`
	Entries        []EntryLine   `json:"entries"`
}

// AssemblyService executes manufacturing builds: it consumes component stock,
// receives finished goods at the rolled-up unit cost, and books the
// manufacturing journal entry — all inside one transaction.
type AssemblyService interface {
	BuildAssembly(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

type assemblyService struct {
	pool       *pgxpool.Pool
	ledger     *Ledger
	ruleEngine RuleEngine
	inventory  InventoryService
}

func NewAssemblyService(pool *pgxpool.Pool, ledger *Ledger, ruleEngine RuleEngine, inventory InventoryService) AssemblyService {
	return &assemblyService{pool: pool, ledger: ledger, ruleEngine: ruleEngine, inventory: inventory}
}

func (s *assemblyService) BuildAssembly(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	build := req.Build
	if build.OutputProductCode == "" {
		return nil, fmt.Errorf("build must specify an output product")
	}
	if len(build.Components) == 0 {
		return nil, fmt.Errorf("build must consume at least one component")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin build tx: %w", err)
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

	// Lock component stock and snapshot on-hand quantities and current costs.
	// Components are costed at their stored weighted-average unit cost unless
	// the caller supplied an explicit cost.
	onHand := make(map[string]decimal.Decimal, len(build.Components))
	for i := range build.Components {
		qty, avgCost, err := s.inventory.OnHandTx(ctx, tx, companyID, build.Components[i].ComponentCode)
		if err != nil {
			return nil, err
		}
		onHand[build.Components[i].ComponentCode] = qty
		if build.Components[i].UnitCost.IsZero() {
			build.Components[i].UnitCost = avgCost
		}
	}

	// Existing finished stock feeds the weighted-average recalculation.
	outputQty, outputAvg, err := s.inventory.OnHandTx(ctx, tx, companyID, build.OutputProductCode)
	if err != nil {
		return nil, err
	}
	existing := FinishedStock{QtyOnHand: outputQty, AverageCost: outputAvg}

	costing, err := RollupAssembly(build, onHand, existing)
	if err != nil {
		return nil, err
	}

	// Record the build header.
	var buildID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO assembly_builds (company_id, output_product_code, output_quantity, wastage_quantity,
		                             material_cost, labor_cost, overhead_cost, total_cost, unit_cost, build_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, companyID, build.OutputProductCode, build.OutputQuantity, build.WastageQuantity,
		costing.MaterialCost, build.LaborCost, build.OverheadCost, costing.TotalCost, costing.UnitCost, req.BuildDate,
	).Scan(&buildID); err != nil {
		return nil, fmt.Errorf("failed to insert assembly build: %w", err)
	}

	// Move stock: consume components, receive output, note wastage.
	if err := s.inventory.ConsumeStockTx(ctx, tx, companyID, buildID, build.Components); err != nil {
		return nil, err
	}
	if _, err := s.inventory.ReceiveOutputTx(ctx, tx, companyID, buildID,
		build.OutputProductCode, build.OutputQuantity, costing.UnitCost); err != nil {
		return nil, err
	}
	if err := s.inventory.RecordWastageTx(ctx, tx, companyID, buildID,
		build.OutputProductCode, build.WastageQuantity); err != nil {
		return nil, err
	}

	// Book the manufacturing journal entry.
	ruleTypes := []string{RuleFinishedGoods, RuleRawMaterials, RuleLaborApplied, RuleOverheadApplied}
	if !build.ExciseDuty.IsZero() {
		ruleTypes = append(ruleTypes, RuleExciseClearing, RuleExcisePayable)
	}
	accounts, err := s.ruleEngine.ResolveAccounts(ctx, companyID, ruleTypes...)
	if err != nil {
		return nil, err
	}

	entries, err := BuildAssemblyPosting(build, costing, AssemblyAccounts{
		FinishedGoods:   accounts[RuleFinishedGoods],
		RawMaterials:    accounts[RuleRawMaterials],
		LaborApplied:    accounts[RuleLaborApplied],
		OverheadApplied: accounts[RuleOverheadApplied],
		ExciseClearing:  accounts[RuleExciseClearing],
		ExcisePayable:   accounts[RuleExcisePayable],
	})
	if err != nil {
		return nil, err
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	posting := Posting{
		DocumentTypeCode: "MA",
		CompanyCode:      req.CompanyCode,
		IdempotencyKey:   idempotencyKey,
		Summary: fmt.Sprintf("Assembly build %d: %s × %s units",
			buildID, build.OutputProductCode, build.OutputQuantity.String()),
		PostingDate:  req.BuildDate,
		DocumentDate: req.BuildDate,
		Lines:        entries,
	}

	if err := s.ledger.PostInTx(ctx, tx, posting); err != nil {
		return nil, err
	}

	var entryID int
	var documentNumber string
	if err := tx.QueryRow(ctx,
		"SELECT id, reference_id FROM journal_entries WHERE idempotency_key = $1", idempotencyKey,
	).Scan(&entryID, &documentNumber); err != nil {
		return nil, fmt.Errorf("failed to read back build entry: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE assembly_builds SET document_number = $1, entry_id = $2 WHERE id = $3",
		documentNumber, entryID, buildID,
	); err != nil {
		return nil, fmt.Errorf("failed to link build %d to its entry: %w", buildID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit assembly build: %w", err)
	}

	return &BuildResult{
		BuildID:        buildID,
		DocumentNumber: documentNumber,
		EntryID:        entryID,
		Costing:        *costing,
		Entries:        entries,
	}, nil
}
