package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockLevel is the inventory position of one product.
type StockLevel struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	OnHand      decimal.Decimal `json:"on_hand"`
	UnitCost    decimal.Decimal `json:"unit_cost"` // weighted average
}

// InventoryService manages stock quantities and weighted-average unit costs.
// The TX-scoped methods work within a caller-provided transaction so stock
// movements stay atomic with the journal entries they drive.
type InventoryService interface {
	GetStockLevels(ctx context.Context, companyCode string) ([]StockLevel, error)

	// OnHandTx returns the locked on-hand quantity and average cost for a
	// product, creating a zero row if none exists yet.
	OnHandTx(ctx context.Context, tx pgx.Tx, companyID int, productCode string) (decimal.Decimal, decimal.Decimal, error)

	// ConsumeStockTx deducts component stock for an assembly build. Fails with
	// ErrInsufficientMaterial if on-hand is short; writes CONSUMPTION movements.
	ConsumeStockTx(ctx context.Context, tx pgx.Tx, companyID, buildID int, components []ComponentConsumption) error

	// ReceiveOutputTx adds finished goods at the given unit cost and
	// recalculates the weighted-average cost; writes a BUILD_OUTPUT movement.
	ReceiveOutputTx(ctx context.Context, tx pgx.Tx, companyID, buildID int, productCode string,
		qty, unitCost decimal.Decimal) (decimal.Decimal, error)

	// RecordWastageTx writes an informational WASTAGE movement. Wastage does
	// not change quantities or costs — it is audit data.
	RecordWastageTx(ctx context.Context, tx pgx.Tx, companyID, buildID int, productCode string, qty decimal.Decimal) error
}

type inventoryService struct {
	pool *pgxpool.Pool
}

func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

func (s *inventoryService) GetStockLevels(ctx context.Context, companyCode string) ([]StockLevel, error) {
	var companyID int
	if err := s.pool.QueryRow(ctx, "SELECT id FROM companies WHERE company_code = $1", companyCode).Scan(&companyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company code %s not found", companyCode)
		}
		return nil, fmt.Errorf("failed to resolve company: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.code, p.name, ii.qty_on_hand, ii.unit_cost
		FROM inventory_items ii
		JOIN products p ON p.id = ii.product_id
		WHERE ii.company_id = $1
		ORDER BY p.code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(&sl.ProductCode, &sl.ProductName, &sl.OnHand, &sl.UnitCost); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	return levels, nil
}

// lockItemTx resolves the product and locks (or creates) its inventory row.
func (s *inventoryService) lockItemTx(ctx context.Context, tx pgx.Tx, companyID int, productCode string) (itemID int, onHand, unitCost decimal.Decimal, err error) {
	var productID int
	if err = tx.QueryRow(ctx,
		"SELECT id FROM products WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, productCode,
	).Scan(&productID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("product %s not found for company %d", productCode, companyID)
			return
		}
		err = fmt.Errorf("failed to resolve product %s: %w", productCode, err)
		return
	}

	if err = tx.QueryRow(ctx, `
		INSERT INTO inventory_items (company_id, product_id, qty_on_hand, unit_cost)
		VALUES ($1, $2, 0, 0)
		ON CONFLICT (company_id, product_id) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, companyID, productID).Scan(&itemID); err != nil {
		err = fmt.Errorf("failed to upsert inventory item: %w", err)
		return
	}

	if err = tx.QueryRow(ctx,
		"SELECT qty_on_hand, unit_cost FROM inventory_items WHERE id = $1 FOR UPDATE", itemID,
	).Scan(&onHand, &unitCost); err != nil {
		err = fmt.Errorf("failed to lock inventory item: %w", err)
	}
	return
}

func (s *inventoryService) OnHandTx(ctx context.Context, tx pgx.Tx, companyID int, productCode string) (decimal.Decimal, decimal.Decimal, error) {
	_, onHand, unitCost, err := s.lockItemTx(ctx, tx, companyID, productCode)
	return onHand, unitCost, err
}

func (s *inventoryService) ConsumeStockTx(ctx context.Context, tx pgx.Tx, companyID, buildID int, components []ComponentConsumption) error {
	for _, c := range components {
		itemID, onHand, _, err := s.lockItemTx(ctx, tx, companyID, c.ComponentCode)
		if err != nil {
			return err
		}

		if onHand.LessThan(c.Quantity) {
			return fmt.Errorf("%w: component %s has %s on hand, build requires %s",
				ErrInsufficientMaterial, c.ComponentCode, onHand.StringFixed(4), c.Quantity.StringFixed(4))
		}

		if _, err := tx.Exec(ctx, `
			UPDATE inventory_items
			SET qty_on_hand = qty_on_hand - $1, updated_at = NOW()
			WHERE id = $2
		`, c.Quantity, itemID); err != nil {
			return fmt.Errorf("failed to deduct stock for component %s: %w", c.ComponentCode, err)
		}

		lineCost := c.Quantity.Mul(c.UnitCost)
		if _, err := tx.Exec(ctx, `
			INSERT INTO inventory_movements (company_id, inventory_item_id, movement_type, quantity, unit_cost, total_cost, build_id, movement_date, notes)
			VALUES ($1, $2, 'CONSUMPTION', $3, $4, $5, $6, CURRENT_DATE, $7)
		`, companyID, itemID, c.Quantity.Neg(), c.UnitCost, lineCost.Neg(), buildID,
			fmt.Sprintf("Material consumed by assembly build %d: %s × %s", buildID, c.ComponentCode, c.Quantity.String()),
		); err != nil {
			return fmt.Errorf("failed to insert consumption movement for %s: %w", c.ComponentCode, err)
		}
	}
	return nil
}

func (s *inventoryService) ReceiveOutputTx(ctx context.Context, tx pgx.Tx, companyID, buildID int, productCode string,
	qty, unitCost decimal.Decimal) (decimal.Decimal, error) {

	if qty.IsNegative() || qty.IsZero() {
		return decimal.Zero, fmt.Errorf("output quantity must be positive, got %s", qty)
	}

	itemID, oldQty, oldCost, err := s.lockItemTx(ctx, tx, companyID, productCode)
	if err != nil {
		return decimal.Zero, err
	}

	// Weighted average: (old_qty × old_cost + qty × unitCost) / (old_qty + qty)
	newQty := oldQty.Add(qty)
	var newCost decimal.Decimal
	if oldQty.IsZero() {
		newCost = unitCost
	} else {
		newCost = oldQty.Mul(oldCost).Add(qty.Mul(unitCost)).Div(newQty).Round(4)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE inventory_items
		SET qty_on_hand = $1, unit_cost = $2, updated_at = NOW()
		WHERE id = $3
	`, newQty, newCost, itemID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to update inventory item: %w", err)
	}

	totalCost := qty.Mul(unitCost)
	if _, err := tx.Exec(ctx, `
		INSERT INTO inventory_movements (company_id, inventory_item_id, movement_type, quantity, unit_cost, total_cost, build_id, movement_date, notes)
		VALUES ($1, $2, 'BUILD_OUTPUT', $3, $4, $5, $6, CURRENT_DATE, $7)
	`, companyID, itemID, qty, unitCost, totalCost, buildID,
		fmt.Sprintf("Assembly build %d output: %s × %s @ %s", buildID, productCode, qty.String(), unitCost.String()),
	); err != nil {
		return decimal.Zero, fmt.Errorf("failed to insert build output movement: %w", err)
	}

	return newCost, nil
}

func (s *inventoryService) RecordWastageTx(ctx context.Context, tx pgx.Tx, companyID, buildID int, productCode string, qty decimal.Decimal) error {
	if qty.IsZero() {
		return nil
	}
	itemID, _, _, err := s.lockItemTx(ctx, tx, companyID, productCode)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO inventory_movements (company_id, inventory_item_id, movement_type, quantity, unit_cost, total_cost, build_id, movement_date, notes)
		VALUES ($1, $2, 'WASTAGE', $3, 0, 0, $4, CURRENT_DATE, $5)
	`, companyID, itemID, qty, buildID,
		fmt.Sprintf("Wastage recorded on assembly build %d: %s units", buildID, qty.String()),
	); err != nil {
		return fmt.Errorf("failed to insert wastage movement: %w", err)
	}
	return nil
}
