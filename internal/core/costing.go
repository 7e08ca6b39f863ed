package core

import (
	"fmt"

	"github.com/shopspring/decimal"

	"books-ledger/internal/money"
)

// RollupAssembly computes the cost of a manufacturing build and the resulting
// weighted-average inventory cost of the output product.
//
//	totalCost      = Σ(componentQty × unitCost) + labor + overhead
//	unitCost       = totalCost / outputQuantity
//	newAverageCost = (existingQty × existingAvg + outputQty × unitCost)
//	                 / (existingQty + outputQty)
//
// onHand maps component code to available quantity; any component whose
// required quantity exceeds it fails with ErrInsufficientMaterial. Wastage is
// informational: the full build cost is spread across the surviving output
// units, so unitCost deliberately ignores WastageQuantity.
func RollupAssembly(build AssemblyBuild, onHand map[string]decimal.Decimal, existing FinishedStock) (*CostingResult, error) {
	if build.OutputQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOutputQuantity, build.OutputQuantity)
	}
	if build.LaborCost.IsNegative() || build.OverheadCost.IsNegative() {
		return nil, fmt.Errorf("labor and overhead costs must not be negative")
	}

	materialCost := decimal.Zero
	for _, c := range build.Components {
		if c.Quantity.IsNegative() || c.UnitCost.IsNegative() {
			return nil, fmt.Errorf("component %s: quantity and unit cost must not be negative", c.ComponentCode)
		}
		available, ok := onHand[c.ComponentCode]
		if !ok || available.LessThan(c.Quantity) {
			return nil, fmt.Errorf("%w: component %s has %s on hand, build requires %s",
				ErrInsufficientMaterial, c.ComponentCode,
				available.StringFixed(4), c.Quantity.StringFixed(4))
		}
		materialCost = materialCost.Add(c.Quantity.Mul(c.UnitCost))
	}

	materialCost = money.RoundCurrency(materialCost)
	totalCost := materialCost.Add(money.RoundCurrency(build.LaborCost)).Add(money.RoundCurrency(build.OverheadCost))

	unitCost, err := money.Div(totalCost, build.OutputQuantity)
	if err != nil {
		return nil, fmt.Errorf("unit cost: %w", err)
	}
	unitCost = money.RoundUnitCost(unitCost)

	newQty := existing.QtyOnHand.Add(build.OutputQuantity)
	var newAverage decimal.Decimal
	if existing.QtyOnHand.IsZero() {
		newAverage = unitCost
	} else {
		blended := existing.QtyOnHand.Mul(existing.AverageCost).
			Add(build.OutputQuantity.Mul(unitCost))
		newAverage, err = money.Div(blended, newQty)
		if err != nil {
			return nil, fmt.Errorf("weighted average: %w", err)
		}
		newAverage = money.RoundUnitCost(newAverage)
	}

	return &CostingResult{
		MaterialCost:   materialCost,
		TotalCost:      totalCost,
		UnitCost:       unitCost,
		NewAverageCost: newAverage,
	}, nil
}
