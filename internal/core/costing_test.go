package core_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"books-ledger/internal/core"
)

func cabinetBuild() core.AssemblyBuild {
	return core.AssemblyBuild{
		OutputProductCode: "FG-CAB-01",
		Components: []core.ComponentConsumption{
			{ComponentCode: "RM-STEEL", Quantity: dec("100"), UnitCost: dec("25.00")},
			{ComponentCode: "RM-PAINT", Quantity: dec("20"), UnitCost: dec("20.00")},
		},
		LaborCost:      dec("600.00"),
		OverheadCost:   dec("300.00"),
		OutputQuantity: dec("400"),
	}
}

func cabinetOnHand() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"RM-STEEL": dec("150"),
		"RM-PAINT": dec("80"),
	}
}

func TestRollupAssembly(t *testing.T) {
	result, err := core.RollupAssembly(cabinetBuild(), cabinetOnHand(), core.FinishedStock{})
	require.NoError(t, err)

	assert.Equal(t, "2900.00", result.MaterialCost.StringFixed(2))
	assert.Equal(t, "3800.00", result.TotalCost.StringFixed(2))
	assert.Equal(t, "9.5000", result.UnitCost.StringFixed(4))

	// First receipt of the product: the new average is the build unit cost.
	assert.Equal(t, "9.5000", result.NewAverageCost.StringFixed(4))
}

func TestRollupAssembly_WeightedAverageBlendsExistingStock(t *testing.T) {
	existing := core.FinishedStock{
		QtyOnHand:   dec("100"),
		AverageCost: dec("13.5000"),
	}

	result, err := core.RollupAssembly(cabinetBuild(), cabinetOnHand(), existing)
	require.NoError(t, err)

	// (100 × 13.50 + 400 × 9.50) / 500 = 10.30
	assert.Equal(t, "10.3000", result.NewAverageCost.StringFixed(4))
}

func TestRollupAssembly_BlendAcrossPriceLevels(t *testing.T) {
	build := core.AssemblyBuild{
		OutputProductCode: "FG-CAB-01",
		Components: []core.ComponentConsumption{
			{ComponentCode: "RM-STEEL", Quantity: dec("100"), UnitCost: dec("25.00")},
		},
		LaborCost:      dec("250.00"),
		OverheadCost:   dec("150.00"),
		OutputQuantity: dec("500"),
	}
	onHand := map[string]decimal.Decimal{"RM-STEEL": dec("100")}
	existing := core.FinishedStock{
		QtyOnHand:   dec("100"),
		AverageCost: dec("40.0000"),
	}

	result, err := core.RollupAssembly(build, onHand, existing)
	require.NoError(t, err)

	// 2500 + 250 + 150 = 2900 over 500 units
	assert.Equal(t, "2900.00", result.TotalCost.StringFixed(2))
	assert.Equal(t, "5.8000", result.UnitCost.StringFixed(4))

	// (100 × 40 + 500 × 5.80) / 600 = 11.50
	assert.Equal(t, "11.5000", result.NewAverageCost.StringFixed(4))
}

func TestRollupAssembly_UnitCostRoundsToFourPlaces(t *testing.T) {
	build := core.AssemblyBuild{
		OutputProductCode: "FG-CAB-01",
		Components: []core.ComponentConsumption{
			{ComponentCode: "RM-STEEL", Quantity: dec("1"), UnitCost: dec("100.00")},
		},
		OutputQuantity: dec("3"),
	}
	onHand := map[string]decimal.Decimal{"RM-STEEL": dec("1")}

	result, err := core.RollupAssembly(build, onHand, core.FinishedStock{})
	require.NoError(t, err)
	assert.Equal(t, "33.3333", result.UnitCost.StringFixed(4))
}

func TestRollupAssembly_InsufficientMaterial(t *testing.T) {
	onHand := cabinetOnHand()
	onHand["RM-PAINT"] = dec("19.9999")

	_, err := core.RollupAssembly(cabinetBuild(), onHand, core.FinishedStock{})
	require.ErrorIs(t, err, core.ErrInsufficientMaterial)
	assert.Contains(t, err.Error(), "RM-PAINT")
}

func TestRollupAssembly_UnknownComponentTreatedAsZeroStock(t *testing.T) {
	onHand := map[string]decimal.Decimal{"RM-STEEL": dec("150")}

	_, err := core.RollupAssembly(cabinetBuild(), onHand, core.FinishedStock{})
	require.ErrorIs(t, err, core.ErrInsufficientMaterial)
	assert.Contains(t, err.Error(), "RM-PAINT")
}

func TestRollupAssembly_InvalidOutputQuantity(t *testing.T) {
	for _, qty := range []string{"0", "-1"} {
		build := cabinetBuild()
		build.OutputQuantity = dec(qty)

		_, err := core.RollupAssembly(build, cabinetOnHand(), core.FinishedStock{})
		assert.ErrorIs(t, err, core.ErrInvalidOutputQuantity, "output quantity %s", qty)
	}
}

func TestRollupAssembly_NegativeLaborRejected(t *testing.T) {
	build := cabinetBuild()
	build.LaborCost = dec("-1.00")

	_, err := core.RollupAssembly(build, cabinetOnHand(), core.FinishedStock{})
	assert.Error(t, err)
}

func TestRollupAssembly_WastageDoesNotChangeCost(t *testing.T) {
	clean, err := core.RollupAssembly(cabinetBuild(), cabinetOnHand(), core.FinishedStock{})
	require.NoError(t, err)

	wasted := cabinetBuild()
	wasted.WastageQuantity = dec("12")
	result, err := core.RollupAssembly(wasted, cabinetOnHand(), core.FinishedStock{})
	require.NoError(t, err)

	assert.True(t, clean.TotalCost.Equal(result.TotalCost))
	assert.True(t, clean.UnitCost.Equal(result.UnitCost))
	assert.True(t, clean.NewAverageCost.Equal(result.NewAverageCost))
}
