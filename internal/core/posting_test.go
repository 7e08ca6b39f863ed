package core_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"books-ledger/internal/core"
)

func TestPosting_NormalizationAndValidation(t *testing.T) {
	tests := []struct {
		name      string
		posting   core.Posting
		expectErr bool
	}{
		{
			name: "Happy path",
			posting: core.Posting{
				DocumentTypeCode: "JE",
				CompanyCode:      "1000",
				Currency:         "usd ",
				PostingDate:      "2026-03-01",
				Lines: []core.EntryLine{
					{AccountCode: "1100", IsDebit: true, Amount: dec("200.00")},
					{AccountCode: "4000", IsDebit: false, Amount: dec("200.00")},
				},
			},
			expectErr: false,
		},
		{
			name: "Missing document type",
			posting: core.Posting{
				CompanyCode: "1000",
				Currency:    "USD",
				PostingDate: "2026-03-01",
				Lines: []core.EntryLine{
					{AccountCode: "1100", IsDebit: true, Amount: dec("200.00")},
					{AccountCode: "4000", IsDebit: false, Amount: dec("200.00")},
				},
			},
			expectErr: true,
		},
		{
			name: "Missing company code",
			posting: core.Posting{
				DocumentTypeCode: "JE",
				Currency:         "USD",
				PostingDate:      "2026-03-01",
				Lines: []core.EntryLine{
					{AccountCode: "1100", IsDebit: true, Amount: dec("200.00")},
					{AccountCode: "4000", IsDebit: false, Amount: dec("200.00")},
				},
			},
			expectErr: true,
		},
		{
			name: "Bad posting date",
			posting: core.Posting{
				DocumentTypeCode: "JE",
				CompanyCode:      "1000",
				Currency:         "USD",
				PostingDate:      "01/03/2026",
				Lines: []core.EntryLine{
					{AccountCode: "1100", IsDebit: true, Amount: dec("200.00")},
					{AccountCode: "4000", IsDebit: false, Amount: dec("200.00")},
				},
			},
			expectErr: true,
		},
		{
			name: "Single line",
			posting: core.Posting{
				DocumentTypeCode: "JE",
				CompanyCode:      "1000",
				Currency:         "USD",
				PostingDate:      "2026-03-01",
				Lines: []core.EntryLine{
					{AccountCode: "1100", IsDebit: true, Amount: dec("200.00")},
				},
			},
			expectErr: true,
		},
		{
			name: "Zero amount",
			posting: core.Posting{
				DocumentTypeCode: "JE",
				CompanyCode:      "1000",
				Currency:         "USD",
				PostingDate:      "2026-03-01",
				Lines: []core.EntryLine{
					{AccountCode: "1100", IsDebit: true, Amount: decimal.Zero},
					{AccountCode: "4000", IsDebit: false, Amount: decimal.Zero},
				},
			},
			expectErr: true,
		},
		{
			name: "Negative amount",
			posting: core.Posting{
				DocumentTypeCode: "JE",
				CompanyCode:      "1000",
				Currency:         "USD",
				PostingDate:      "2026-03-01",
				Lines: []core.EntryLine{
					{AccountCode: "1100", IsDebit: true, Amount: dec("-100.00")},
					{AccountCode: "4000", IsDebit: false, Amount: dec("-100.00")},
				},
			},
			expectErr: true,
		},
		{
			name: "Imbalanced entry",
			posting: core.Posting{
				DocumentTypeCode: "JE",
				CompanyCode:      "1000",
				Currency:         "USD",
				PostingDate:      "2026-03-01",
				Lines: []core.EntryLine{
					{AccountCode: "1100", IsDebit: true, Amount: dec("200.00")},
					{AccountCode: "4000", IsDebit: false, Amount: dec("100.00")},
				},
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.posting
			p.Normalize()
			err := p.Validate()

			if tt.expectErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v, posting: %+v", err, p)
			}
		})
	}
}

func TestPosting_NormalizeDefaultsDocumentDate(t *testing.T) {
	p := core.Posting{Currency: " usd", PostingDate: " 2026-03-01 "}
	p.Normalize()
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "2026-03-01", p.PostingDate)
	assert.Equal(t, "2026-03-01", p.DocumentDate)
}

func TestCheckBalance(t *testing.T) {
	balanced := []core.EntryLine{
		{AccountCode: "1100", IsDebit: true, Amount: dec("150.00")},
		{AccountCode: "1000", IsDebit: true, Amount: dec("50.00")},
		{AccountCode: "4000", IsDebit: false, Amount: dec("200.00")},
	}
	assert.NoError(t, core.CheckBalance(balanced))

	// An off-by-one-cent entry must be rejected: the balance check has no tolerance.
	skewed := []core.EntryLine{
		{AccountCode: "1100", IsDebit: true, Amount: dec("150.01")},
		{AccountCode: "4000", IsDebit: false, Amount: dec("150.00")},
	}
	assert.ErrorIs(t, core.CheckBalance(skewed), core.ErrUnbalancedTransaction)
}

var invoiceAccounts = core.InvoiceAccounts{
	Receivable:            "1200",
	Revenue:               "4000",
	TaxPayable:            "2100",
	WithholdingReceivable: "1250",
}

func TestBuildInvoicePosting(t *testing.T) {
	totals := &core.DocumentTotals{
		Subtotal:  dec("850.00"),
		Tax:       dec("153.00"),
		Total:     dec("1003.00"),
		AmountDue: dec("1003.00"),
	}

	lines, err := core.BuildInvoicePosting(totals, invoiceAccounts)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	require.NoError(t, core.CheckBalance(lines))

	byAccount := entriesByAccount(lines)
	assert.True(t, byAccount["1200"].IsDebit)
	assert.Equal(t, "1003.00", byAccount["1200"].Amount.StringFixed(2))
	assert.False(t, byAccount["4000"].IsDebit)
	assert.Equal(t, "850.00", byAccount["4000"].Amount.StringFixed(2))
	assert.False(t, byAccount["2100"].IsDebit)
	assert.Equal(t, "153.00", byAccount["2100"].Amount.StringFixed(2))
}

func TestBuildInvoicePosting_Withholding(t *testing.T) {
	totals := &core.DocumentTotals{
		Subtotal:    dec("1000.00"),
		Tax:         dec("120.00"),
		Withholding: dec("50.00"),
		Total:       dec("1120.00"),
		AmountDue:   dec("1070.00"),
	}

	lines, err := core.BuildInvoicePosting(totals, invoiceAccounts)
	require.NoError(t, err)
	require.Len(t, lines, 4)
	require.NoError(t, core.CheckBalance(lines))

	byAccount := entriesByAccount(lines)
	assert.Equal(t, "1070.00", byAccount["1200"].Amount.StringFixed(2))
	assert.True(t, byAccount["1250"].IsDebit)
	assert.Equal(t, "50.00", byAccount["1250"].Amount.StringFixed(2))
}

func TestBuildInvoicePosting_TaxFreeDropsTaxLeg(t *testing.T) {
	totals := &core.DocumentTotals{
		Subtotal:  dec("500.00"),
		Total:     dec("500.00"),
		AmountDue: dec("500.00"),
	}

	lines, err := core.BuildInvoicePosting(totals, invoiceAccounts)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.NotEqual(t, "2100", l.AccountCode)
	}
}

func TestBuildCreditNotePosting_MirrorsInvoice(t *testing.T) {
	totals := &core.DocumentTotals{
		Subtotal:  dec("850.00"),
		Tax:       dec("153.00"),
		Total:     dec("1003.00"),
		AmountDue: dec("1003.00"),
	}

	invoice, err := core.BuildInvoicePosting(totals, invoiceAccounts)
	require.NoError(t, err)
	creditNote, err := core.BuildCreditNotePosting(totals, invoiceAccounts)
	require.NoError(t, err)
	require.NoError(t, core.CheckBalance(creditNote))

	require.Len(t, creditNote, len(invoice))
	for i := range invoice {
		assert.Equal(t, invoice[i].AccountCode, creditNote[i].AccountCode)
		assert.Equal(t, invoice[i].IsDebit, !creditNote[i].IsDebit)
		assert.True(t, invoice[i].Amount.Equal(creditNote[i].Amount))
	}
}

func TestBuildBillPosting_Withholding(t *testing.T) {
	totals := &core.DocumentTotals{
		Subtotal:    dec("1000.00"),
		Tax:         dec("120.00"),
		Withholding: dec("50.00"),
		Total:       dec("1120.00"),
		AmountDue:   dec("1070.00"),
	}

	lines, err := core.BuildBillPosting(totals, core.BillAccounts{
		ExpenseOrInventory: "5100",
		InputTax:           "1300",
		Payable:            "2000",
		WithholdingPayable: "2150",
	})
	require.NoError(t, err)
	require.Len(t, lines, 5)
	require.NoError(t, core.CheckBalance(lines))

	// Gross AP stays visible; the withholding offset nets the payable to 1070.
	var apCredit, apDebit decimal.Decimal
	for _, l := range lines {
		if l.AccountCode != "2000" {
			continue
		}
		if l.IsDebit {
			apDebit = l.Amount
		} else {
			apCredit = l.Amount
		}
	}
	assert.Equal(t, "1120.00", apCredit.StringFixed(2))
	assert.Equal(t, "50.00", apDebit.StringFixed(2))
	assert.Equal(t, "1070.00", apCredit.Sub(apDebit).StringFixed(2))
}

func TestBuildTransferPosting(t *testing.T) {
	lines, err := core.BuildTransferPosting("1100", "1110", dec("5000.00"), dec("1200.00"))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.NoError(t, core.CheckBalance(lines))
	assert.True(t, lines[0].IsDebit)
	assert.Equal(t, "1110", lines[0].AccountCode)
	assert.Equal(t, "1100", lines[1].AccountCode)

	_, err = core.BuildTransferPosting("1100", "1100", dec("5000.00"), dec("100.00"))
	assert.ErrorIs(t, err, core.ErrSameAccountTransfer)

	_, err = core.BuildTransferPosting("1100", "1110", dec("99.99"), dec("100.00"))
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)

	_, err = core.BuildTransferPosting("1100", "1110", dec("5000.00"), decimal.Zero)
	assert.Error(t, err)
}

func TestBuildAssemblyPosting(t *testing.T) {
	build := core.AssemblyBuild{
		OutputProductCode: "FG-CAB-01",
		LaborCost:         dec("600.00"),
		OverheadCost:      dec("300.00"),
		OutputQuantity:    dec("400"),
	}
	costing := &core.CostingResult{
		MaterialCost: dec("2900.00"),
		TotalCost:    dec("3800.00"),
		UnitCost:     dec("9.5000"),
	}

	lines, err := core.BuildAssemblyPosting(build, costing, assemblyAccounts())
	require.NoError(t, err)
	require.Len(t, lines, 4)
	require.NoError(t, core.CheckBalance(lines))

	byAccount := entriesByAccount(lines)
	assert.True(t, byAccount["1410"].IsDebit)
	assert.Equal(t, "3800.00", byAccount["1410"].Amount.StringFixed(2))
	assert.Equal(t, "2900.00", byAccount["1400"].Amount.StringFixed(2))
}

func TestBuildAssemblyPosting_ExcisePairIsSelfBalancing(t *testing.T) {
	build := core.AssemblyBuild{
		OutputProductCode: "FG-CAB-01",
		LaborCost:         dec("100.00"),
		OutputQuantity:    dec("10"),
		ExciseDuty:        dec("75.00"),
	}
	costing := &core.CostingResult{
		MaterialCost: dec("400.00"),
		TotalCost:    dec("500.00"),
		UnitCost:     dec("50.0000"),
	}

	lines, err := core.BuildAssemblyPosting(build, costing, assemblyAccounts())
	require.NoError(t, err)
	require.NoError(t, core.CheckBalance(lines))

	byAccount := entriesByAccount(lines)
	assert.True(t, byAccount["2210"].IsDebit)
	assert.Equal(t, "75.00", byAccount["2210"].Amount.StringFixed(2))
	assert.False(t, byAccount["2200"].IsDebit)
	assert.Equal(t, "75.00", byAccount["2200"].Amount.StringFixed(2))

	// The duty pair must not distort the manufacturing cost legs.
	assert.Equal(t, "500.00", byAccount["1410"].Amount.StringFixed(2))
}

// Derived invoice postings balance for arbitrary line data, including awkward
// quantities and compound/withholding tax mixes.
func TestBuildInvoicePosting_BalancedForRandomDocuments(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		nLines := 1 + rng.Intn(5)
		items := make([]core.LineItem, 0, nLines)
		for j := 0; j < nLines; j++ {
			item := core.LineItem{
				Quantity:  decimal.NewFromInt(int64(1 + rng.Intn(20))),
				UnitPrice: decimal.NewFromInt(int64(rng.Intn(100000))).Div(dec("100")),
			}
			if rng.Intn(2) == 0 {
				item.TaxLines = append(item.TaxLines, core.TaxLine{
					Type: core.TaxStandard, Rate: dec("18"), CompoundSequence: 1,
				})
			}
			if rng.Intn(3) == 0 {
				item.TaxLines = append(item.TaxLines, core.TaxLine{
					Type: core.TaxCustom, Rate: dec("2"), IsCompound: true, CompoundSequence: 2,
				})
			}
			if rng.Intn(4) == 0 {
				item.TaxLines = append(item.TaxLines, core.TaxLine{
					Type: core.TaxWithholding, Rate: dec("5"), CompoundSequence: 3,
				})
			}
			items = append(items, item)
		}

		totals, _, err := core.ComputeTotals(items)
		require.NoError(t, err)
		if totals.Subtotal.IsZero() {
			continue
		}

		lines, err := core.BuildInvoicePosting(totals, invoiceAccounts)
		require.NoError(t, err, "iteration %d: totals %+v", i, totals)
		require.NoError(t, core.CheckBalance(lines), "iteration %d", i)
	}
}

func assemblyAccounts() core.AssemblyAccounts {
	return core.AssemblyAccounts{
		FinishedGoods:   "1410",
		RawMaterials:    "1400",
		LaborApplied:    "5200",
		OverheadApplied: "5300",
		ExciseClearing:  "2210",
		ExcisePayable:   "2200",
	}
}

func entriesByAccount(lines []core.EntryLine) map[string]core.EntryLine {
	m := make(map[string]core.EntryLine, len(lines))
	for _, l := range lines {
		key := l.AccountCode
		if _, dup := m[key]; dup {
			key = fmt.Sprintf("%s#%v", l.AccountCode, l.IsDebit)
		}
		m[key] = l
	}
	return m
}
