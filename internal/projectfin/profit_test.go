package projectfin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordlicht-erp/nordlicht/internal/ledger"
	"github.com/nordlicht-erp/nordlicht/internal/params"
)

func testParams() params.Values {
	return params.Values{GeneralHourlyRate: 66, VendorBillSurchargeFactor: 1.30}
}

func TestBuildFinancialsProfitFormulas(t *testing.T) {
	f := BuildFinancials(Inputs{
		Revenue: RevenueTotals{
			InvoicedNet: 10000, PaidNet: 8000,
			InvoicedGross: 11900, PaidGross: 9520,
			InvoicesNet: 10500, CreditNotesNet: -500,
		},
		Vendor: VendorTotals{
			TotalNet: 3000, TotalGross: 3570,
			BillsNet: 3200, CreditNotesNet: -200,
		},
		Skonto:     SkontoTotals{Customer: 100, Vendor: 50},
		Labor:      LaborTotals{Hours: 50, Costs: 2500, AdjustedHours: 55},
		OtherCosts: 400,
		Params:     testParams(),
	})

	require.InDelta(t, 2000, f.CustomerOutstandingNet, 1e-9)
	require.InDelta(t, 2380, f.CustomerOutstandingGross, 1e-9)

	require.InDelta(t, 3900, f.AdjustedVendorBills, 1e-9)        // 3000 * 1.30
	require.InDelta(t, 3630, f.LaborCostsAdjusted, 1e-9)         // 55 * 66
	require.InDelta(t, 2900, f.TotalCostsNet, 1e-9)              // 2500 + 400
	require.InDelta(t, 5900, f.TotalAllCostsNet, 1e-9)           // 2900 + 3000

	// (10000-100) - ((3000-50) + 2900)
	require.InDelta(t, 4050, f.ProfitLossNet, 1e-9)
	require.Zero(t, f.NegativeDifferenceNet)

	// 10000 - 3900 - 3630 - 400
	require.InDelta(t, 2070, f.CurrentCalculatedPL, 1e-9)
}

func TestBuildFinancialsNegativeDifference(t *testing.T) {
	f := BuildFinancials(Inputs{
		Revenue:    RevenueTotals{InvoicedNet: 1000},
		Vendor:     VendorTotals{TotalNet: 2000},
		OtherCosts: 500,
		Params:     testParams(),
	})
	require.InDelta(t, -1500, f.ProfitLossNet, 1e-9)
	require.InDelta(t, 1500, f.NegativeDifferenceNet, 1e-9)
}

func TestBuildFinancialsSalesOrders(t *testing.T) {
	f := BuildFinancials(Inputs{
		Orders: []ledger.SalesOrder{
			{ID: 1, AmountNet: 5000, TaxNames: []string{"19% VAT"}},
			{ID: 2, AmountNet: 2500, TaxNames: []string{"19% VAT", "7% VAT"}},
		},
		Params: testParams(),
	})
	require.True(t, f.HasSalesOrders)
	require.InDelta(t, 7500, f.SaleOrderAmountNet, 1e-9)
	require.Equal(t, "19% VAT, 7% VAT", f.SaleOrderTaxNames)
}

func TestBuildFinancialsRoundsToCents(t *testing.T) {
	f := BuildFinancials(Inputs{
		Revenue: RevenueTotals{InvoicedNet: 123.4567},
		Params:  testParams(),
	})
	require.InDelta(t, 123.46, f.CustomerInvoicedNet, 1e-9)
}
