package projectfin

import (
	"math"
	"strings"

	"github.com/nordlicht-erp/nordlicht/internal/ledger"
	"github.com/nordlicht-erp/nordlicht/internal/params"
)

// Inputs bundles the aggregator outputs that feed one Financials build.
type Inputs struct {
	Revenue    RevenueTotals
	Vendor     VendorTotals
	Skonto     SkontoTotals
	Labor      LaborTotals
	OtherCosts float64
	Orders     []ledger.SalesOrder
	Params     params.Values
}

// BuildFinancials combines the aggregation results into the stored
// aggregate set. All monetary outputs are rounded to cents.
func BuildFinancials(in Inputs) Financials {
	var f Financials

	for _, order := range in.Orders {
		f.SaleOrderAmountNet += order.AmountNet
	}
	f.SaleOrderTaxNames = joinTaxNames(in.Orders)
	f.HasSalesOrders = len(in.Orders) > 0

	f.CustomerInvoicedNet = in.Revenue.InvoicedNet
	f.CustomerPaidNet = in.Revenue.PaidNet
	f.CustomerOutstandingNet = in.Revenue.InvoicedNet - in.Revenue.PaidNet
	f.CustomerInvoicesNet = in.Revenue.InvoicesNet
	f.CustomerCreditNotesNet = in.Revenue.CreditNotesNet

	f.CustomerInvoicedGross = in.Revenue.InvoicedGross
	f.CustomerPaidGross = in.Revenue.PaidGross
	f.CustomerOutstandingGross = in.Revenue.InvoicedGross - in.Revenue.PaidGross

	f.VendorBillsTotalNet = in.Vendor.TotalNet
	f.VendorBillsTotalGross = in.Vendor.TotalGross
	f.VendorBillsNet = in.Vendor.BillsNet
	f.VendorCreditNotesNet = in.Vendor.CreditNotesNet
	f.AdjustedVendorBills = in.Vendor.TotalNet * in.Params.VendorBillSurchargeFactor

	f.CustomerSkonto = in.Skonto.Customer
	f.VendorSkonto = in.Skonto.Vendor

	f.HoursBooked = in.Labor.Hours
	f.LaborCosts = in.Labor.Costs
	f.HoursBookedAdjusted = in.Labor.AdjustedHours
	f.LaborCostsAdjusted = in.Labor.AdjustedHours * in.Params.GeneralHourlyRate

	f.OtherCostsNet = in.OtherCosts
	f.TotalCostsNet = f.LaborCosts + f.OtherCostsNet
	f.TotalAllCostsNet = f.TotalCostsNet + f.VendorBillsTotalNet

	effectiveRevenue := f.CustomerInvoicedNet - f.CustomerSkonto
	effectiveCosts := (f.VendorBillsTotalNet - f.VendorSkonto) + f.TotalCostsNet
	f.ProfitLossNet = effectiveRevenue - effectiveCosts
	f.NegativeDifferenceNet = math.Abs(math.Min(0, f.ProfitLossNet))

	f.CurrentCalculatedPL = f.CustomerInvoicedNet -
		f.AdjustedVendorBills - f.LaborCostsAdjusted - f.OtherCostsNet

	return roundFinancials(f)
}

func joinTaxNames(orders []ledger.SalesOrder) string {
	seen := make(map[string]struct{})
	var names []string
	for _, order := range orders {
		for _, name := range order.TaxNames {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func roundFinancials(f Financials) Financials {
	f.SaleOrderAmountNet = round2(f.SaleOrderAmountNet)

	f.CustomerInvoicedNet = round2(f.CustomerInvoicedNet)
	f.CustomerPaidNet = round2(f.CustomerPaidNet)
	f.CustomerOutstandingNet = round2(f.CustomerOutstandingNet)
	f.CustomerInvoicesNet = round2(f.CustomerInvoicesNet)
	f.CustomerCreditNotesNet = round2(f.CustomerCreditNotesNet)
	f.CustomerInvoicedGross = round2(f.CustomerInvoicedGross)
	f.CustomerPaidGross = round2(f.CustomerPaidGross)
	f.CustomerOutstandingGross = round2(f.CustomerOutstandingGross)

	f.VendorBillsTotalNet = round2(f.VendorBillsTotalNet)
	f.VendorBillsTotalGross = round2(f.VendorBillsTotalGross)
	f.VendorBillsNet = round2(f.VendorBillsNet)
	f.VendorCreditNotesNet = round2(f.VendorCreditNotesNet)
	f.AdjustedVendorBills = round2(f.AdjustedVendorBills)

	f.CustomerSkonto = round2(f.CustomerSkonto)
	f.VendorSkonto = round2(f.VendorSkonto)

	f.HoursBooked = round2(f.HoursBooked)
	f.LaborCosts = round2(f.LaborCosts)
	f.HoursBookedAdjusted = round2(f.HoursBookedAdjusted)
	f.LaborCostsAdjusted = round2(f.LaborCostsAdjusted)

	f.OtherCostsNet = round2(f.OtherCostsNet)
	f.TotalCostsNet = round2(f.TotalCostsNet)
	f.TotalAllCostsNet = round2(f.TotalAllCostsNet)

	f.ProfitLossNet = round2(f.ProfitLossNet)
	f.NegativeDifferenceNet = round2(f.NegativeDifferenceNet)
	f.CurrentCalculatedPL = round2(f.CurrentCalculatedPL)
	return f
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
