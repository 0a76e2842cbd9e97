package projectfin

import (
	"math"

	"github.com/nordlicht-erp/nordlicht/internal/ledger"
)

// RevenueTotals is the customer-side aggregation result for a dimension.
type RevenueTotals struct {
	InvoicedNet    float64
	PaidNet        float64
	InvoicedGross  float64
	PaidGross      float64
	InvoicesNet    float64
	CreditNotesNet float64

	// MalformedLines counts lines skipped because their allocation map
	// could not be decoded. Surfaced for logging, never fatal.
	MalformedLines int
}

// VendorTotals is the vendor-side aggregation result for a dimension.
type VendorTotals struct {
	TotalNet       float64
	TotalGross     float64
	BillsNet       float64
	CreditNotesNet float64

	MalformedLines int
}

// AggregateRevenue folds posted customer invoice and credit-note lines
// into the revenue totals for one dimension. Lines of reversed documents
// are excluded entirely; a credit note line contributes -abs(amount) to
// both its own bucket and the signed totals. Paid figures scale each
// line by the parent document's settled proportion.
func AggregateRevenue(lines []ledger.Line, dimensionID int64) RevenueTotals {
	var totals RevenueTotals
	for _, line := range lines {
		if line.Reversed() {
			continue
		}
		attribution := ResolveAttribution(line.Distribution, dimensionID)
		if !attribution.Attributed() {
			if attribution.Skip == SkipMalformed {
				totals.MalformedLines++
			}
			continue
		}

		net := line.AmountNet * attribution.Fraction
		gross := line.AmountGross * attribution.Fraction

		switch line.MoveType {
		case ledger.MoveCustomerInvoice:
			totals.InvoicesNet += net
		case ledger.MoveCustomerCreditNote:
			totals.CreditNotesNet += -math.Abs(net)
			net = -math.Abs(net)
			gross = -math.Abs(gross)
		default:
			continue
		}

		totals.InvoicedNet += net
		totals.InvoicedGross += gross

		ratio := line.PaidRatio()
		totals.PaidNet += net * ratio
		totals.PaidGross += gross * ratio
	}
	return totals
}

// AggregateVendorCosts mirrors AggregateRevenue for vendor bills and
// refunds. No paid proportion is tracked on the cost side.
func AggregateVendorCosts(lines []ledger.Line, dimensionID int64) VendorTotals {
	var totals VendorTotals
	for _, line := range lines {
		if line.Reversed() {
			continue
		}
		attribution := ResolveAttribution(line.Distribution, dimensionID)
		if !attribution.Attributed() {
			if attribution.Skip == SkipMalformed {
				totals.MalformedLines++
			}
			continue
		}

		net := line.AmountNet * attribution.Fraction
		gross := line.AmountGross * attribution.Fraction

		switch line.MoveType {
		case ledger.MoveVendorBill:
			totals.BillsNet += net
		case ledger.MoveVendorRefund:
			totals.CreditNotesNet += -math.Abs(net)
			net = -math.Abs(net)
			gross = -math.Abs(gross)
		default:
			continue
		}

		totals.TotalNet += net
		totals.TotalGross += gross
	}
	return totals
}
