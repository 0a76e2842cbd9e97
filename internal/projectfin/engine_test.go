package projectfin

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordlicht-erp/nordlicht/internal/ledger"
)

func dist(shares map[int64]float64) json.RawMessage {
	m := make(map[string]float64, len(shares))
	for id, pct := range shares {
		m[fmt.Sprintf("%d", id)] = pct
	}
	raw, _ := json.Marshal(m)
	return raw
}

func invoiceLine(docID int64, moveType ledger.MoveType, net, gross float64, shares map[int64]float64) ledger.Line {
	return ledger.Line{
		ID:               docID * 10,
		DocumentID:       docID,
		MoveType:         moveType,
		AmountNet:        net,
		AmountGross:      gross,
		Distribution:     dist(shares),
		DocumentTotal:    gross,
		DocumentResidual: gross,
	}
}

func TestAggregateRevenueAppliesAttributionFraction(t *testing.T) {
	lines := []ledger.Line{
		invoiceLine(1, ledger.MoveCustomerInvoice, 1000, 1190, map[int64]float64{42: 50, 7: 50}),
	}
	totals := AggregateRevenue(lines, 42)
	require.InDelta(t, 500, totals.InvoicedNet, 1e-9)
	require.InDelta(t, 595, totals.InvoicedGross, 1e-9)
	require.InDelta(t, 500, totals.InvoicesNet, 1e-9)
	require.Zero(t, totals.PaidNet)
}

func TestAggregateRevenuePaidProportion(t *testing.T) {
	line := invoiceLine(1, ledger.MoveCustomerInvoice, 1000, 1190, map[int64]float64{42: 100})
	line.DocumentResidual = 595 // half settled
	totals := AggregateRevenue([]ledger.Line{line}, 42)
	require.InDelta(t, 1000, totals.InvoicedNet, 1e-9)
	require.InDelta(t, 500, totals.PaidNet, 1e-9)
	require.InDelta(t, 595, totals.PaidGross, 1e-9)
}

func TestAggregateRevenueZeroTotalDocumentCountsUnpaid(t *testing.T) {
	line := invoiceLine(1, ledger.MoveCustomerInvoice, 100, 119, map[int64]float64{42: 100})
	line.DocumentTotal = 0
	line.DocumentResidual = 0
	totals := AggregateRevenue([]ledger.Line{line}, 42)
	require.InDelta(t, 100, totals.InvoicedNet, 1e-9)
	require.Zero(t, totals.PaidNet)
}

func TestAggregateRevenueCreditNoteNegatesAbs(t *testing.T) {
	// Credit note amounts contribute -abs regardless of stored sign.
	for _, stored := range []float64{200, -200} {
		lines := []ledger.Line{
			invoiceLine(1, ledger.MoveCustomerInvoice, 1000, 1190, map[int64]float64{42: 100}),
			invoiceLine(2, ledger.MoveCustomerCreditNote, stored, stored*1.19, map[int64]float64{42: 100}),
		}
		totals := AggregateRevenue(lines, 42)
		require.InDelta(t, 800, totals.InvoicedNet, 1e-9)
		require.InDelta(t, -200, totals.CreditNotesNet, 1e-9)
		require.InDelta(t, 1000, totals.InvoicesNet, 1e-9)
	}
}

func TestAggregateRevenueSkipsReversedDocuments(t *testing.T) {
	reversedDoc := int64(1)
	reversing := invoiceLine(2, ledger.MoveCustomerCreditNote, 1000, 1190, map[int64]float64{42: 100})
	reversing.ReversedDocID = &reversedDoc

	lines := []ledger.Line{
		invoiceLine(1, ledger.MoveCustomerInvoice, 1000, 1190, map[int64]float64{42: 100}),
		reversing,
	}
	totals := AggregateRevenue(lines, 42)
	require.InDelta(t, 1000, totals.InvoicedNet, 1e-9)
	require.Zero(t, totals.CreditNotesNet)
}

func TestAggregateRevenueCountsMalformed(t *testing.T) {
	line := invoiceLine(1, ledger.MoveCustomerInvoice, 1000, 1190, nil)
	line.Distribution = json.RawMessage(`broken`)
	totals := AggregateRevenue([]ledger.Line{line}, 42)
	require.Zero(t, totals.InvoicedNet)
	require.Equal(t, 1, totals.MalformedLines)
}

func TestAggregateVendorCosts(t *testing.T) {
	lines := []ledger.Line{
		invoiceLine(1, ledger.MoveVendorBill, 600, 714, map[int64]float64{42: 100}),
		invoiceLine(2, ledger.MoveVendorRefund, 100, 119, map[int64]float64{42: 100}),
		invoiceLine(3, ledger.MoveVendorBill, 400, 476, map[int64]float64{7: 100}),
	}
	totals := AggregateVendorCosts(lines, 42)
	require.InDelta(t, 500, totals.TotalNet, 1e-9)
	require.InDelta(t, 600, totals.BillsNet, 1e-9)
	require.InDelta(t, -100, totals.CreditNotesNet, 1e-9)
	require.InDelta(t, 595, totals.TotalGross, 1e-9)
}

func TestAggregateIsDeterministic(t *testing.T) {
	lines := []ledger.Line{
		invoiceLine(1, ledger.MoveCustomerInvoice, 1000, 1190, map[int64]float64{42: 75}),
		invoiceLine(2, ledger.MoveCustomerCreditNote, 50, 59.5, map[int64]float64{42: 100}),
	}
	first := AggregateRevenue(lines, 42)
	second := AggregateRevenue(lines, 42)
	require.Equal(t, first, second)
}
