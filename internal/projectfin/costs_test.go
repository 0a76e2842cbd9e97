package projectfin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordlicht-erp/nordlicht/internal/ledger"
)

func TestClassifySkontoPrefixes(t *testing.T) {
	codes := DefaultSkontoCodes()
	require.Equal(t, SkontoCustomer, codes.Classify("730010"))
	require.Equal(t, SkontoCustomer, codes.Classify("2130"))
	require.Equal(t, SkontoVendor, codes.Classify("4731"))
	require.Equal(t, SkontoVendor, codes.Classify("267000"))
	require.Equal(t, SkontoNone, codes.Classify("6000"))
	require.Equal(t, SkontoNone, codes.Classify(""))
}

func TestExtractSkontoUsesAbsoluteAmounts(t *testing.T) {
	entries := []ledger.Entry{
		{AccountCode: "7300", Amount: -35.50},
		{AccountCode: "7301", Amount: 12},
		{AccountCode: "4730", Amount: -20},
		{AccountCode: "6000", Amount: -999},
	}
	totals := ExtractSkonto(entries, DefaultSkontoCodes())
	require.InDelta(t, 47.50, totals.Customer, 1e-9)
	require.InDelta(t, 20, totals.Vendor, 1e-9)
}

func TestFilterOtherCosts(t *testing.T) {
	reversedDoc := int64(9)
	entries := []ledger.Entry{
		// Manual booking without a move line: included.
		{Amount: -150},
		// Positive entry: excluded.
		{Amount: 80},
		// Timesheet cost: excluded, belongs to labor.
		{Amount: -500, IsTimesheet: true},
		// Vendor bill mirror: excluded, counted on the vendor side.
		{Amount: -300, HasMoveLine: true, MoveType: ledger.MoveVendorBill},
		// Generic journal posting: excluded.
		{Amount: -40, HasMoveLine: true, MoveType: ledger.MoveJournalEntry},
		// Reversed document: excluded.
		{Amount: -60, HasMoveLine: true, ReversedDocID: &reversedDoc},
		// Cash discount account: excluded even without a move line.
		{Amount: -25, AccountCode: "7300"},
		// Plain cost posting with a move line on a neutral account: included.
		{Amount: -75.25, HasMoveLine: true, AccountCode: "6200"},
	}
	total := FilterOtherCosts(entries, DefaultSkontoCodes())
	require.InDelta(t, 225.25, total, 1e-9)
}

func TestComputeLaborAppliesWorkerFactors(t *testing.T) {
	fast, slow, unknown := int64(1), int64(2), int64(3)
	entries := []ledger.Entry{
		{IsTimesheet: true, UnitAmount: 8, Amount: -400, WorkerID: &fast},
		{IsTimesheet: true, UnitAmount: 10, Amount: -500, WorkerID: &slow},
		{IsTimesheet: true, UnitAmount: 4, Amount: -200, WorkerID: &unknown},
		{IsTimesheet: true, UnitAmount: 2, Amount: -100},
		{IsTimesheet: false, UnitAmount: 99, Amount: -999},
	}
	factors := map[int64]float64{fast: 0.8, slow: 1.2}

	totals := ComputeLabor(entries, factors)
	require.InDelta(t, 24, totals.Hours, 1e-9)
	require.InDelta(t, 1200, totals.Costs, 1e-9)
	// 8*0.8 + 10*1.2 + 4*1.0 + 2*1.0
	require.InDelta(t, 24.4, totals.AdjustedHours, 1e-9)
}

func TestComputeLaborIgnoresNonPositiveFactor(t *testing.T) {
	worker := int64(5)
	entries := []ledger.Entry{
		{IsTimesheet: true, UnitAmount: 10, Amount: -500, WorkerID: &worker},
	}
	totals := ComputeLabor(entries, map[int64]float64{worker: 0})
	require.InDelta(t, 10, totals.AdjustedHours, 1e-9)
}

func TestWorkerIDsDistinct(t *testing.T) {
	a, b := int64(1), int64(2)
	entries := []ledger.Entry{
		{IsTimesheet: true, WorkerID: &a},
		{IsTimesheet: true, WorkerID: &a},
		{IsTimesheet: true, WorkerID: &b},
		{IsTimesheet: true},
		{IsTimesheet: false, WorkerID: &b},
	}
	require.ElementsMatch(t, []int64{1, 2}, WorkerIDs(entries))
}
