package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWholeMonths(t *testing.T) {
	require.Equal(t, 2, wholeMonths(date(2026, time.February, 28), date(2026, time.April, 1)))
	require.Equal(t, 0, wholeMonths(date(2026, time.March, 1), date(2026, time.March, 31)))
	require.Equal(t, 12, wholeMonths(date(2025, time.June, 15), date(2026, time.June, 1)))
	require.Equal(t, -1, wholeMonths(date(2026, time.April, 1), date(2026, time.March, 1)))
}

func TestApplyDeltasWithoutPriorUsesAbsolutes(t *testing.T) {
	snap := Snapshot{
		CustomerInvoicedNet: 5000,
		TotalCostsNet:       1800,
		TotalAllCostsNet:    3000,
		ProfitLossNet:       2000,
		HoursBooked:         120,
	}
	applyDeltas(&snap, nil)
	require.InDelta(t, 5000, snap.RevenueDelta, 1e-9)
	require.InDelta(t, 1800, snap.CostsDelta, 1e-9)
	require.InDelta(t, 2000, snap.ProfitDelta, 1e-9)
	require.InDelta(t, 120, snap.HoursDelta, 1e-9)
}

func TestApplyDeltasAgainstPrior(t *testing.T) {
	snap := Snapshot{
		CustomerInvoicedNet: 5000,
		TotalCostsNet:       1800,
		TotalAllCostsNet:    3000,
		ProfitLossNet:       2000,
		HoursBooked:         120,
	}
	prior := &Snapshot{
		CustomerInvoicedNet: 4000,
		TotalCostsNet:       2100,
		TotalAllCostsNet:    3500,
		ProfitLossNet:       500,
		HoursBooked:         100,
	}
	applyDeltas(&snap, prior)
	require.InDelta(t, 1000, snap.RevenueDelta, 1e-9)
	// Vendor bills stay out of the costs delta.
	require.InDelta(t, -300, snap.CostsDelta, 1e-9)
	require.InDelta(t, 1500, snap.ProfitDelta, 1e-9)
	require.InDelta(t, 20, snap.HoursDelta, 1e-9)
}

func TestApplyProjection(t *testing.T) {
	snap := Snapshot{
		Date:                date(2026, time.May, 1),
		AdjustedVendorBills: 2600,
		LaborCostsAdjusted:  1320,
		OtherCostsNet:       80,
	}
	end := date(2026, time.August, 31)
	applyProjection(&snap, date(2026, time.January, 10), &end)

	// 4000 cumulative over 4 elapsed months, 3 remaining.
	require.InDelta(t, 1000, snap.MonthlyBurnRate, 1e-9)
	require.InDelta(t, 7000, snap.EstimatedCompletionCost, 1e-9)
}

func TestApplyProjectionZeroElapsedMonths(t *testing.T) {
	snap := Snapshot{
		Date:                date(2026, time.January, 31),
		AdjustedVendorBills: 999,
	}
	applyProjection(&snap, date(2026, time.January, 1), nil)
	require.Zero(t, snap.MonthlyBurnRate)
	require.Zero(t, snap.EstimatedCompletionCost)
}

func TestApplyProjectionNoEndDate(t *testing.T) {
	snap := Snapshot{
		Date:                date(2026, time.March, 1),
		AdjustedVendorBills: 2000,
	}
	applyProjection(&snap, date(2026, time.January, 1), nil)
	require.InDelta(t, 1000, snap.MonthlyBurnRate, 1e-9)
	require.Zero(t, snap.EstimatedCompletionCost)
}

func TestApplyProjectionPastEndDate(t *testing.T) {
	snap := Snapshot{
		Date:                date(2026, time.June, 1),
		AdjustedVendorBills: 5000,
	}
	end := date(2026, time.May, 31)
	applyProjection(&snap, date(2026, time.January, 1), &end)
	require.InDelta(t, 1000, snap.MonthlyBurnRate, 1e-9)
	require.Zero(t, snap.EstimatedCompletionCost)
}

func TestPeriodLabel(t *testing.T) {
	base := Snapshot{Date: date(2026, time.May, 14)}

	quarterly := base
	quarterly.Type = TypeQuarterly
	require.Equal(t, "Q2 2026", quarterly.PeriodLabel())

	monthly := base
	monthly.Type = TypeMonthly
	require.Equal(t, "May 2026", monthly.PeriodLabel())

	manual := base
	manual.Type = TypeManual
	require.Equal(t, "2026-05-14", manual.PeriodLabel())
}
