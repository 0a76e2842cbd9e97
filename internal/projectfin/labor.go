package projectfin

import (
	"math"

	"github.com/nordlicht-erp/nordlicht/internal/ledger"
)

// LaborTotals aggregates timesheet-derived effort and cost.
type LaborTotals struct {
	Hours         float64
	Costs         float64
	AdjustedHours float64
}

// ComputeLabor folds timesheet entries into hours and cost. Adjusted
// hours scale each entry by its worker's efficiency factor; a missing
// worker or factor counts as 1.0. The adjusted labor cost itself is
// derived later from the standard hourly rate.
func ComputeLabor(entries []ledger.Entry, factors map[int64]float64) LaborTotals {
	var totals LaborTotals
	for _, entry := range entries {
		if !entry.IsTimesheet {
			continue
		}
		hours := entry.UnitAmount
		totals.Hours += hours
		totals.Costs += math.Abs(entry.Amount)

		factor := 1.0
		if entry.WorkerID != nil {
			if f, ok := factors[*entry.WorkerID]; ok && f > 0 {
				factor = f
			}
		}
		totals.AdjustedHours += hours * factor
	}
	return totals
}

// WorkerIDs collects the distinct worker ids referenced by timesheet
// entries, for a single factor lookup per pass.
func WorkerIDs(entries []ledger.Entry) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, entry := range entries {
		if !entry.IsTimesheet || entry.WorkerID == nil {
			continue
		}
		if _, ok := seen[*entry.WorkerID]; ok {
			continue
		}
		seen[*entry.WorkerID] = struct{}{}
		ids = append(ids, *entry.WorkerID)
	}
	return ids
}
