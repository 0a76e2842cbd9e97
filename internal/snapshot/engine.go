package snapshot

import "time"

// wholeMonths counts full calendar months between two dates, ignoring
// the day of month. February to April is 2 regardless of the days.
func wholeMonths(from, to time.Time) int {
	years := to.Year() - from.Year()
	months := int(to.Month()) - int(from.Month())
	return years*12 + months
}

// applyDeltas fills the delta fields of s against the prior snapshot.
// With no prior snapshot the deltas equal the absolute values, reading
// as "change since zero". The costs delta tracks internal costs (labor
// plus other), not the combined total with vendor bills.
func applyDeltas(s *Snapshot, prior *Snapshot) {
	if prior == nil {
		s.RevenueDelta = s.CustomerInvoicedNet
		s.CostsDelta = s.TotalCostsNet
		s.ProfitDelta = s.ProfitLossNet
		s.HoursDelta = s.HoursBooked
		return
	}
	s.RevenueDelta = s.CustomerInvoicedNet - prior.CustomerInvoicedNet
	s.CostsDelta = s.TotalCostsNet - prior.TotalCostsNet
	s.ProfitDelta = s.ProfitLossNet - prior.ProfitLossNet
	s.HoursDelta = s.HoursBooked - prior.HoursBooked
}

// applyProjection fills the burn-rate and completion-cost fields.
// Burn rate is the cumulative adjusted cost spread over the whole months
// elapsed since project start; zero elapsed months yields zero. The
// completion estimate extrapolates the burn rate over the whole months
// remaining to the project end date, when one exists.
func applyProjection(s *Snapshot, projectStart time.Time, projectEnd *time.Time) {
	elapsed := wholeMonths(projectStart, s.Date)
	if elapsed <= 0 {
		s.MonthlyBurnRate = 0
		s.EstimatedCompletionCost = 0
		return
	}
	cumulative := s.CumulativeAdjustedCost()
	s.MonthlyBurnRate = cumulative / float64(elapsed)

	s.EstimatedCompletionCost = 0
	if projectEnd != nil {
		if remaining := wholeMonths(s.Date, *projectEnd); remaining > 0 {
			s.EstimatedCompletionCost = cumulative + s.MonthlyBurnRate*float64(remaining)
		}
	}
}
