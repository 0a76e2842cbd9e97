package dashboard

import (
	"context"
	"sort"

	"github.com/nordlicht-erp/nordlicht/internal/snapshot"
)

const defaultTrendLimit = 12

// TrendData is a snapshot-derived time series, oldest period first.
type TrendData struct {
	Labels   []string  `json:"labels"`
	Revenue  []float64 `json:"revenue"`
	Costs    []float64 `json:"costs"`
	Profit   []float64 `json:"profit"`
	Hours    []float64 `json:"hours"`
	BurnRate []float64 `json:"burn_rate"`
}

// GetTrendData builds the trend series. With a project id the series is
// that project's snapshot history; without one the snapshots of every
// project are aggregated per period label.
func (s *Service) GetTrendData(ctx context.Context, projectID *int64, period string, limit int) (TrendData, error) {
	if limit <= 0 {
		limit = defaultTrendLimit
	}
	loader := func(ctx context.Context) (interface{}, error) {
		if projectID != nil {
			return s.buildProjectTrend(ctx, *projectID, period, limit)
		}
		return s.buildAggregatedTrend(ctx, period, limit)
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return TrendData{}, err
		}
		return value.(TrendData), nil
	}
	var cacheID int64
	if projectID != nil {
		cacheID = *projectID
	}
	key, err := s.cache.BuildKey(ctx, keyTrend(cacheID, period, limit))
	if err != nil {
		return TrendData{}, err
	}
	var trend TrendData
	if err := s.cache.FetchJSON(ctx, key, &trend, loader); err != nil {
		return TrendData{}, err
	}
	return trend, nil
}

func (s *Service) buildProjectTrend(ctx context.Context, projectID int64, period string, limit int) (TrendData, error) {
	snapType := snapshotTypeForPeriod(period)
	snaps, err := s.snapshots.ListByProject(ctx, projectID, limit*3)
	if err != nil {
		return TrendData{}, err
	}

	var filtered []snapshot.Snapshot
	for _, snap := range snaps {
		if snap.Type == snapType {
			filtered = append(filtered, snap)
		}
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	trend := TrendData{}
	for _, snap := range chronological(filtered) {
		trend.Labels = append(trend.Labels, snap.PeriodLabel())
		trend.Revenue = append(trend.Revenue, snap.CustomerInvoicedNet)
		trend.Costs = append(trend.Costs, snap.TotalAllCostsNet)
		trend.Profit = append(trend.Profit, snap.ProfitLossNet)
		trend.Hours = append(trend.Hours, snap.HoursBooked)
		trend.BurnRate = append(trend.BurnRate, snap.MonthlyBurnRate)
	}
	return trend, nil
}

// periodBucket accumulates one label's figures across projects.
type periodBucket struct {
	label    string
	sortKey  string
	revenue  float64
	costs    float64
	profit   float64
	hours    float64
	burnRate float64
	count    int
}

func (s *Service) buildAggregatedTrend(ctx context.Context, period string, limit int) (TrendData, error) {
	snapType := snapshotTypeForPeriod(period)
	snaps, err := s.snapshots.ListByType(ctx, snapType, limit*200)
	if err != nil {
		return TrendData{}, err
	}

	buckets := make(map[string]*periodBucket)
	for _, snap := range snaps {
		label := snap.PeriodLabel()
		bucket, ok := buckets[label]
		if !ok {
			bucket = &periodBucket{label: label, sortKey: snap.Date.Format("2006-01")}
			buckets[label] = bucket
		}
		bucket.revenue += snap.CustomerInvoicedNet
		bucket.costs += snap.TotalAllCostsNet
		bucket.profit += snap.ProfitLossNet
		bucket.hours += snap.HoursBooked
		bucket.burnRate += snap.MonthlyBurnRate
		bucket.count++
	}

	ordered := make([]*periodBucket, 0, len(buckets))
	for _, bucket := range buckets {
		ordered = append(ordered, bucket)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].sortKey < ordered[j].sortKey })
	if len(ordered) > limit {
		ordered = ordered[len(ordered)-limit:]
	}

	trend := TrendData{}
	for _, bucket := range ordered {
		trend.Labels = append(trend.Labels, bucket.label)
		trend.Revenue = append(trend.Revenue, bucket.revenue)
		trend.Costs = append(trend.Costs, bucket.costs)
		trend.Profit = append(trend.Profit, bucket.profit)
		trend.Hours = append(trend.Hours, bucket.hours)
		trend.BurnRate = append(trend.BurnRate, bucket.burnRate)
	}
	return trend, nil
}

// BurnDownData compares planned against actual cost consumption over a
// project's snapshot history.
type BurnDownData struct {
	Labels          []string  `json:"labels"`
	Budget          float64   `json:"budget"`
	PlannedCosts    []float64 `json:"planned_costs"`
	ActualCosts     []float64 `json:"actual_costs"`
	BudgetRemaining []float64 `json:"budget_remaining"`
}

// GetBurnDownData builds the burn-down series for one project. Budget is
// the sales-order baseline, falling back to invoiced revenue. Planned
// consumption is linear over the project duration in days; without dates
// it falls back to an even split per snapshot.
func (s *Service) GetBurnDownData(ctx context.Context, projectID int64) (BurnDownData, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.buildBurnDown(ctx, projectID)
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return BurnDownData{}, err
		}
		return value.(BurnDownData), nil
	}
	key, err := s.cache.BuildKey(ctx, keyBurnDown(projectID))
	if err != nil {
		return BurnDownData{}, err
	}
	var data BurnDownData
	if err := s.cache.FetchJSON(ctx, key, &data, loader); err != nil {
		return BurnDownData{}, err
	}
	return data, nil
}

func (s *Service) buildBurnDown(ctx context.Context, projectID int64) (BurnDownData, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return BurnDownData{}, err
	}
	snaps, err := s.snapshots.ListByProject(ctx, projectID, defaultTrendLimit)
	if err != nil {
		return BurnDownData{}, err
	}
	snaps = chronological(snaps)

	budget := project.Financials.SaleOrderAmountNet
	if budget == 0 {
		budget = project.Financials.CustomerInvoicedNet
	}

	data := BurnDownData{Budget: budget}
	start := project.EffectiveStart()
	var totalDays float64
	if project.EndDate != nil {
		totalDays = dayCount(start, *project.EndDate)
	}

	for i, snap := range snaps {
		data.Labels = append(data.Labels, snap.PeriodLabel())

		planned := 0.0
		if totalDays > 0 {
			elapsed := dayCount(start, snap.Date)
			if elapsed < 0 {
				elapsed = 0
			}
			if elapsed > totalDays {
				elapsed = totalDays
			}
			planned = budget * elapsed / totalDays
		} else if len(snaps) > 0 {
			planned = budget * float64(i+1) / float64(len(snaps))
		}
		data.PlannedCosts = append(data.PlannedCosts, planned)

		actual := snap.CumulativeAdjustedCost()
		data.ActualCosts = append(data.ActualCosts, actual)
		data.BudgetRemaining = append(data.BudgetRemaining, budget-actual)
	}
	return data, nil
}
