// Package dashboard assembles the consumer-facing read models: portfolio
// KPIs, project rankings, snapshot trends, and burn-down series. It only
// reads the stored aggregates; nothing here recomputes.
package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/nordlicht-erp/nordlicht/internal/projectfin"
	"github.com/nordlicht-erp/nordlicht/internal/snapshot"
)

const rankingSize = 5

// ProjectSource provides the stored project aggregates.
type ProjectSource interface {
	Get(ctx context.Context, id int64) (projectfin.Project, error)
	ListAll(ctx context.Context) ([]projectfin.Project, error)
}

// SnapshotSource provides persisted snapshot history.
type SnapshotSource interface {
	ListByProject(ctx context.Context, projectID int64, limit int) ([]snapshot.Snapshot, error)
	ListByType(ctx context.Context, t snapshot.Type, limit int) ([]snapshot.Snapshot, error)
}

// Service serves the dashboard read models, cache-aware.
type Service struct {
	projects  ProjectSource
	snapshots SnapshotSource
	cache     *Cache
	logger    *slog.Logger
}

// NewService constructs a dashboard service instance.
func NewService(projects ProjectSource, snapshots SnapshotSource, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{projects: projects, snapshots: snapshots, cache: cache, logger: logger}
}

// KPISummary carries the portfolio-level headline figures. Totals span
// the active projects with financial data; AverageMarginPct is the
// portfolio margin, total profit over total revenue.
type KPISummary struct {
	ProjectCount      int     `json:"project_count"`
	ActiveCount       int     `json:"active_count"`
	NoDimensionCount  int     `json:"no_dimension_count"`
	TotalRevenueNet   float64 `json:"total_revenue_net"`
	TotalCostsNet     float64 `json:"total_costs_net"`
	TotalProfitNet    float64 `json:"total_profit_net"`
	TotalOutstanding  float64 `json:"total_outstanding_net"`
	AverageMarginPct  float64 `json:"average_margin_pct"`
	AverageRevenueNet float64 `json:"average_revenue_net"`
}

// ProjectRank is one row of a top/bottom ranking.
type ProjectRank struct {
	ProjectID int64   `json:"project_id"`
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
}

// Overview bundles everything the dashboard landing page needs.
type Overview struct {
	KPIs             KPISummary    `json:"kpis"`
	TopProfitable    []ProjectRank `json:"top_profitable"`
	BottomProfitable []ProjectRank `json:"bottom_profitable"`
	TopRevenue       []ProjectRank `json:"top_revenue"`
	TopOutstanding   []ProjectRank `json:"top_outstanding"`
}

// GetDashboardData builds the landing-page overview, optionally filtered
// to one company (0 means all).
func (s *Service) GetDashboardData(ctx context.Context, companyID int64) (Overview, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.buildOverview(ctx, companyID)
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Overview{}, err
		}
		return value.(Overview), nil
	}
	key, err := s.cache.BuildKey(ctx, keyOverview(companyID))
	if err != nil {
		return Overview{}, err
	}
	var overview Overview
	if err := s.cache.FetchJSON(ctx, key, &overview, loader); err != nil {
		return Overview{}, err
	}
	return overview, nil
}

func (s *Service) buildOverview(ctx context.Context, companyID int64) (Overview, error) {
	projects, err := s.projects.ListAll(ctx)
	if err != nil {
		return Overview{}, err
	}

	var overview Overview
	var withData []projectfin.Project
	for _, p := range projects {
		if companyID != 0 && p.CompanyID != companyID {
			continue
		}
		overview.KPIs.ProjectCount++
		if !p.Active {
			continue
		}
		overview.KPIs.ActiveCount++
		if p.Status == projectfin.StatusNoDimension {
			overview.KPIs.NoDimensionCount++
			continue
		}
		withData = append(withData, p)

		f := p.Financials
		overview.KPIs.TotalRevenueNet += f.CustomerInvoicedNet
		overview.KPIs.TotalCostsNet += f.TotalAllCostsNet
		overview.KPIs.TotalProfitNet += f.ProfitLossNet
		overview.KPIs.TotalOutstanding += f.CustomerOutstandingNet
	}

	if n := len(withData); n > 0 {
		overview.KPIs.AverageRevenueNet = overview.KPIs.TotalRevenueNet / float64(n)
	}
	if overview.KPIs.TotalRevenueNet > 0 {
		overview.KPIs.AverageMarginPct = overview.KPIs.TotalProfitNet / overview.KPIs.TotalRevenueNet * 100
	}

	overview.TopProfitable = rankProjects(withData, rankingSize, false, func(f projectfin.Financials) float64 {
		return f.ProfitLossNet
	})
	overview.BottomProfitable = rankProjects(withData, rankingSize, true, func(f projectfin.Financials) float64 {
		return f.ProfitLossNet
	})
	overview.TopRevenue = rankProjects(withData, rankingSize, false, func(f projectfin.Financials) float64 {
		return f.CustomerInvoicedNet
	})
	overview.TopOutstanding = rankProjects(withData, rankingSize, false, func(f projectfin.Financials) float64 {
		return f.CustomerOutstandingNet
	})
	return overview, nil
}

func rankProjects(projects []projectfin.Project, limit int, ascending bool, value func(projectfin.Financials) float64) []ProjectRank {
	ranks := make([]ProjectRank, 0, len(projects))
	for _, p := range projects {
		ranks = append(ranks, ProjectRank{ProjectID: p.ID, Name: p.Name, Value: value(p.Financials)})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ascending {
			return ranks[i].Value < ranks[j].Value
		}
		return ranks[i].Value > ranks[j].Value
	})
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}

// Invalidate bumps the cache version after a recompute or snapshot run.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump failed", slog.Any("error", err))
	}
}

func snapshotTypeForPeriod(period string) snapshot.Type {
	if period == "quarterly" {
		return snapshot.TypeQuarterly
	}
	return snapshot.TypeMonthly
}

func chronological(snaps []snapshot.Snapshot) []snapshot.Snapshot {
	out := append([]snapshot.Snapshot(nil), snaps...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func dayCount(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}
