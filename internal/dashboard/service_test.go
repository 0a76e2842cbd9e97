package dashboard

import (
	"context"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nordlicht-erp/nordlicht/internal/projectfin"
	"github.com/nordlicht-erp/nordlicht/internal/snapshot"
)

type mockProjects struct {
	projects  []projectfin.Project
	listCalls int
}

func (m *mockProjects) Get(_ context.Context, id int64) (projectfin.Project, error) {
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return projectfin.Project{}, projectfin.ErrProjectNotFound
}

func (m *mockProjects) ListAll(_ context.Context) ([]projectfin.Project, error) {
	m.listCalls++
	return m.projects, nil
}

type mockSnapshots struct {
	snaps []snapshot.Snapshot
}

func (m *mockSnapshots) ListByProject(_ context.Context, projectID int64, limit int) ([]snapshot.Snapshot, error) {
	var out []snapshot.Snapshot
	for _, s := range m.snaps {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockSnapshots) ListByType(_ context.Context, t snapshot.Type, limit int) ([]snapshot.Snapshot, error) {
	var out []snapshot.Snapshot
	for _, s := range m.snaps {
		if s.Type == t {
			out = append(out, s)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func finProject(id int64, name string, invoiced, profit, outstanding float64) projectfin.Project {
	return projectfin.Project{
		ID:     id,
		Name:   name,
		Active: true,
		Status: projectfin.StatusAvailable,
		Financials: projectfin.Financials{
			CustomerInvoicedNet:    invoiced,
			CustomerOutstandingNet: outstanding,
			ProfitLossNet:          profit,
			TotalAllCostsNet:       invoiced - profit,
		},
	}
}

func TestGetDashboardDataKPIsAndRankings(t *testing.T) {
	archived := finProject(8, "Eta", 90000, 90000, 90000)
	archived.Active = false

	projects := &mockProjects{projects: []projectfin.Project{
		finProject(1, "Alpha", 10000, 4000, 1000),
		finProject(2, "Beta", 8000, -500, 3000),
		finProject(3, "Gamma", 12000, 6000, 0),
		finProject(4, "Delta", 2000, 100, 200),
		finProject(5, "Epsilon", 500, 50, 50),
		finProject(6, "Zeta", 300, 20, 10),
		{ID: 7, Name: "NoDim", Active: true, Status: projectfin.StatusNoDimension},
		archived,
	}}
	svc := NewService(projects, &mockSnapshots{}, nil, nil)

	overview, err := svc.GetDashboardData(context.Background(), 0)
	require.NoError(t, err)

	require.Equal(t, 8, overview.KPIs.ProjectCount)
	require.Equal(t, 7, overview.KPIs.ActiveCount)
	require.Equal(t, 1, overview.KPIs.NoDimensionCount)

	// Archived projects stay out of the totals and rankings.
	require.InDelta(t, 32800, overview.KPIs.TotalRevenueNet, 1e-9)
	require.InDelta(t, 9670, overview.KPIs.TotalProfitNet, 1e-9)
	require.InDelta(t, 4260, overview.KPIs.TotalOutstanding, 1e-9)

	// Portfolio margin, not the mean of per-project margins.
	require.InDelta(t, 9670.0/32800.0*100, overview.KPIs.AverageMarginPct, 1e-9)
	require.InDelta(t, 32800.0/6, overview.KPIs.AverageRevenueNet, 1e-9)

	require.Len(t, overview.TopProfitable, 5)
	require.Equal(t, "Gamma", overview.TopProfitable[0].Name)
	require.Equal(t, "Beta", overview.BottomProfitable[0].Name)
	require.Equal(t, "Gamma", overview.TopRevenue[0].Name)
	require.Equal(t, "Beta", overview.TopOutstanding[0].Name)
}

func TestGetDashboardDataCompanyFilter(t *testing.T) {
	alpha := finProject(1, "Alpha", 1000, 100, 0)
	alpha.CompanyID = 10
	beta := finProject(2, "Beta", 2000, 200, 0)
	beta.CompanyID = 20

	svc := NewService(&mockProjects{projects: []projectfin.Project{alpha, beta}}, &mockSnapshots{}, nil, nil)
	overview, err := svc.GetDashboardData(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, overview.KPIs.ProjectCount)
	require.InDelta(t, 1000, overview.KPIs.TotalRevenueNet, 1e-9)
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestGetDashboardDataUsesCacheUntilBump(t *testing.T) {
	projects := &mockProjects{projects: []projectfin.Project{
		finProject(1, "Alpha", 1000, 100, 0),
	}}
	svc := NewService(projects, &mockSnapshots{}, testCache(t), nil)

	_, err := svc.GetDashboardData(context.Background(), 0)
	require.NoError(t, err)
	_, err = svc.GetDashboardData(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, projects.listCalls)

	svc.Invalidate(context.Background())
	_, err = svc.GetDashboardData(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 2, projects.listCalls)
}

func trendSnap(projectID int64, t snapshot.Type, date time.Time, revenue, costs float64) snapshot.Snapshot {
	return snapshot.Snapshot{
		ProjectID:           projectID,
		Type:                t,
		Date:                date,
		CustomerInvoicedNet: revenue,
		TotalAllCostsNet:    costs,
		ProfitLossNet:       revenue - costs,
	}
}

func TestGetTrendDataPerProject(t *testing.T) {
	jan := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
	snaps := &mockSnapshots{snaps: []snapshot.Snapshot{
		trendSnap(7, snapshot.TypeMonthly, feb, 2000, 900),
		trendSnap(7, snapshot.TypeMonthly, jan, 1000, 400),
		trendSnap(7, snapshot.TypeManual, feb, 9999, 9999),
		trendSnap(8, snapshot.TypeMonthly, jan, 5, 5),
	}}
	svc := NewService(&mockProjects{}, snaps, nil, nil)

	projectID := int64(7)
	trend, err := svc.GetTrendData(context.Background(), &projectID, "monthly", 12)
	require.NoError(t, err)
	require.Equal(t, []string{"Jan 2026", "Feb 2026"}, trend.Labels)
	require.Equal(t, []float64{1000, 2000}, trend.Revenue)
	require.Equal(t, []float64{400, 900}, trend.Costs)
	require.Equal(t, []float64{600, 1100}, trend.Profit)
}

func TestGetTrendDataAggregated(t *testing.T) {
	jan := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	snaps := &mockSnapshots{snaps: []snapshot.Snapshot{
		trendSnap(7, snapshot.TypeMonthly, jan, 1000, 400),
		trendSnap(8, snapshot.TypeMonthly, jan, 500, 100),
	}}
	svc := NewService(&mockProjects{}, snaps, nil, nil)

	trend, err := svc.GetTrendData(context.Background(), nil, "monthly", 12)
	require.NoError(t, err)
	require.Equal(t, []string{"Jan 2026"}, trend.Labels)
	require.Equal(t, []float64{1500}, trend.Revenue)
	require.Equal(t, []float64{500}, trend.Costs)
}

func TestGetBurnDownDataLinearPlan(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	project := projectfin.Project{
		ID:        7,
		Active:    true,
		Status:    projectfin.StatusAvailable,
		StartDate: start,
		EndDate:   &end,
		Financials: projectfin.Financials{
			SaleOrderAmountNet: 12000,
		},
	}
	snaps := &mockSnapshots{snaps: []snapshot.Snapshot{
		{ProjectID: 7, Type: snapshot.TypeMonthly, Date: start.AddDate(0, 1, 0), AdjustedVendorBills: 2000},
		{ProjectID: 7, Type: snapshot.TypeMonthly, Date: start.AddDate(0, 2, 0), AdjustedVendorBills: 5000},
	}}
	svc := NewService(&mockProjects{projects: []projectfin.Project{project}}, snaps, nil, nil)

	data, err := svc.GetBurnDownData(context.Background(), 7)
	require.NoError(t, err)
	require.InDelta(t, 12000, data.Budget, 1e-9)
	require.Equal(t, []string{"Feb 2026", "Mar 2026"}, data.Labels)

	// 120 day span, 31 and 59 days elapsed.
	require.InDelta(t, 12000*31.0/120.0, data.PlannedCosts[0], 1e-6)
	require.InDelta(t, 12000*59.0/120.0, data.PlannedCosts[1], 1e-6)
	require.Equal(t, []float64{2000, 5000}, data.ActualCosts)
	require.Equal(t, []float64{10000, 7000}, data.BudgetRemaining)
}

func TestGetBurnDownDataBudgetFallback(t *testing.T) {
	project := finProject(7, "Alpha", 4000, 1000, 0)
	svc := NewService(&mockProjects{projects: []projectfin.Project{project}}, &mockSnapshots{}, nil, nil)

	data, err := svc.GetBurnDownData(context.Background(), 7)
	require.NoError(t, err)
	require.InDelta(t, 4000, data.Budget, 1e-9)
	require.Empty(t, data.Labels)
}
