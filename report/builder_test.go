package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nordlicht-erp/nordlicht/internal/projectfin"
	"github.com/nordlicht-erp/nordlicht/internal/snapshot"
)

type stubProjects struct {
	projects map[int64]projectfin.Project
}

func (s *stubProjects) Get(_ context.Context, id int64) (projectfin.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return projectfin.Project{}, projectfin.ErrProjectNotFound
	}
	return p, nil
}

func (s *stubProjects) ListAll(_ context.Context) ([]projectfin.Project, error) {
	var out []projectfin.Project
	for _, p := range s.projects {
		out = append(out, p)
	}
	return out, nil
}

type stubSnaps struct {
	snaps []snapshot.Snapshot
}

func (s *stubSnaps) ListByProject(_ context.Context, projectID int64, limit int) ([]snapshot.Snapshot, error) {
	var out []snapshot.Snapshot
	for _, snap := range s.snaps {
		if snap.ProjectID == projectID {
			out = append(out, snap)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestProjectBundle(t *testing.T) {
	projects := &stubProjects{projects: map[int64]projectfin.Project{
		7: {
			ID:         7,
			Name:       "Harbour Upgrade",
			ClientName: "Port Authority",
			Currency:   "EUR",
			Status:     projectfin.StatusAvailable,
			Financials: projectfin.Financials{
				CustomerInvoicedNet:    10000,
				CustomerPaidNet:        7500,
				CustomerOutstandingNet: 2500,
				VendorBillsTotalNet:    3000,
				LaborCosts:             2000,
				LaborCostsAdjusted:     1500,
				OtherCostsNet:          1000,
				TotalCostsNet:          3000,
				TotalAllCostsNet:       6000,
				ProfitLossNet:          4000,
				SaleOrderAmountNet:     12000,
				HoursBooked:            40,
			},
		},
	}}
	snaps := &stubSnaps{snaps: []snapshot.Snapshot{{
		ProjectID:           7,
		Type:                snapshot.TypeMonthly,
		Date:                time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC),
		CustomerInvoicedNet: 10000,
		TotalAllCostsNet:    6000,
		ProfitLossNet:       4000,
	}}}

	bundle, err := NewBuilder(projects, snaps).ProjectBundle(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, bundle.HasData)
	require.Equal(t, "10,000.00 EUR", bundle.InvoicedNet)
	require.Equal(t, "6,000.00 EUR", bundle.BudgetVariance)
	require.InDelta(t, 40.0, bundle.ProfitMarginPct, 1e-9)
	// Shares of the adjusted base 3000 + 1500 + 1000.
	require.InDelta(t, 54.5, bundle.VendorCostPct, 1e-9)
	require.InDelta(t, 27.3, bundle.LaborCostPct, 1e-9)
	require.InDelta(t, 18.2, bundle.OtherCostPct, 1e-9)
	require.Len(t, bundle.Trend, 1)
	require.Equal(t, "Jul 2026", bundle.Trend[0].Period)
}

func TestProjectBundleWithoutDimension(t *testing.T) {
	projects := &stubProjects{projects: map[int64]projectfin.Project{
		7: {ID: 7, Name: "Unlinked", Status: projectfin.StatusNoDimension},
	}}

	bundle, err := NewBuilder(projects, &stubSnaps{}).ProjectBundle(context.Background(), 7)
	require.NoError(t, err)
	require.False(t, bundle.HasData)
	require.Equal(t, "0.00 EUR", bundle.InvoicedNet)
	require.Zero(t, bundle.ProfitMarginPct)
}

func TestProjectBundleUnknownProject(t *testing.T) {
	_, err := NewBuilder(&stubProjects{}, &stubSnaps{}).ProjectBundle(context.Background(), 99)
	require.ErrorIs(t, err, projectfin.ErrProjectNotFound)
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "1,234,567.89 EUR", formatAmount(1234567.891, "EUR"))
	require.Equal(t, "-950.50 USD", formatAmount(-950.5, "USD"))
	require.Equal(t, "0.00 EUR", formatAmount(0, ""))
}

func TestTemplatesRender(t *testing.T) {
	projects := &stubProjects{projects: map[int64]projectfin.Project{
		7: {ID: 7, Name: "Harbour Upgrade", Status: projectfin.StatusAvailable},
	}}
	builder := NewBuilder(projects, &stubSnaps{})

	bundle, err := builder.ProjectBundle(context.Background(), 7)
	require.NoError(t, err)
	var sink nopWriter
	require.NoError(t, projectTemplate.Execute(&sink, bundle))

	summary, err := builder.PortfolioSummary(context.Background())
	require.NoError(t, err)
	require.NoError(t, portfolioTemplate.Execute(&sink, summary))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
