// Package report produces the PDF report bundles for projects and the
// portfolio, rendered through a Gotenberg sidecar.
package report

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/nordlicht-erp/nordlicht/internal/projectfin"
	"github.com/nordlicht-erp/nordlicht/internal/snapshot"
)

const trendRows = 6

// ProjectSource provides stored project aggregates.
type ProjectSource interface {
	Get(ctx context.Context, id int64) (projectfin.Project, error)
	ListAll(ctx context.Context) ([]projectfin.Project, error)
}

// SnapshotSource provides snapshot history for the trend table.
type SnapshotSource interface {
	ListByProject(ctx context.Context, projectID int64, limit int) ([]snapshot.Snapshot, error)
}

// Builder assembles the presentation bundles fed into the templates.
type Builder struct {
	projects  ProjectSource
	snapshots SnapshotSource
}

// NewBuilder constructs a report builder.
func NewBuilder(projects ProjectSource, snapshots SnapshotSource) *Builder {
	return &Builder{projects: projects, snapshots: snapshots}
}

// TrendRow is one period line of the snapshot trend table.
type TrendRow struct {
	Period  string
	Revenue string
	Costs   string
	Profit  string
}

// ProjectBundle is the flat per-project data set a report template needs.
type ProjectBundle struct {
	ProjectID  int64
	Name       string
	ClientName string
	Manager    string
	Currency   string
	HasData    bool

	InvoicedNet    string
	PaidNet        string
	OutstandingNet string
	VendorBills    string
	LaborCosts     string
	OtherCosts     string
	TotalCosts     string
	ProfitLoss     string
	CalculatedPL   string
	Budget         string
	BudgetVariance string
	HoursBooked    string

	ProfitMarginPct float64
	VendorCostPct   float64
	LaborCostPct    float64
	OtherCostPct    float64

	Trend []TrendRow
}

// ProjectBundle builds the report data for one project. Projects without
// financial data still render, with every figure zero and HasData false.
func (b *Builder) ProjectBundle(ctx context.Context, projectID int64) (ProjectBundle, error) {
	project, err := b.projects.Get(ctx, projectID)
	if err != nil {
		return ProjectBundle{}, err
	}

	f := project.Financials
	bundle := ProjectBundle{
		ProjectID:  project.ID,
		Name:       project.Name,
		ClientName: project.ClientName,
		Manager:    project.Manager,
		Currency:   project.Currency,
		HasData:    project.Status != projectfin.StatusNoDimension,

		InvoicedNet:    formatAmount(f.CustomerInvoicedNet, project.Currency),
		PaidNet:        formatAmount(f.CustomerPaidNet, project.Currency),
		OutstandingNet: formatAmount(f.CustomerOutstandingNet, project.Currency),
		VendorBills:    formatAmount(f.VendorBillsTotalNet, project.Currency),
		LaborCosts:     formatAmount(f.LaborCosts, project.Currency),
		OtherCosts:     formatAmount(f.OtherCostsNet, project.Currency),
		TotalCosts:     formatAmount(f.TotalAllCostsNet, project.Currency),
		ProfitLoss:     formatAmount(f.ProfitLossNet, project.Currency),
		CalculatedPL:   formatAmount(f.CurrentCalculatedPL, project.Currency),
		HoursBooked:    fmt.Sprintf("%.1f h", f.HoursBooked),
	}

	budget := f.SaleOrderAmountNet
	bundle.Budget = formatAmount(budget, project.Currency)
	bundle.BudgetVariance = formatAmount(budget-f.TotalAllCostsNet, project.Currency)

	if f.CustomerInvoicedNet != 0 {
		bundle.ProfitMarginPct = round1(f.ProfitLossNet / f.CustomerInvoicedNet * 100)
	}
	// Breakdown over the adjusted cost base, with labor at the standard
	// rate rather than the booked timesheet cost.
	if base := f.VendorBillsTotalNet + f.LaborCostsAdjusted + f.OtherCostsNet; base > 0 {
		bundle.VendorCostPct = round1(f.VendorBillsTotalNet / base * 100)
		bundle.LaborCostPct = round1(f.LaborCostsAdjusted / base * 100)
		bundle.OtherCostPct = round1(f.OtherCostsNet / base * 100)
	}

	snaps, err := b.snapshots.ListByProject(ctx, project.ID, trendRows)
	if err != nil {
		return ProjectBundle{}, err
	}
	for _, snap := range snaps {
		bundle.Trend = append(bundle.Trend, TrendRow{
			Period:  snap.PeriodLabel(),
			Revenue: formatAmount(snap.CustomerInvoicedNet, project.Currency),
			Costs:   formatAmount(snap.TotalAllCostsNet, project.Currency),
			Profit:  formatAmount(snap.ProfitLossNet, project.Currency),
		})
	}
	return bundle, nil
}

// PortfolioRow is one project line of the portfolio summary.
type PortfolioRow struct {
	Name      string
	Revenue   string
	Costs     string
	Profit    string
	MarginPct float64
	HasData   bool
}

// PortfolioSummary aggregates the whole portfolio for the summary report.
type PortfolioSummary struct {
	ProjectCount int
	Revenue      string
	Costs        string
	Profit       string
	Rows         []PortfolioRow
}

// PortfolioSummary builds the portfolio-wide report data.
func (b *Builder) PortfolioSummary(ctx context.Context) (PortfolioSummary, error) {
	projects, err := b.projects.ListAll(ctx)
	if err != nil {
		return PortfolioSummary{}, err
	}

	summary := PortfolioSummary{ProjectCount: len(projects)}
	var revenue, costs, profit float64
	for _, project := range projects {
		f := project.Financials
		row := PortfolioRow{
			Name:    project.Name,
			Revenue: formatAmount(f.CustomerInvoicedNet, project.Currency),
			Costs:   formatAmount(f.TotalAllCostsNet, project.Currency),
			Profit:  formatAmount(f.ProfitLossNet, project.Currency),
			HasData: project.Status != projectfin.StatusNoDimension,
		}
		if f.CustomerInvoicedNet != 0 {
			row.MarginPct = round1(f.ProfitLossNet / f.CustomerInvoicedNet * 100)
		}
		summary.Rows = append(summary.Rows, row)

		revenue += f.CustomerInvoicedNet
		costs += f.TotalAllCostsNet
		profit += f.ProfitLossNet
	}
	summary.Revenue = formatAmount(revenue, "EUR")
	summary.Costs = formatAmount(costs, "EUR")
	summary.Profit = formatAmount(profit, "EUR")
	return summary, nil
}

// formatAmount renders a monetary value with thousands separators and the
// currency code, e.g. "12,345.60 EUR".
func formatAmount(value float64, currency string) string {
	if currency == "" {
		currency = "EUR"
	}
	negative := value < 0
	cents := int64(math.Round(math.Abs(value) * 100))
	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%02d %s", sign, strings.Join(groups, ","), frac, currency)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
