// Package projectfin derives per-project financial aggregates from the
// ledger: NET/GROSS revenue, vendor costs, cash discounts, labor and
// other internal costs, and two profit/loss figures. Aggregates are
// read-only; the package never mutates accounting data.
package projectfin

import (
	"errors"
	"time"
)

// DimensionPlanProjects is the analytic plan a project dimension must
// belong to. Dimensions on other plans are ignored for aggregation.
const DimensionPlanProjects = "projects"

// DataStatus indicates whether financial data could be derived.
type DataStatus string

const (
	// StatusAvailable means aggregates were computed from ledger data.
	StatusAvailable DataStatus = "available"
	// StatusNoDimension means the project has no usable accounting
	// dimension; all aggregates are zero and must not be read as "broke
	// even".
	StatusNoDimension DataStatus = "no_dimension"
)

// ErrNoDimension is returned by actions that require a dimension link.
var ErrNoDimension = errors.New("projectfin: project has no accounting dimension")

// ErrProjectNotFound is returned when a project id cannot be resolved.
var ErrProjectNotFound = errors.New("projectfin: project not found")

// Project is the aggregation subject. The financial fields are derived
// and overwritten on every pass; ManualOrderAmountNet is the only
// user-editable financial input.
type Project struct {
	ID         int64
	Name       string
	ClientName string
	Manager    string
	Currency   string
	CompanyID  int64
	Active     bool

	// DimensionID links the project to its analytic dimension;
	// DimensionPlan must be DimensionPlanProjects for the link to count.
	DimensionID   *int64
	DimensionPlan string

	StartDate time.Time
	EndDate   *time.Time
	CreatedAt time.Time

	// ManualOrderAmountNet is the fallback budget when no sales orders
	// are linked.
	ManualOrderAmountNet float64

	Status     DataStatus
	Financials Financials
}

// Dimension returns the usable dimension id, or 0 and false when the
// project has no dimension or the dimension sits on a foreign plan.
func (p Project) Dimension() (int64, bool) {
	if p.DimensionID == nil {
		return 0, false
	}
	if p.DimensionPlan != "" && p.DimensionPlan != DimensionPlanProjects {
		return 0, false
	}
	return *p.DimensionID, true
}

// EffectiveStart is the burn-rate baseline: the configured start date,
// falling back to the record creation date.
func (p Project) EffectiveStart() time.Time {
	if !p.StartDate.IsZero() {
		return p.StartDate
	}
	return p.CreatedAt
}

// Financials is the full derived aggregate set stored on a project.
type Financials struct {
	// Sales order baseline.
	SaleOrderAmountNet float64
	SaleOrderTaxNames  string
	HasSalesOrders     bool

	// Customer side, NET.
	CustomerInvoicedNet    float64
	CustomerPaidNet        float64
	CustomerOutstandingNet float64
	CustomerInvoicesNet    float64
	CustomerCreditNotesNet float64

	// Customer side, GROSS.
	CustomerInvoicedGross    float64
	CustomerPaidGross        float64
	CustomerOutstandingGross float64

	// Vendor side.
	VendorBillsTotalNet   float64
	VendorBillsTotalGross float64
	VendorBillsNet        float64
	VendorCreditNotesNet  float64
	AdjustedVendorBills   float64

	// Cash discounts, tracked apart from revenue/costs.
	CustomerSkonto float64
	VendorSkonto   float64

	// Labor.
	HoursBooked         float64
	LaborCosts          float64
	HoursBookedAdjusted float64
	LaborCostsAdjusted  float64

	// Remaining internal costs and totals.
	OtherCostsNet    float64
	TotalCostsNet    float64
	TotalAllCostsNet float64

	// Profitability. ProfitLossNet is the strict NET-to-NET comparison
	// including discounts; CurrentCalculatedPL substitutes the
	// surcharge/rate-adjusted cost estimates. They diverge whenever the
	// surcharge factor is not 1 or the standard rate differs from actual
	// timesheet cost.
	ProfitLossNet         float64
	NegativeDifferenceNet float64
	CurrentCalculatedPL   float64
}
