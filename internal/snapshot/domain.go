// Package snapshot persists point-in-time copies of project financial
// aggregates and derives period deltas, burn rate, and a completion-cost
// projection from them.
package snapshot

import (
	"fmt"
	"time"
)

// Type tags how a snapshot came to be.
type Type string

const (
	TypeMonthly   Type = "monthly"
	TypeQuarterly Type = "quarterly"
	TypeManual    Type = "manual"
)

// Valid reports whether the type is one of the known tags.
func (t Type) Valid() bool {
	switch t {
	case TypeMonthly, TypeQuarterly, TypeManual:
		return true
	}
	return false
}

// Snapshot is an immutable copy of a project's aggregates at one date.
// Delta fields compare against the latest prior snapshot of the same
// project; without one they carry the absolute values.
type Snapshot struct {
	ID        int64
	ProjectID int64
	Type      Type
	Date      time.Time

	// Copied aggregates.
	SaleOrderAmountNet     float64
	CustomerInvoicedNet    float64
	CustomerPaidNet        float64
	CustomerOutstandingNet float64
	VendorBillsTotalNet    float64
	AdjustedVendorBills    float64
	CustomerSkonto         float64
	VendorSkonto           float64
	HoursBooked            float64
	HoursBookedAdjusted    float64
	LaborCosts             float64
	LaborCostsAdjusted     float64
	OtherCostsNet          float64
	TotalCostsNet          float64
	TotalAllCostsNet       float64
	ProfitLossNet          float64
	CurrentCalculatedPL    float64

	// Period-over-period movement.
	RevenueDelta float64
	CostsDelta   float64
	ProfitDelta  float64
	HoursDelta   float64

	// Projection figures.
	MonthlyBurnRate         float64
	EstimatedCompletionCost float64

	CreatedAt time.Time
}

// PeriodLabel renders the human-readable period for the snapshot date.
func (s Snapshot) PeriodLabel() string {
	switch s.Type {
	case TypeQuarterly:
		quarter := (int(s.Date.Month())-1)/3 + 1
		return fmt.Sprintf("Q%d %d", quarter, s.Date.Year())
	case TypeMonthly:
		return s.Date.Format("Jan 2006")
	default:
		return s.Date.Format("2006-01-02")
	}
}

// CumulativeAdjustedCost is the burn-rate cost base: the surcharged
// vendor bills plus rate-adjusted labor plus other internal costs.
func (s Snapshot) CumulativeAdjustedCost() float64 {
	return s.AdjustedVendorBills + s.LaborCostsAdjusted + s.OtherCostsNet
}
