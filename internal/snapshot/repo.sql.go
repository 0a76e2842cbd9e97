package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository persists snapshots in Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a Postgres-backed snapshot repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const snapshotColumns = `
id, project_id, snapshot_type, snapshot_date,
sale_order_amount_net,
customer_invoiced_net, customer_paid_net, customer_outstanding_net,
vendor_bills_total_net, adjusted_vendor_bills,
customer_skonto, vendor_skonto,
hours_booked, hours_booked_adjusted, labor_costs, labor_costs_adjusted,
other_costs_net, total_costs_net, total_all_costs_net,
profit_loss_net, current_calculated_pl,
revenue_delta, costs_delta, profit_delta, hours_delta,
monthly_burn_rate, estimated_completion_cost,
created_at`

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var s Snapshot
	var snapType string
	if err := row.Scan(
		&s.ID, &s.ProjectID, &snapType, &s.Date,
		&s.SaleOrderAmountNet,
		&s.CustomerInvoicedNet, &s.CustomerPaidNet, &s.CustomerOutstandingNet,
		&s.VendorBillsTotalNet, &s.AdjustedVendorBills,
		&s.CustomerSkonto, &s.VendorSkonto,
		&s.HoursBooked, &s.HoursBookedAdjusted, &s.LaborCosts, &s.LaborCostsAdjusted,
		&s.OtherCostsNet, &s.TotalCostsNet, &s.TotalAllCostsNet,
		&s.ProfitLossNet, &s.CurrentCalculatedPL,
		&s.RevenueDelta, &s.CostsDelta, &s.ProfitDelta, &s.HoursDelta,
		&s.MonthlyBurnRate, &s.EstimatedCompletionCost,
		&s.CreatedAt,
	); err != nil {
		return Snapshot{}, err
	}
	s.Type = Type(snapType)
	return s, nil
}

// Insert stores a new snapshot and returns it with id and created_at set.
func (r *PGRepository) Insert(ctx context.Context, s Snapshot) (Snapshot, error) {
	const query = `
INSERT INTO project_snapshots (
  project_id, snapshot_type, snapshot_date,
  sale_order_amount_net,
  customer_invoiced_net, customer_paid_net, customer_outstanding_net,
  vendor_bills_total_net, adjusted_vendor_bills,
  customer_skonto, vendor_skonto,
  hours_booked, hours_booked_adjusted, labor_costs, labor_costs_adjusted,
  other_costs_net, total_costs_net, total_all_costs_net,
  profit_loss_net, current_calculated_pl,
  revenue_delta, costs_delta, profit_delta, hours_delta,
  monthly_burn_rate, estimated_completion_cost
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
  $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
)
RETURNING id, created_at`

	row := r.pool.QueryRow(ctx, query,
		s.ProjectID, string(s.Type), s.Date,
		s.SaleOrderAmountNet,
		s.CustomerInvoicedNet, s.CustomerPaidNet, s.CustomerOutstandingNet,
		s.VendorBillsTotalNet, s.AdjustedVendorBills,
		s.CustomerSkonto, s.VendorSkonto,
		s.HoursBooked, s.HoursBookedAdjusted, s.LaborCosts, s.LaborCostsAdjusted,
		s.OtherCostsNet, s.TotalCostsNet, s.TotalAllCostsNet,
		s.ProfitLossNet, s.CurrentCalculatedPL,
		s.RevenueDelta, s.CostsDelta, s.ProfitDelta, s.HoursDelta,
		s.MonthlyBurnRate, s.EstimatedCompletionCost,
	)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// LatestBefore returns the most recent snapshot of the project dated
// strictly before date, or nil when none exists.
func (r *PGRepository) LatestBefore(ctx context.Context, projectID int64, date time.Time) (*Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
FROM project_snapshots
WHERE project_id = $1 AND snapshot_date < $2
ORDER BY snapshot_date DESC, id DESC
LIMIT 1`

	snap, err := scanSnapshot(r.pool.QueryRow(ctx, query, projectID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

// ListByProject returns the newest snapshots of one project.
func (r *PGRepository) ListByProject(ctx context.Context, projectID int64, limit int) ([]Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
FROM project_snapshots
WHERE project_id = $1
ORDER BY snapshot_date DESC, id DESC
LIMIT $2`
	return r.querySnapshots(ctx, query, projectID, limit)
}

// ListByType returns the newest snapshots of one type across projects.
func (r *PGRepository) ListByType(ctx context.Context, t Type, limit int) ([]Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
FROM project_snapshots
WHERE snapshot_type = $1
ORDER BY snapshot_date DESC, id DESC
LIMIT $2`
	return r.querySnapshots(ctx, query, string(t), limit)
}

func (r *PGRepository) querySnapshots(ctx context.Context, query string, args ...any) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
