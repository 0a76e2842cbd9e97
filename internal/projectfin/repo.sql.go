package projectfin

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository persists projects and their derived aggregates.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a Postgres-backed project repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const projectColumns = `
p.id, p.name, COALESCE(p.client_name, ''), COALESCE(p.manager, ''),
p.currency, p.company_id, p.active,
p.dimension_id, COALESCE(dim.plan, ''),
p.start_date, p.end_date, p.created_at,
COALESCE(p.manual_order_amount_net, 0), COALESCE(p.data_status, 'available'),
p.sale_order_amount_net, COALESCE(p.sale_order_tax_names, ''), p.has_sales_orders,
p.customer_invoiced_net, p.customer_paid_net, p.customer_outstanding_net,
p.customer_invoices_net, p.customer_credit_notes_net,
p.customer_invoiced_gross, p.customer_paid_gross, p.customer_outstanding_gross,
p.vendor_bills_total_net, p.vendor_bills_total_gross,
p.vendor_bills_net, p.vendor_credit_notes_net, p.adjusted_vendor_bills,
p.customer_skonto, p.vendor_skonto,
p.hours_booked, p.labor_costs, p.hours_booked_adjusted, p.labor_costs_adjusted,
p.other_costs_net, p.total_costs_net, p.total_all_costs_net,
p.profit_loss_net, p.negative_difference_net, p.current_calculated_pl`

const projectFrom = `
FROM projects p
LEFT JOIN analytic_dimensions dim ON dim.id = p.dimension_id`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	var status string
	var startDate *time.Time
	if err := row.Scan(
		&p.ID, &p.Name, &p.ClientName, &p.Manager,
		&p.Currency, &p.CompanyID, &p.Active,
		&p.DimensionID, &p.DimensionPlan,
		&startDate, &p.EndDate, &p.CreatedAt,
		&p.ManualOrderAmountNet, &status,
		&p.Financials.SaleOrderAmountNet, &p.Financials.SaleOrderTaxNames, &p.Financials.HasSalesOrders,
		&p.Financials.CustomerInvoicedNet, &p.Financials.CustomerPaidNet, &p.Financials.CustomerOutstandingNet,
		&p.Financials.CustomerInvoicesNet, &p.Financials.CustomerCreditNotesNet,
		&p.Financials.CustomerInvoicedGross, &p.Financials.CustomerPaidGross, &p.Financials.CustomerOutstandingGross,
		&p.Financials.VendorBillsTotalNet, &p.Financials.VendorBillsTotalGross,
		&p.Financials.VendorBillsNet, &p.Financials.VendorCreditNotesNet, &p.Financials.AdjustedVendorBills,
		&p.Financials.CustomerSkonto, &p.Financials.VendorSkonto,
		&p.Financials.HoursBooked, &p.Financials.LaborCosts,
		&p.Financials.HoursBookedAdjusted, &p.Financials.LaborCostsAdjusted,
		&p.Financials.OtherCostsNet, &p.Financials.TotalCostsNet, &p.Financials.TotalAllCostsNet,
		&p.Financials.ProfitLossNet, &p.Financials.NegativeDifferenceNet, &p.Financials.CurrentCalculatedPL,
	); err != nil {
		return Project{}, err
	}
	if startDate != nil {
		p.StartDate = *startDate
	}
	p.Status = DataStatus(status)
	return p, nil
}

// Get returns one project by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Project, error) {
	query := `SELECT ` + projectColumns + projectFrom + ` WHERE p.id = $1`
	project, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrProjectNotFound
		}
		return Project{}, err
	}
	return project, nil
}

// ListByDimensions returns the projects linked to the given dimensions,
// restricted to dimensions on the projects plan.
func (r *PGRepository) ListByDimensions(ctx context.Context, dimensionIDs []int64) ([]Project, error) {
	if len(dimensionIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + projectColumns + projectFrom + `
WHERE p.dimension_id = ANY($1) AND dim.plan = $2
ORDER BY p.id`
	return r.queryProjects(ctx, query, dimensionIDs, DimensionPlanProjects)
}

// ListActiveWithDimension returns every active project whose dimension
// sits on the projects plan.
func (r *PGRepository) ListActiveWithDimension(ctx context.Context) ([]Project, error) {
	query := `SELECT ` + projectColumns + projectFrom + `
WHERE p.active AND p.dimension_id IS NOT NULL AND dim.plan = $1
ORDER BY p.id`
	return r.queryProjects(ctx, query, DimensionPlanProjects)
}

// ListAll returns every project, active or not, for the dashboard and
// report surfaces.
func (r *PGRepository) ListAll(ctx context.Context) ([]Project, error) {
	query := `SELECT ` + projectColumns + projectFrom + ` ORDER BY p.id`
	return r.queryProjects(ctx, query)
}

func (r *PGRepository) queryProjects(ctx context.Context, query string, args ...any) ([]Project, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// SaveFinancials overwrites the derived aggregate columns of one project.
func (r *PGRepository) SaveFinancials(ctx context.Context, projectID int64, status DataStatus, f Financials) error {
	const query = `
UPDATE projects SET
  data_status = $2,
  sale_order_amount_net = $3, sale_order_tax_names = $4, has_sales_orders = $5,
  customer_invoiced_net = $6, customer_paid_net = $7, customer_outstanding_net = $8,
  customer_invoices_net = $9, customer_credit_notes_net = $10,
  customer_invoiced_gross = $11, customer_paid_gross = $12, customer_outstanding_gross = $13,
  vendor_bills_total_net = $14, vendor_bills_total_gross = $15,
  vendor_bills_net = $16, vendor_credit_notes_net = $17, adjusted_vendor_bills = $18,
  customer_skonto = $19, vendor_skonto = $20,
  hours_booked = $21, labor_costs = $22, hours_booked_adjusted = $23, labor_costs_adjusted = $24,
  other_costs_net = $25, total_costs_net = $26, total_all_costs_net = $27,
  profit_loss_net = $28, negative_difference_net = $29, current_calculated_pl = $30,
  financials_updated_at = now()
WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, projectID,
		string(status),
		f.SaleOrderAmountNet, f.SaleOrderTaxNames, f.HasSalesOrders,
		f.CustomerInvoicedNet, f.CustomerPaidNet, f.CustomerOutstandingNet,
		f.CustomerInvoicesNet, f.CustomerCreditNotesNet,
		f.CustomerInvoicedGross, f.CustomerPaidGross, f.CustomerOutstandingGross,
		f.VendorBillsTotalNet, f.VendorBillsTotalGross,
		f.VendorBillsNet, f.VendorCreditNotesNet, f.AdjustedVendorBills,
		f.CustomerSkonto, f.VendorSkonto,
		f.HoursBooked, f.LaborCosts, f.HoursBookedAdjusted, f.LaborCostsAdjusted,
		f.OtherCostsNet, f.TotalCostsNet, f.TotalAllCostsNet,
		f.ProfitLossNet, f.NegativeDifferenceNet, f.CurrentCalculatedPL,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}
