package ledger

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads ledger data from the host accounting schema.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a read-only ledger repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// PostedLinesWithDistribution returns every posted, non-section line of
// the given move types that carries an analytic distribution. Attribution
// to a concrete dimension happens in the aggregation layer.
func (r *Repository) PostedLinesWithDistribution(ctx context.Context, moveTypes []MoveType) ([]Line, error) {
	const query = `
SELECT l.id, l.document_id, d.ref, d.move_type, COALESCE(l.display_type, ''),
       l.amount_net, l.amount_gross, l.analytic_distribution,
       d.amount_total, d.amount_residual, d.reversed_document_id
FROM ledger_lines l
JOIN ledger_documents d ON d.id = l.document_id
WHERE d.state = 'posted'
  AND d.move_type = ANY($1)
  AND l.analytic_distribution IS NOT NULL
  AND COALESCE(l.display_type, '') NOT IN ('section', 'note')
ORDER BY l.id`

	types := make([]string, len(moveTypes))
	for i, mt := range moveTypes {
		types[i] = string(mt)
	}
	rows, err := r.pool.Query(ctx, query, types)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		var moveType string
		if err := rows.Scan(
			&line.ID, &line.DocumentID, &line.DocumentRef, &moveType, &line.DisplayType,
			&line.AmountNet, &line.AmountGross, &line.Distribution,
			&line.DocumentTotal, &line.DocumentResidual, &line.ReversedDocID,
		); err != nil {
			return nil, err
		}
		line.MoveType = MoveType(moveType)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// EntriesByDimension returns all internal analytic entries booked against
// the dimension, joined with the originating move line when one exists.
func (r *Repository) EntriesByDimension(ctx context.Context, dimensionID int64) ([]Entry, error) {
	const query = `
SELECT e.id, e.dimension_id, e.amount, e.unit_amount, e.is_timesheet, e.worker_id,
       COALESCE(a.code, ''), COALESCE(d.move_type, ''), e.move_line_id IS NOT NULL,
       d.reversed_document_id
FROM analytic_entries e
LEFT JOIN ledger_lines l ON l.id = e.move_line_id
LEFT JOIN accounts a ON a.id = l.account_id
LEFT JOIN ledger_documents d ON d.id = l.document_id
WHERE e.dimension_id = $1
ORDER BY e.id`

	rows, err := r.pool.Query(ctx, query, dimensionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var moveType string
		if err := rows.Scan(
			&entry.ID, &entry.DimensionID, &entry.Amount, &entry.UnitAmount,
			&entry.IsTimesheet, &entry.WorkerID, &entry.AccountCode, &moveType,
			&entry.HasMoveLine, &entry.ReversedDocID,
		); err != nil {
			return nil, err
		}
		entry.MoveType = MoveType(moveType)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// EfficiencyFactors resolves the per-worker efficiency adjustment factor.
// Workers without a configured factor fall back to 1.0.
func (r *Repository) EfficiencyFactors(ctx context.Context, workerIDs []int64) (map[int64]float64, error) {
	factors := make(map[int64]float64, len(workerIDs))
	if len(workerIDs) == 0 {
		return factors, nil
	}
	const query = `
SELECT id, COALESCE(NULLIF(efficiency_factor, 0), 1.0)
FROM workers
WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, workerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var factor float64
		if err := rows.Scan(&id, &factor); err != nil {
			return nil, err
		}
		factors[id] = factor
	}
	return factors, rows.Err()
}

// ConfirmedOrdersByProject returns confirmed or done sales orders linked
// to the project, with the distinct tax names used on their lines.
func (r *Repository) ConfirmedOrdersByProject(ctx context.Context, projectID int64) ([]SalesOrder, error) {
	const query = `
SELECT o.id, o.project_id, o.state, o.amount_net,
       COALESCE(array_agg(DISTINCT t.tax_name) FILTER (WHERE t.tax_name IS NOT NULL), '{}')
FROM sales_orders o
LEFT JOIN sales_order_taxes t ON t.order_id = o.id
WHERE o.project_id = $1 AND o.state = ANY($2)
GROUP BY o.id
ORDER BY o.id`

	rows, err := r.pool.Query(ctx, query, projectID, []string{OrderConfirmed, OrderDone})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []SalesOrder
	for rows.Next() {
		var order SalesOrder
		if err := rows.Scan(&order.ID, &order.ProjectID, &order.State, &order.AmountNet, &order.TaxNames); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
