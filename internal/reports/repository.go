package reports

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the report aggregations.
type Repository interface {
	SalesSummary(ctx context.Context, filter SalesSummaryFilter) ([]SalesSummaryRow, error)
	InventoryValuation(ctx context.Context) ([]ValuationRow, error)
	AgentBalances(ctx context.Context) (AgentBalancesReport, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the reports repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) SalesSummary(ctx context.Context, filter SalesSummaryFilter) ([]SalesSummaryRow, error) {
	bucket := `to_char(date_trunc('day', s.sold_at), 'YYYY-MM-DD')`
	if filter.Granularity == ByMonth {
		bucket = `to_char(date_trunc('month', s.sold_at), 'YYYY-MM')`
	}

	query := `
		SELECT ` + bucket + ` AS period,
			COUNT(*) AS units,
			COALESCE(SUM(s.price), 0) AS revenue,
			COALESCE(SUM(v.purchase_cost), 0) AS cost,
			COALESCE(SUM(s.price - v.purchase_cost), 0) AS gross_profit,
			COALESCE(SUM(s.commission), 0) AS commission
		FROM sales s
		JOIN vehicles v ON v.id = s.vehicle_id
		WHERE s.status = 'COMPLETED'`
	args := []any{}

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += ` AND s.sold_at >= $` + strconv.Itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += ` AND s.sold_at < $` + strconv.Itoa(len(args))
	}
	if filter.WarehouseID > 0 {
		args = append(args, filter.WarehouseID)
		query += ` AND v.warehouse_id = $` + strconv.Itoa(len(args))
	}
	query += ` GROUP BY period ORDER BY period`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalesSummaryRow
	for rows.Next() {
		var row SalesSummaryRow
		if err := rows.Scan(&row.Period, &row.Units, &row.Revenue, &row.Cost, &row.GrossProfit, &row.Commission); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repository) InventoryValuation(ctx context.Context) ([]ValuationRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.name, w.owner_agent_id,
			COUNT(v.id) AS units,
			COALESCE(SUM(v.purchase_cost), 0) AS purchase_value,
			COALESCE(SUM(v.consignment_value), 0) AS consigned_value
		FROM warehouses w
		LEFT JOIN vehicles v ON v.warehouse_id = w.id AND v.status = 'IN_STOCK'
		GROUP BY w.id, w.name, w.owner_agent_id
		ORDER BY w.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ValuationRow
	for rows.Next() {
		var row ValuationRow
		if err := rows.Scan(&row.WarehouseID, &row.WarehouseName, &row.OwnerAgentID,
			&row.Units, &row.PurchaseValue, &row.ConsignedValue); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repository) AgentBalances(ctx context.Context) (AgentBalancesReport, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, is_active, balance
		FROM agents
		ORDER BY balance DESC, name`)
	if err != nil {
		return AgentBalancesReport{}, err
	}
	defer rows.Close()

	var report AgentBalancesReport
	for rows.Next() {
		var row AgentBalanceRow
		if err := rows.Scan(&row.AgentID, &row.Name, &row.IsActive, &row.Balance); err != nil {
			return AgentBalancesReport{}, err
		}
		report.Agents = append(report.Agents, row)
		report.TotalBalance = report.TotalBalance.Add(row.Balance)
	}
	return report, rows.Err()
}
