package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// Granularity buckets sales summaries.
type Granularity string

const (
	// ByDay buckets per calendar day.
	ByDay Granularity = "day"
	// ByMonth buckets per calendar month.
	ByMonth Granularity = "month"
)

// SalesSummaryFilter bounds a sales summary query.
type SalesSummaryFilter struct {
	From        time.Time
	To          time.Time
	Granularity Granularity
	WarehouseID int64
}

// SalesSummaryRow is one bucket of completed sales. GrossProfit is revenue
// minus the purchase cost of the vehicles sold, before commission.
type SalesSummaryRow struct {
	Period      string          `json:"period"`
	Units       int64           `json:"units"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	Commission  decimal.Decimal `json:"commission"`
}

// ValuationRow values the in-stock inventory of one warehouse.
type ValuationRow struct {
	WarehouseID    int64           `json:"warehouse_id"`
	WarehouseName  string          `json:"warehouse_name"`
	OwnerAgentID   *int64          `json:"owner_agent_id,omitempty"`
	Units          int64           `json:"units"`
	PurchaseValue  decimal.Decimal `json:"purchase_value"`
	ConsignedValue decimal.Decimal `json:"consigned_value"`
}

// AgentBalanceRow is one agent's running balance.
type AgentBalanceRow struct {
	AgentID  int64           `json:"agent_id"`
	Name     string          `json:"name"`
	IsActive bool            `json:"is_active"`
	Balance  decimal.Decimal `json:"balance"`
}

// AgentBalancesReport lists balances with the outstanding total.
type AgentBalancesReport struct {
	Agents       []AgentBalanceRow `json:"agents"`
	TotalBalance decimal.Decimal   `json:"total_balance"`
}
