package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
)

// Service computes and caches the financial reports.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService builds the reports service.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// SalesSummary returns completed sales bucketed by period as JSON bytes.
func (s *Service) SalesSummary(ctx context.Context, filter SalesSummaryFilter) ([]byte, error) {
	if filter.Granularity != ByMonth {
		filter.Granularity = ByDay
	}
	key := fmt.Sprintf("reports:sales:%s:%d:%d:%d",
		filter.Granularity, filter.From.Unix(), filter.To.Unix(), filter.WarehouseID)
	return s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		rows, err := s.repo.SalesSummary(ctx, filter)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []SalesSummaryRow{}
		}
		return rows, nil
	})
}

// InventoryValuation returns per-warehouse stock values as JSON bytes.
func (s *Service) InventoryValuation(ctx context.Context) ([]byte, error) {
	return s.cache.GetOrCompute(ctx, "reports:valuation", func(ctx context.Context) (any, error) {
		rows, err := s.repo.InventoryValuation(ctx)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []ValuationRow{}
		}
		return rows, nil
	})
}

// AgentBalances returns every agent's running balance as JSON bytes.
func (s *Service) AgentBalances(ctx context.Context) ([]byte, error) {
	return s.cache.GetOrCompute(ctx, "reports:agent-balances", func(ctx context.Context) (any, error) {
		return s.repo.AgentBalances(ctx)
	})
}

// SalesSummaryCSV renders the sales summary as CSV.
func (s *Service) SalesSummaryCSV(ctx context.Context, filter SalesSummaryFilter) ([]byte, error) {
	data, err := s.SalesSummary(ctx, filter)
	if err != nil {
		return nil, err
	}
	var rows []SalesSummaryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}

	records := [][]string{{"period", "units", "revenue", "cost", "gross_profit", "commission"}}
	for _, row := range rows {
		records = append(records, []string{
			row.Period,
			strconv.FormatInt(row.Units, 10),
			row.Revenue.StringFixed(2),
			row.Cost.StringFixed(2),
			row.GrossProfit.StringFixed(2),
			row.Commission.StringFixed(2),
		})
	}
	return writeCSV(records)
}

// InventoryValuationCSV renders the valuation report as CSV.
func (s *Service) InventoryValuationCSV(ctx context.Context) ([]byte, error) {
	data, err := s.InventoryValuation(ctx)
	if err != nil {
		return nil, err
	}
	var rows []ValuationRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}

	records := [][]string{{"warehouse_id", "warehouse_name", "owner_agent_id", "units", "purchase_value", "consigned_value"}}
	for _, row := range rows {
		owner := ""
		if row.OwnerAgentID != nil {
			owner = strconv.FormatInt(*row.OwnerAgentID, 10)
		}
		records = append(records, []string{
			strconv.FormatInt(row.WarehouseID, 10),
			row.WarehouseName,
			owner,
			strconv.FormatInt(row.Units, 10),
			row.PurchaseValue.StringFixed(2),
			row.ConsignedValue.StringFixed(2),
		})
	}
	return writeCSV(records)
}

// AgentBalancesCSV renders the agent balances report as CSV.
func (s *Service) AgentBalancesCSV(ctx context.Context) ([]byte, error) {
	data, err := s.AgentBalances(ctx)
	if err != nil {
		return nil, err
	}
	var report AgentBalancesReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	records := [][]string{{"agent_id", "name", "is_active", "balance"}}
	for _, row := range report.Agents {
		records = append(records, []string{
			strconv.FormatInt(row.AgentID, 10),
			row.Name,
			strconv.FormatBool(row.IsActive),
			row.Balance.StringFixed(2),
		})
	}
	records = append(records, []string{"", "TOTAL", "", report.TotalBalance.StringFixed(2)})
	return writeCSV(records)
}

// InvalidateAll drops every cached report. Called by the warmup job before
// recomputing.
func (s *Service) InvalidateAll(ctx context.Context) error {
	return s.cache.InvalidatePrefix(ctx, "reports:")
}

func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
