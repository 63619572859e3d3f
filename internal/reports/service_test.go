package reports

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	salesCalls     int
	valuationCalls int
	balanceCalls   int
}

func (f *fakeRepo) SalesSummary(context.Context, SalesSummaryFilter) ([]SalesSummaryRow, error) {
	f.salesCalls++
	return []SalesSummaryRow{
		{Period: "2026-08-01", Units: 2, Revenue: decimal.NewFromInt(5200), Cost: decimal.NewFromInt(4000), GrossProfit: decimal.NewFromInt(1200), Commission: decimal.NewFromInt(260)},
		{Period: "2026-08-02", Units: 1, Revenue: decimal.NewFromInt(2600), Cost: decimal.NewFromInt(2000), GrossProfit: decimal.NewFromInt(600), Commission: decimal.NewFromInt(130)},
	}, nil
}

func (f *fakeRepo) InventoryValuation(context.Context) ([]ValuationRow, error) {
	f.valuationCalls++
	owner := int64(9)
	return []ValuationRow{
		{WarehouseID: 1, WarehouseName: "Main", Units: 10, PurchaseValue: decimal.NewFromInt(20000)},
		{WarehouseID: 2, WarehouseName: "Agent North", OwnerAgentID: &owner, Units: 3, PurchaseValue: decimal.NewFromInt(6000), ConsignedValue: decimal.NewFromInt(7050)},
	}, nil
}

func (f *fakeRepo) AgentBalances(context.Context) (AgentBalancesReport, error) {
	f.balanceCalls++
	return AgentBalancesReport{
		Agents: []AgentBalanceRow{
			{AgentID: 9, Name: "North", IsActive: true, Balance: decimal.NewFromInt(7050)},
			{AgentID: 10, Name: "South", IsActive: false, Balance: decimal.NewFromInt(-130)},
		},
		TotalBalance: decimal.NewFromInt(6920),
	}, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &fakeRepo{}
	return NewService(repo, NewCache(client, time.Minute)), repo
}

func TestSalesSummaryIsCached(t *testing.T) {
	svc, repo := newTestService(t)
	filter := SalesSummaryFilter{Granularity: ByDay}

	first, err := svc.SalesSummary(context.Background(), filter)
	require.NoError(t, err)
	second, err := svc.SalesSummary(context.Background(), filter)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, repo.salesCalls)

	var rows []SalesSummaryRow
	require.NoError(t, json.Unmarshal(first, &rows))
	require.Len(t, rows, 2)
	require.True(t, rows[0].Revenue.Equal(decimal.NewFromInt(5200)))
}

func TestDifferentFiltersUseSeparateCacheKeys(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.SalesSummary(context.Background(), SalesSummaryFilter{Granularity: ByDay})
	require.NoError(t, err)
	_, err = svc.SalesSummary(context.Background(), SalesSummaryFilter{Granularity: ByMonth})
	require.NoError(t, err)
	require.Equal(t, 2, repo.salesCalls)
}

func TestAgentBalancesCSVIncludesTotal(t *testing.T) {
	svc, _ := newTestService(t)

	data, err := svc.AgentBalancesCSV(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "agent_id,name,is_active,balance", lines[0])
	require.Contains(t, lines[1], "7050.00")
	require.Contains(t, lines[3], "TOTAL")
	require.Contains(t, lines[3], "6920.00")
}

func TestInventoryValuationCSV(t *testing.T) {
	svc, _ := newTestService(t)

	data, err := svc.InventoryValuationCSV(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[2], "Agent North")
	require.Contains(t, lines[2], "7050.00")
}

func TestInvalidateAllForcesRecompute(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.InventoryValuation(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateAll(context.Background()))
	_, err = svc.InventoryValuation(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, repo.valuationCalls)
}

func TestCacheDisabledStillComputes(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, NewCache(nil, 0))

	_, err := svc.AgentBalances(context.Background())
	require.NoError(t, err)
	_, err = svc.AgentBalances(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, repo.balanceCalls)
}
