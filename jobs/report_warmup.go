package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/mototrade-erp/mototrade/internal/reports"
)

// RunReportWarmup drops the cached reports and recomputes the standing ones
// so the first dashboard hit of the day is served warm.
func RunReportWarmup(ctx context.Context, svc *reports.Service, logger *slog.Logger) error {
	if err := svc.InvalidateAll(ctx); err != nil {
		logger.Warn("report cache invalidation failed", slog.Any("error", err))
	}

	if _, err := svc.InventoryValuation(ctx); err != nil {
		return err
	}
	if _, err := svc.AgentBalances(ctx); err != nil {
		return err
	}

	if _, err := svc.SalesSummary(ctx, salesWarmupFilter(time.Now().UTC())); err != nil {
		return err
	}

	logger.Info("report warmup finished")
	return nil
}

// salesWarmupFilter builds the month-to-date window with day-truncated
// bounds, the same cache entry a dashboard request for the current month
// resolves to.
func salesWarmupFilter(now time.Time) reports.SalesSummaryFilter {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return reports.SalesSummaryFilter{
		From:        time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		To:          day.AddDate(0, 0, 1),
		Granularity: reports.ByDay,
	}
}
