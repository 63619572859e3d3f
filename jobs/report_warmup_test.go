package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mototrade-erp/mototrade/internal/reports"
)

func TestSalesWarmupFilterMatchesDashboardWindow(t *testing.T) {
	now := time.Date(2026, 8, 23, 15, 42, 7, 999, time.UTC)

	filter := salesWarmupFilter(now)
	require.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), filter.From)
	require.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), filter.To)
	require.Equal(t, reports.ByDay, filter.Granularity)

	// A dashboard request for from=2026-08-01&to=2026-08-23 parses to the
	// same bounds, so the warmed cache entry is the one it reads.
	from, err := time.Parse("2006-01-02", "2026-08-01")
	require.NoError(t, err)
	to, err := time.Parse("2006-01-02", "2026-08-23")
	require.NoError(t, err)
	require.Equal(t, from, filter.From)
	require.Equal(t, to.AddDate(0, 0, 1), filter.To)
}
