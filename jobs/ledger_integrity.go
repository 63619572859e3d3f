package jobs

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mototrade-erp/mototrade/internal/agents"
	"github.com/mototrade-erp/mototrade/internal/platform/db"
)

// RunLedgerIntegrityScan recomputes every agent's balance from the ledger
// and logs any drift against the denormalized column. The scan reports;
// repairs go through manual adjustments so the trail stays append-only.
func RunLedgerIntegrityScan(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	var drift int
	err := db.WithSerializableTx(ctx, pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id FROM agents ORDER BY id`)
		if err != nil {
			return err
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range ids {
			stored, computed, err := agents.RecomputeBalanceTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if !stored.Equal(computed) {
				drift++
				logger.Error("agent balance drift",
					slog.Int64("agent_id", id),
					slog.String("stored", stored.String()),
					slog.String("computed", computed.String()))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("ledger integrity scan finished", slog.Int("drift", drift))
	return nil
}
