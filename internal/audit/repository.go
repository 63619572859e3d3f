package audit

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the audit trail.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Event, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the audit repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Event, int, error) {
	query := `SELECT id, actor_id, action, entity, entity_id, meta, occurred_at FROM audit_logs WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE 1=1`
	args := []any{}

	addCond := func(cond string, value any) {
		args = append(args, value)
		clause := cond + "$" + strconv.Itoa(len(args))
		query += clause
		countQuery += clause
	}

	if filter.ActorID > 0 {
		addCond(` AND actor_id = `, filter.ActorID)
	}
	if filter.Entity != "" {
		addCond(` AND entity = `, filter.Entity)
	}
	if filter.EntityID != "" {
		addCond(` AND entity_id = `, filter.EntityID)
	}
	if !filter.From.IsZero() {
		addCond(` AND occurred_at >= `, filter.From)
	}
	if !filter.To.IsZero() {
		addCond(` AND occurred_at < `, filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		offset := (filter.Page - 1) * filter.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &e.Meta, &e.OccurredAt); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}
