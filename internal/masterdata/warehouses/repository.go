package warehouses

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	mdshared "github.com/mototrade-erp/mototrade/internal/masterdata/shared"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// ErrCodeTaken indicates a unique violation on warehouses.code.
var ErrCodeTaken = errors.New("warehouses: code already in use")

// ErrInUse indicates the warehouse still holds vehicles or history.
var ErrInUse = errors.New("warehouses: warehouse is referenced and cannot be deleted")

// Repository persists warehouses.
type Repository interface {
	List(ctx context.Context, filters mdshared.ListFilters) ([]Warehouse, int, error)
	Get(ctx context.Context, id int64) (Warehouse, error)
	Create(ctx context.Context, warehouse Warehouse) (Warehouse, error)
	Update(ctx context.Context, id int64, warehouse Warehouse) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the warehouse repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters mdshared.ListFilters) ([]Warehouse, int, error) {
	query := `SELECT id, code, name, address, owner_agent_id, created_at, updated_at FROM warehouses WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM warehouses WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR code ILIKE $` + strconv.Itoa(len(args)) + `)`
		query += cond
		countQuery += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		offset := (filters.Page - 1) * filters.Limit
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

	var out []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.OwnerAgentID, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, w)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Warehouse, error) {
	var w Warehouse
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, name, address, owner_agent_id, created_at, updated_at
		FROM warehouses WHERE id = $1`, id).
		Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.OwnerAgentID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Warehouse{}, shared.ErrNotFound
		}
		return Warehouse{}, err
	}
	return w, nil
}

func (r *repository) Create(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	now := time.Now().UTC()
	var w Warehouse
	err := r.pool.QueryRow(ctx, `
		INSERT INTO warehouses (code, name, address, owner_agent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, code, name, address, owner_agent_id, created_at, updated_at`,
		warehouse.Code, warehouse.Name, warehouse.Address, warehouse.OwnerAgentID, now).
		Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.OwnerAgentID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Warehouse{}, ErrCodeTaken
		}
		return Warehouse{}, err
	}
	return w, nil
}

func (r *repository) Update(ctx context.Context, id int64, warehouse Warehouse) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE warehouses SET code = $2, name = $3, address = $4, owner_agent_id = $5, updated_at = NOW()
		WHERE id = $1`,
		id, warehouse.Code, warehouse.Name, warehouse.Address, warehouse.OwnerAgentID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCodeTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "code " + dir
	case "name":
		return "name " + dir
	default:
		return "name " + dir
	}
}
