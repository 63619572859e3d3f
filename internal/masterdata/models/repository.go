package models

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

// ErrDuplicateModel indicates a unique violation on (brand, name, year).
var ErrDuplicateModel = errors.New("models: brand/name/year already registered")

// Repository persists the vehicle model catalog.
type Repository interface {
	List(ctx context.Context, filters mdshared.ListFilters) ([]VehicleModel, int, error)
	Get(ctx context.Context, id int64) (VehicleModel, error)
	Create(ctx context.Context, m VehicleModel) (VehicleModel, error)
	Update(ctx context.Context, id int64, m VehicleModel) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const modelColumns = `id, brand, name, year, capacity_cc, list_price, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters mdshared.ListFilters) ([]VehicleModel, int, error) {
	query := `SELECT ` + modelColumns + ` FROM vehicle_models WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM vehicle_models WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND (brand ILIKE $` + strconv.Itoa(len(args)) + ` OR name ILIKE $` + strconv.Itoa(len(args)) + `)`
		query += cond
		countQuery += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY brand, name, year DESC`
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

	var out []VehicleModel
	for rows.Next() {
		var m VehicleModel
		if err := rows.Scan(&m.ID, &m.Brand, &m.Name, &m.Year, &m.CapacityCC, &m.ListPrice, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (VehicleModel, error) {
	var m VehicleModel
	err := r.pool.QueryRow(ctx, `SELECT `+modelColumns+` FROM vehicle_models WHERE id = $1`, id).
		Scan(&m.ID, &m.Brand, &m.Name, &m.Year, &m.CapacityCC, &m.ListPrice, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VehicleModel{}, shared.ErrNotFound
		}
		return VehicleModel{}, err
	}
	return m, nil
}

func (r *repository) Create(ctx context.Context, m VehicleModel) (VehicleModel, error) {
	now := time.Now().UTC()
	var out VehicleModel
	err := r.pool.QueryRow(ctx, `
		INSERT INTO vehicle_models (brand, name, year, capacity_cc, list_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+modelColumns,
		m.Brand, m.Name, m.Year, m.CapacityCC, m.ListPrice, now).
		Scan(&out.ID, &out.Brand, &out.Name, &out.Year, &out.CapacityCC, &out.ListPrice, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return VehicleModel{}, ErrDuplicateModel
		}
		return VehicleModel{}, err
	}
	return out, nil
}

func (r *repository) Update(ctx context.Context, id int64, m VehicleModel) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE vehicle_models
		SET brand = $2, name = $3, year = $4, capacity_cc = $5, list_price = $6, updated_at = NOW()
		WHERE id = $1`,
		id, m.Brand, m.Name, m.Year, m.CapacityCC, m.ListPrice)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateModel
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicle_models WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
