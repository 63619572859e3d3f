package customers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mototrade-erp/mototrade/internal/shared"
)

// Repository persists customers.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Create(ctx context.Context, input Input) (Customer, error)
	Update(ctx context.Context, id int64, input Input) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the customers repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `id, name, COALESCE(national_id, ''), phone, address, notes, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.NationalID, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, shared.ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Customer, int, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM customers WHERE 1=1`
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		cond := ` AND (name ILIKE $` + n + ` OR national_id ILIKE $` + n + ` OR phone ILIKE $` + n + `)`
		query += cond
		countQuery += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name`
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

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, input Input) (Customer, error) {
	now := time.Now().UTC()
	c, err := scanCustomer(r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, national_id, phone, address, notes, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $6)
		RETURNING `+customerColumns,
		input.Name, input.NationalID, input.Phone, input.Address, input.Notes, now))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Customer{}, ErrDuplicateNationalID
		}
		return Customer{}, err
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, id int64, input Input) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET name = $2, national_id = NULLIF($3, ''), phone = $4, address = $5, notes = $6, updated_at = NOW()
		WHERE id = $1`,
		id, input.Name, input.NationalID, input.Phone, input.Address, input.Notes)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateNationalID
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
