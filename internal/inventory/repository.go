package inventory

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mototrade-erp/mototrade/internal/shared"
)

// Repository persists vehicles.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Vehicle, int, error)
	Get(ctx context.Context, id int64) (Vehicle, error)
	GetByEngineNumber(ctx context.Context, engineNumber string) (Vehicle, error)
	GetByChassisNumber(ctx context.Context, chassisNumber string) (Vehicle, error)
	Create(ctx context.Context, v Vehicle) (Vehicle, error)
	UpdateDetails(ctx context.Context, id int64, input UpdateInput) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the vehicle repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const vehicleColumns = `id, model_id, engine_number, chassis_number, color, purchase_cost, consignment_value,
	supplier, warehouse_id, status, notes, sold_at, created_by, created_at, updated_at`

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.ModelID, &v.EngineNumber, &v.ChassisNumber, &v.Color, &v.PurchaseCost,
		&v.ConsignmentValue, &v.Supplier, &v.WarehouseID, &v.Status, &v.Notes, &v.SoldAt,
		&v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vehicle{}, shared.ErrNotFound
		}
		return Vehicle{}, err
	}
	return v, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Vehicle, int, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM vehicles WHERE 1=1`
	args := []any{}

	addCond := func(cond string, value any) {
		args = append(args, value)
		clause := strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args)))
		query += clause
		countQuery += clause
	}

	if filter.WarehouseID > 0 {
		addCond(` AND warehouse_id = ?`, filter.WarehouseID)
	}
	if filter.ModelID > 0 {
		addCond(` AND model_id = ?`, filter.ModelID)
	}
	if filter.Status != "" {
		addCond(` AND status = ?`, string(filter.Status))
	}
	if filter.Search != "" {
		addCond(` AND (engine_number ILIKE ? OR chassis_number ILIKE ?)`, "%"+filter.Search+"%")
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

	var out []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Vehicle, error) {
	return scanVehicle(r.pool.QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id))
}

func (r *repository) GetByEngineNumber(ctx context.Context, engineNumber string) (Vehicle, error) {
	return scanVehicle(r.pool.QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE engine_number = $1`, engineNumber))
}

func (r *repository) GetByChassisNumber(ctx context.Context, chassisNumber string) (Vehicle, error) {
	return scanVehicle(r.pool.QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE chassis_number = $1`, chassisNumber))
}

func (r *repository) Create(ctx context.Context, v Vehicle) (Vehicle, error) {
	now := time.Now().UTC()
	out, err := scanVehicle(r.pool.QueryRow(ctx, `
		INSERT INTO vehicles
			(model_id, engine_number, chassis_number, color, purchase_cost, supplier, warehouse_id, status, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'IN_STOCK', $8, $9, $10, $10)
		RETURNING `+vehicleColumns,
		v.ModelID, v.EngineNumber, v.ChassisNumber, v.Color, v.PurchaseCost, v.Supplier, v.WarehouseID, v.Notes, v.CreatedBy, now))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Vehicle{}, ErrDuplicateIdentity
		}
		return Vehicle{}, err
	}
	return out, nil
}

func (r *repository) UpdateDetails(ctx context.Context, id int64, input UpdateInput) error {
	query := `
		UPDATE vehicles SET
			color = COALESCE($2, color),
			supplier = COALESCE($3, supplier),
			notes = COALESCE($4, notes),
			purchase_cost = COALESCE($5, purchase_cost),
			updated_at = NOW()
		WHERE id = $1`
	// Notes survive a sale; anything else must not land on a vehicle sold
	// between the caller's status check and this statement.
	guarded := input.Color != nil || input.Supplier != nil || input.Cost != nil
	if guarded {
		query += ` AND status = 'IN_STOCK'`
	}
	tag, err := r.pool.Exec(ctx, query, id, input.Color, input.Supplier, input.Notes, input.Cost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if guarded {
			return ErrVehicleSold
		}
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM vehicles WHERE id = $1 AND status = 'IN_STOCK'`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrVehicleReferenced
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
