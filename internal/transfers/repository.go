package transfers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mototrade-erp/mototrade/internal/agents"
	"github.com/mototrade-erp/mototrade/internal/platform/db"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// LockedVehicle is the row-locked view of a vehicle during transfer posting.
type LockedVehicle struct {
	ID               int64
	Status           string
	WarehouseID      int64
	PurchaseCost     decimal.Decimal
	ConsignmentValue *decimal.Decimal
}

// WarehouseRef carries the ownership info needed to decide ledger postings.
type WarehouseRef struct {
	ID           int64
	OwnerAgentID *int64
}

// TxRepository is the transactional surface used while posting a transfer.
type TxRepository interface {
	GetVehicleForUpdate(ctx context.Context, vehicleID int64) (LockedVehicle, error)
	GetWarehouse(ctx context.Context, warehouseID int64) (WarehouseRef, error)
	InsertTransfer(ctx context.Context, t Transfer) (Transfer, error)
	MoveVehicle(ctx context.Context, vehicleID, toWarehouseID int64, consignmentValue *decimal.Decimal) error
	AppendEntry(ctx context.Context, input agents.EntryInput) (agents.Entry, error)
}

// Repository persists transfers.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Transfer, int, error)
	Get(ctx context.Context, id int64) (Transfer, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the transfers repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const transferColumns = `id, vehicle_id, from_warehouse_id, to_warehouse_id, consignment_value, note, created_by, created_at`

func scanTransfer(row pgx.Row) (Transfer, error) {
	var t Transfer
	err := row.Scan(&t.ID, &t.VehicleID, &t.FromWarehouseID, &t.ToWarehouseID,
		&t.ConsignmentValue, &t.Note, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, shared.ErrNotFound
		}
		return Transfer{}, err
	}
	return t, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Transfer, int, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM transfers WHERE 1=1`
	args := []any{}

	if filter.VehicleID > 0 {
		args = append(args, filter.VehicleID)
		cond := ` AND vehicle_id = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filter.WarehouseID > 0 {
		args = append(args, filter.WarehouseID)
		n := strconv.Itoa(len(args))
		cond := ` AND (from_warehouse_id = $` + n + ` OR to_warehouse_id = $` + n + `)`
		query += cond
		countQuery += cond
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

	var out []Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Transfer, error) {
	return scanTransfer(r.pool.QueryRow(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id))
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) GetVehicleForUpdate(ctx context.Context, vehicleID int64) (LockedVehicle, error) {
	var v LockedVehicle
	err := t.tx.QueryRow(ctx, `
		SELECT id, status, warehouse_id, purchase_cost, consignment_value
		FROM vehicles WHERE id = $1 FOR UPDATE`, vehicleID).
		Scan(&v.ID, &v.Status, &v.WarehouseID, &v.PurchaseCost, &v.ConsignmentValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LockedVehicle{}, shared.ErrNotFound
		}
		return LockedVehicle{}, err
	}
	return v, nil
}

func (t *txRepository) GetWarehouse(ctx context.Context, warehouseID int64) (WarehouseRef, error) {
	var w WarehouseRef
	err := t.tx.QueryRow(ctx,
		`SELECT id, owner_agent_id FROM warehouses WHERE id = $1`, warehouseID).
		Scan(&w.ID, &w.OwnerAgentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WarehouseRef{}, shared.ErrNotFound
		}
		return WarehouseRef{}, err
	}
	return w, nil
}

func (t *txRepository) InsertTransfer(ctx context.Context, tr Transfer) (Transfer, error) {
	return scanTransfer(t.tx.QueryRow(ctx, `
		INSERT INTO transfers (vehicle_id, from_warehouse_id, to_warehouse_id, consignment_value, note, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+transferColumns,
		tr.VehicleID, tr.FromWarehouseID, tr.ToWarehouseID, tr.ConsignmentValue, tr.Note, tr.CreatedBy, time.Now().UTC()))
}

func (t *txRepository) MoveVehicle(ctx context.Context, vehicleID, toWarehouseID int64, consignmentValue *decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE vehicles SET warehouse_id = $2, consignment_value = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'IN_STOCK'`,
		vehicleID, toWarehouseID, consignmentValue)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVehicleNotInStock
	}
	return nil
}

func (t *txRepository) AppendEntry(ctx context.Context, input agents.EntryInput) (agents.Entry, error) {
	return agents.AppendEntryTx(ctx, t.tx, input)
}
