package sales

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mototrade-erp/mototrade/internal/agents"
	"github.com/mototrade-erp/mototrade/internal/platform/db"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// SaleVehicle is the row-locked view of a vehicle during sale posting.
type SaleVehicle struct {
	ID           int64
	Status       string
	WarehouseID  int64
	OwnerAgentID *int64
}

// TxRepository is the transactional surface for posting and voiding sales.
type TxRepository interface {
	GetVehicleForUpdate(ctx context.Context, vehicleID int64) (SaleVehicle, error)
	GetSaleForUpdate(ctx context.Context, saleID int64) (Sale, error)
	InsertSale(ctx context.Context, sale Sale) (Sale, error)
	MarkVehicleSold(ctx context.Context, vehicleID int64, soldAt time.Time) error
	RestoreVehicle(ctx context.Context, vehicleID int64) error
	MarkSaleVoid(ctx context.Context, saleID int64, reason string, voidedAt time.Time) error
	ReverseLedgerByRef(ctx context.Context, refKind, refID, note string, actorID int64) ([]agents.Entry, error)
}

// Repository persists sales.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Sale, int, error)
	Get(ctx context.Context, id int64) (Sale, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the sales repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const saleColumns = `id, vehicle_id, customer_id, agent_id, price, commission, status,
	COALESCE(void_reason, ''), sold_at, voided_at, created_by, created_at, updated_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.VehicleID, &s.CustomerID, &s.AgentID, &s.Price, &s.Commission,
		&s.Status, &s.VoidReason, &s.SoldAt, &s.VoidedAt, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, shared.ErrNotFound
		}
		return Sale{}, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM sales WHERE 1=1`
	args := []any{}

	addCond := func(cond string, value any) {
		args = append(args, value)
		n := "$" + strconv.Itoa(len(args))
		clause := cond + n
		query += clause
		countQuery += clause
	}

	if filter.CustomerID > 0 {
		addCond(` AND customer_id = `, filter.CustomerID)
	}
	if filter.AgentID > 0 {
		addCond(` AND agent_id = `, filter.AgentID)
	}
	if filter.Status != "" {
		addCond(` AND status = `, string(filter.Status))
	}
	if !filter.From.IsZero() {
		addCond(` AND sold_at >= `, filter.From)
	}
	if !filter.To.IsZero() {
		addCond(` AND sold_at < `, filter.To)
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

	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Sale, error) {
	return scanSale(r.pool.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) GetVehicleForUpdate(ctx context.Context, vehicleID int64) (SaleVehicle, error) {
	var v SaleVehicle
	err := t.tx.QueryRow(ctx, `
		SELECT v.id, v.status, v.warehouse_id, w.owner_agent_id
		FROM vehicles v
		JOIN warehouses w ON w.id = v.warehouse_id
		WHERE v.id = $1
		FOR UPDATE OF v`, vehicleID).
		Scan(&v.ID, &v.Status, &v.WarehouseID, &v.OwnerAgentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SaleVehicle{}, shared.ErrNotFound
		}
		return SaleVehicle{}, err
	}
	return v, nil
}

func (t *txRepository) GetSaleForUpdate(ctx context.Context, saleID int64) (Sale, error) {
	return scanSale(t.tx.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, saleID))
}

func (t *txRepository) InsertSale(ctx context.Context, sale Sale) (Sale, error) {
	now := time.Now().UTC()
	return scanSale(t.tx.QueryRow(ctx, `
		INSERT INTO sales (vehicle_id, customer_id, agent_id, price, commission, status, sold_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING `+saleColumns,
		sale.VehicleID, sale.CustomerID, sale.AgentID, sale.Price, sale.Commission,
		sale.Status, sale.SoldAt, sale.CreatedBy, now))
}

func (t *txRepository) MarkVehicleSold(ctx context.Context, vehicleID int64, soldAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE vehicles SET status = 'SOLD', sold_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'IN_STOCK'`, vehicleID, soldAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVehicleNotAvailable
	}
	return nil
}

func (t *txRepository) RestoreVehicle(ctx context.Context, vehicleID int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE vehicles SET status = 'IN_STOCK', sold_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'SOLD'`, vehicleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVehicleNotAvailable
	}
	return nil
}

func (t *txRepository) MarkSaleVoid(ctx context.Context, saleID int64, reason string, voidedAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE sales SET status = 'VOID', void_reason = $2, voided_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'COMPLETED'`, saleID, reason, voidedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyVoid
	}
	return nil
}

func (t *txRepository) ReverseLedgerByRef(ctx context.Context, refKind, refID, note string, actorID int64) ([]agents.Entry, error) {
	return agents.ReverseByRefTx(ctx, t.tx, refKind, refID, note, actorID)
}
