package agents

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mototrade-erp/mototrade/internal/platform/db"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// ConsignedVehicle is the locked view of a vehicle during agent-sale posting.
type ConsignedVehicle struct {
	ID               int64
	Status           string
	WarehouseID      int64
	OwnerAgentID     *int64
	PurchaseCost     decimal.Decimal
	ConsignmentValue *decimal.Decimal
}

// SaleRecord is the sale row inserted by an agent sale.
type SaleRecord struct {
	VehicleID  int64
	CustomerID int64
	AgentID    *int64
	Price      decimal.Decimal
	Commission decimal.Decimal
	SoldAt     time.Time
	CreatedBy  int64
}

// ListFilter narrows agent listings.
type ListFilter struct {
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}

// TxRepository is the transactional surface used while posting an agent sale.
type TxRepository interface {
	GetConsignedVehicleForUpdate(ctx context.Context, vehicleID int64) (ConsignedVehicle, error)
	MarkVehicleSold(ctx context.Context, vehicleID int64, soldAt time.Time) error
	InsertSale(ctx context.Context, sale SaleRecord) (int64, error)
	AppendEntry(ctx context.Context, input EntryInput) (Entry, error)
}

// Repository persists agents and their ledger.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Agent, int, error)
	Get(ctx context.Context, id int64) (Agent, error)
	Create(ctx context.Context, agent Agent) (Agent, error)
	Update(ctx context.Context, id int64, agent Agent) error
	Statement(ctx context.Context, filter StatementFilter) ([]Entry, int, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the agents repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const agentColumns = `id, name, phone, commission_rate, balance, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Agent, int, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM agents WHERE 1=1`
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		cond := ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR phone ILIKE $` + strconv.Itoa(len(args)) + `)`
		query += cond
		countQuery += cond
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		cond := ` AND is_active = $` + strconv.Itoa(len(args))
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

	var out []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Phone, &a.CommissionRate, &a.Balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Agent, error) {
	var a Agent
	err := r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Phone, &a.CommissionRate, &a.Balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, shared.ErrNotFound
		}
		return Agent{}, err
	}
	return a, nil
}

func (r *repository) Create(ctx context.Context, agent Agent) (Agent, error) {
	now := time.Now().UTC()
	var a Agent
	err := r.pool.QueryRow(ctx, `
		INSERT INTO agents (name, phone, commission_rate, balance, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, 0, TRUE, $4, $4)
		RETURNING `+agentColumns,
		agent.Name, agent.Phone, agent.CommissionRate, now).
		Scan(&a.ID, &a.Name, &a.Phone, &a.CommissionRate, &a.Balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (r *repository) Update(ctx context.Context, id int64, agent Agent) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE agents SET name = $2, phone = $3, commission_rate = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1`,
		id, agent.Name, agent.Phone, agent.CommissionRate, agent.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Statement(ctx context.Context, filter StatementFilter) ([]Entry, int, error) {
	query := `
		SELECT id, agent_id, entry_type, debit, credit, balance_after, ref_kind, ref_id, note, reversed_entry_id, created_by, created_at
		FROM agent_ledger_entries WHERE agent_id = $1`
	countQuery := `SELECT COUNT(*) FROM agent_ledger_entries WHERE agent_id = $1`
	args := []any{filter.AgentID}

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		cond := ` AND created_at >= $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		cond := ` AND created_at < $` + strconv.Itoa(len(args))
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

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AgentID, &e.Type, &e.Debit, &e.Credit, &e.BalanceAfter,
			&e.RefKind, &e.RefID, &e.Note, &e.ReversedEntryID, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) GetConsignedVehicleForUpdate(ctx context.Context, vehicleID int64) (ConsignedVehicle, error) {
	var v ConsignedVehicle
	err := t.tx.QueryRow(ctx, `
		SELECT v.id, v.status, v.warehouse_id, w.owner_agent_id, v.purchase_cost, v.consignment_value
		FROM vehicles v
		JOIN warehouses w ON w.id = v.warehouse_id
		WHERE v.id = $1
		FOR UPDATE OF v`, vehicleID).
		Scan(&v.ID, &v.Status, &v.WarehouseID, &v.OwnerAgentID, &v.PurchaseCost, &v.ConsignmentValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ConsignedVehicle{}, shared.ErrNotFound
		}
		return ConsignedVehicle{}, err
	}
	return v, nil
}

func (t *txRepository) MarkVehicleSold(ctx context.Context, vehicleID int64, soldAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE vehicles SET status = 'SOLD', sold_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'IN_STOCK'`, vehicleID, soldAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVehicleNotConsigned
	}
	return nil
}

func (t *txRepository) InsertSale(ctx context.Context, sale SaleRecord) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO sales (vehicle_id, customer_id, agent_id, price, commission, status, sold_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'COMPLETED', $6, $7, NOW(), NOW())
		RETURNING id`,
		sale.VehicleID, sale.CustomerID, sale.AgentID, sale.Price, sale.Commission, sale.SoldAt, sale.CreatedBy).
		Scan(&id)
	return id, err
}

func (t *txRepository) AppendEntry(ctx context.Context, input EntryInput) (Entry, error) {
	return AppendEntryTx(ctx, t.tx, input)
}
