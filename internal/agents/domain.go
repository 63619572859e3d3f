package agents

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType enumerates agent ledger postings.
type EntryType string

const (
	// EntryTransferDebt debits the consignment value of a vehicle moved
	// into the agent's warehouse.
	EntryTransferDebt EntryType = "TRANSFER_DEBT"
	// EntryTransferReturn credits a vehicle moved back out of the agent's
	// warehouse.
	EntryTransferReturn EntryType = "TRANSFER_RETURN"
	// EntrySaleSettlement credits the consignment value settled by an
	// agent sale.
	EntrySaleSettlement EntryType = "SALE_SETTLEMENT"
	// EntryCommission credits the agent's commission on a sale.
	EntryCommission EntryType = "COMMISSION"
	// EntryPayment credits cash received from the agent.
	EntryPayment EntryType = "PAYMENT"
	// EntryAdjustment is a manual correction, debit or credit.
	EntryAdjustment EntryType = "ADJUSTMENT"
	// EntryReversal is a sign-inverted copy of a prior entry.
	EntryReversal EntryType = "REVERSAL"
)

// Agent is a commissioned reseller with a running consignment balance.
// Balance is denormalized from the ledger: sum(debit) - sum(credit).
type Agent struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Balance        decimal.Decimal `json:"balance"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Entry is one append-only ledger row. Exactly one of Debit/Credit is
// positive; the other is zero. BalanceAfter snapshots the agent balance
// after this posting.
type Entry struct {
	ID              int64           `json:"id"`
	AgentID         int64           `json:"agent_id"`
	Type            EntryType       `json:"type"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	RefKind         string          `json:"ref_kind,omitempty"`
	RefID           string          `json:"ref_id,omitempty"`
	Note            string          `json:"note,omitempty"`
	ReversedEntryID *int64          `json:"reversed_entry_id,omitempty"`
	CreatedBy       int64           `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// EntryInput describes a posting before it is appended.
type EntryInput struct {
	AgentID         int64
	Type            EntryType
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	RefKind         string
	RefID           string
	Note            string
	ReversedEntryID *int64
	CreatedBy       int64
}

// AgentSaleInput describes an agent sale to be posted atomically.
type AgentSaleInput struct {
	AgentID            int64
	VehicleID          int64
	CustomerID         int64
	SalePrice          decimal.Decimal
	CommissionOverride *decimal.Decimal
	SoldAt             time.Time
	Note               string
	ActorID            int64
	IdempotencyKey     string
}

// StatementFilter narrows ledger listings.
type StatementFilter struct {
	AgentID int64
	From    time.Time
	To      time.Time
	Page    int
	Limit   int
}

var (
	// ErrAgentInactive blocks postings against deactivated agents.
	ErrAgentInactive = errors.New("agents: agent is inactive")
	// ErrInvalidAmount indicates a non-positive posting amount.
	ErrInvalidAmount = errors.New("agents: amount must be positive")
	// ErrVehicleNotConsigned indicates the vehicle is not in stock at one
	// of the agent's warehouses.
	ErrVehicleNotConsigned = errors.New("agents: vehicle not in stock at an agent warehouse")
	// ErrBalanceMismatch is raised by the integrity scan when the stored
	// balance diverges from the recomputed ledger sum.
	ErrBalanceMismatch = errors.New("agents: stored balance diverges from ledger")
)
