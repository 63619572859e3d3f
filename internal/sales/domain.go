package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the sale lifecycle.
type Status string

const (
	// StatusCompleted is a booked sale.
	StatusCompleted Status = "COMPLETED"
	// StatusVoid is a cancelled sale. The row stays; the vehicle returns
	// to stock and any ledger postings are reversed.
	StatusVoid Status = "VOID"
)

// Sale records one vehicle sold to one customer. AgentID is set when the
// sale was posted through an agent's consignment stock.
type Sale struct {
	ID         int64           `json:"id"`
	VehicleID  int64           `json:"vehicle_id"`
	CustomerID int64           `json:"customer_id"`
	AgentID    *int64          `json:"agent_id,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	Status     Status          `json:"status"`
	VoidReason string          `json:"void_reason,omitempty"`
	SoldAt     time.Time       `json:"sold_at"`
	VoidedAt   *time.Time      `json:"voided_at,omitempty"`
	CreatedBy  int64           `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// DirectSaleInput describes a showroom sale out of a company warehouse.
type DirectSaleInput struct {
	VehicleID      int64           `json:"vehicle_id" validate:"required,gt=0"`
	CustomerID     int64           `json:"customer_id" validate:"required,gt=0"`
	Price          decimal.Decimal `json:"price"`
	SoldAt         time.Time       `json:"sold_at,omitempty"`
	Note           string          `json:"note" validate:"max=500"`
	ActorID        int64           `json:"-"`
	IdempotencyKey string          `json:"-"`
}

// ListFilter narrows sale listings.
type ListFilter struct {
	CustomerID int64
	AgentID    int64
	Status     Status
	From       time.Time
	To         time.Time
	Page       int
	Limit      int
}

var (
	// ErrVehicleNotAvailable blocks selling a vehicle that is not in stock.
	ErrVehicleNotAvailable = errors.New("sales: vehicle is not available for sale")
	// ErrConsignedStock means the vehicle sits in an agent warehouse and
	// must be sold through the agent sale flow instead.
	ErrConsignedStock = errors.New("sales: vehicle is consigned to an agent")
	// ErrAlreadyVoid rejects voiding a sale twice.
	ErrAlreadyVoid = errors.New("sales: sale already void")
	// ErrInvalidPrice rejects non-positive sale prices.
	ErrInvalidPrice = errors.New("sales: price must be positive")
)
