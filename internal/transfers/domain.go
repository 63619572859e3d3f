package transfers

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Transfer moves one vehicle between warehouses. When either side is an
// agent-owned warehouse the matching consignment postings are recorded in
// the same transaction.
type Transfer struct {
	ID               int64            `json:"id"`
	VehicleID        int64            `json:"vehicle_id"`
	FromWarehouseID  int64            `json:"from_warehouse_id"`
	ToWarehouseID    int64            `json:"to_warehouse_id"`
	ConsignmentValue *decimal.Decimal `json:"consignment_value,omitempty"`
	Note             string           `json:"note,omitempty"`
	CreatedBy        int64            `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
}

// CreateInput describes a transfer request. ConsignmentValue applies when the
// destination is agent-owned; it defaults to the vehicle's purchase cost.
type CreateInput struct {
	VehicleID        int64            `json:"vehicle_id" validate:"required,gt=0"`
	ToWarehouseID    int64            `json:"to_warehouse_id" validate:"required,gt=0"`
	ConsignmentValue *decimal.Decimal `json:"consignment_value,omitempty"`
	Note             string           `json:"note" validate:"max=500"`
	ActorID          int64            `json:"-"`
	IdempotencyKey   string           `json:"-"`
}

// ListFilter narrows transfer listings.
type ListFilter struct {
	VehicleID   int64
	WarehouseID int64
	Page        int
	Limit       int
}

var (
	// ErrSameWarehouse rejects a transfer into the vehicle's current location.
	ErrSameWarehouse = errors.New("transfers: vehicle already at destination warehouse")
	// ErrVehicleNotInStock blocks transfers of sold vehicles.
	ErrVehicleNotInStock = errors.New("transfers: vehicle is not in stock")
)
