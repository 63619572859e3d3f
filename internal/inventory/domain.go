package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the vehicle lifecycle.
type Status string

const (
	// StatusInStock means the vehicle sits in a warehouse.
	StatusInStock Status = "IN_STOCK"
	// StatusSold means the vehicle has been sold and is immutable.
	StatusSold Status = "SOLD"
)

// Vehicle is a serialized motorcycle unit. EngineNumber (the motor
// fingerprint) and ChassisNumber are each globally unique.
type Vehicle struct {
	ID               int64            `json:"id"`
	ModelID          int64            `json:"model_id"`
	EngineNumber     string           `json:"engine_number"`
	ChassisNumber    string           `json:"chassis_number"`
	Color            string           `json:"color"`
	PurchaseCost     decimal.Decimal  `json:"purchase_cost"`
	ConsignmentValue *decimal.Decimal `json:"consignment_value,omitempty"`
	Supplier         string           `json:"supplier,omitempty"`
	WarehouseID      int64            `json:"warehouse_id"`
	Status           Status           `json:"status"`
	Notes            string           `json:"notes,omitempty"`
	SoldAt           *time.Time       `json:"sold_at,omitempty"`
	CreatedBy        int64            `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// RegisterInput describes a vehicle intake.
type RegisterInput struct {
	ModelID       int64           `json:"model_id" validate:"required,gt=0"`
	EngineNumber  string          `json:"engine_number" validate:"required,min=6,max=40"`
	ChassisNumber string          `json:"chassis_number" validate:"required,min=6,max=40"`
	Color         string          `json:"color" validate:"max=50"`
	PurchaseCost  decimal.Decimal `json:"purchase_cost"`
	Supplier      string          `json:"supplier" validate:"max=200"`
	WarehouseID   int64           `json:"warehouse_id" validate:"required,gt=0"`
	Notes         string          `json:"notes" validate:"max=1000"`
	ActorID       int64           `json:"-"`
}

// UpdateInput carries descriptive-field updates. Identity and location are
// immutable here; location changes go through transfers.
type UpdateInput struct {
	Color    *string          `json:"color,omitempty" validate:"omitempty,max=50"`
	Supplier *string          `json:"supplier,omitempty" validate:"omitempty,max=200"`
	Notes    *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Cost     *decimal.Decimal `json:"purchase_cost,omitempty"`
}

// ListFilter narrows vehicle listings.
type ListFilter struct {
	WarehouseID int64
	ModelID     int64
	Status      Status
	Search      string
	Page        int
	Limit       int
}

var (
	// ErrDuplicateIdentity means the engine or chassis number is taken.
	ErrDuplicateIdentity = errors.New("inventory: engine or chassis number already registered")
	// ErrVehicleSold blocks mutations of sold vehicles.
	ErrVehicleSold = errors.New("inventory: vehicle already sold")
	// ErrVehicleReferenced blocks deletion once transfers, sales or media
	// reference the vehicle.
	ErrVehicleReferenced = errors.New("inventory: vehicle has transfer, sale or media history")
	// ErrInvalidIdentity indicates a malformed engine or chassis number.
	ErrInvalidIdentity = errors.New("inventory: invalid engine or chassis number")
)
