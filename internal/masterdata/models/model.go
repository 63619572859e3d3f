package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VehicleModel is a catalog entry (brand + model + year).
type VehicleModel struct {
	ID         int64           `json:"id"`
	Brand      string          `json:"brand"`
	Name       string          `json:"name"`
	Year       int             `json:"year"`
	CapacityCC int             `json:"capacity_cc"`
	ListPrice  decimal.Decimal `json:"list_price"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
