package customers

import (
	"errors"
	"time"
)

// Customer is a retail buyer. NationalID is unique when present.
type Customer struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	NationalID string    `json:"national_id,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Input carries customer create/update fields.
type Input struct {
	Name       string `json:"name" validate:"required,max=200"`
	NationalID string `json:"national_id" validate:"max=50"`
	Phone      string `json:"phone" validate:"max=50"`
	Address    string `json:"address" validate:"max=500"`
	Notes      string `json:"notes" validate:"max=1000"`
}

// ListFilter narrows customer listings.
type ListFilter struct {
	Search string
	Page   int
	Limit  int
}

// ErrDuplicateNationalID means another customer already carries the id.
var ErrDuplicateNationalID = errors.New("customers: national id already registered")
