package warehouses

import "time"

// Warehouse is a stock location. Agent-owned warehouses (OwnerAgentID set)
// participate in consignment debt postings on transfer.
type Warehouse struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	OwnerAgentID *int64    `json:"owner_agent_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
