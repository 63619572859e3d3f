package audit

import (
	"encoding/json"
	"time"
)

// Event is one recorded action, read back from audit_logs.
type Event struct {
	ID         int64           `json:"id"`
	ActorID    int64           `json:"actor_id"`
	Action     string          `json:"action"`
	Entity     string          `json:"entity"`
	EntityID   string          `json:"entity_id"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// ListFilter narrows the audit timeline.
type ListFilter struct {
	ActorID  int64
	Entity   string
	EntityID string
	From     time.Time
	To       time.Time
	Page     int
	Limit    int
}
