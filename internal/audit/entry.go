package audit

import "time"

// Actions recorded in the audit trail.
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionToggle  = "toggle"
	ActionAlert   = "alert"
	ActionClear   = "clear"
	ActionDiscard = "discard"
)

// Entity types recorded in the audit trail.
const (
	EntityDevice = "device"
	EntityLimit  = "limit"
	EntitySensor = "sensor"
)

// Sources that produce audit entries.
const (
	SourceAPI    = "api"
	SourceIngest = "ingest"
)

// Entry is a single audit trail record.
type Entry struct {
	ID         string         `json:"id"`
	Tenant     string         `json:"tenant"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	Source     string         `json:"source"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Filter narrows an audit query. Tenant is required; the rest are optional.
type Filter struct {
	Tenant     string
	Action     string
	EntityType string
	EntityID   string
	Limit      int // default 50, max 200
	Offset     int
}

// ListResult is one page of audit entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}
