package domain

import (
	"encoding/json"
	"time"
)

// AuditEntry is a change event observed on the event bus.
type AuditEntry struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	EventType  string          `json:"event_type"`
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Cursor models the audit pagination token.
type Cursor struct {
	At time.Time
	ID string
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)
