// Package events defines the change event payloads published to the bus.
package events

import "time"

// Event types written to the outbox.
const (
	TypeCategorizationChanged = "categorization.changed"
	TypeCalendarChanged       = "calendar.changed"
	TypeSettingsChanged       = "settings.changed"
)

// Kafka headers attached to every published record.
const (
	HeaderEventType     = "event_type"
	HeaderTenantID      = "tenant_id"
	HeaderSchemaSubject = "schema_subject"
)

// Route describes where an event type is published.
type Route struct {
	Topic         string
	SchemaSubject string
}

// Catalog maps every event type to its topic and Schema Registry subject.
var Catalog = map[string]Route{
	TypeCategorizationChanged: {Topic: "kickaider_categorization", SchemaSubject: "kickaider_categorization-value"},
	TypeCalendarChanged:       {Topic: "kickaider_calendar", SchemaSubject: "kickaider_calendar-value"},
	TypeSettingsChanged:       {Topic: "kickaider_settings", SchemaSubject: "kickaider_settings-value"},
}

// Topics lists every published topic.
func Topics() []string {
	return []string{
		Catalog[TypeCategorizationChanged].Topic,
		Catalog[TypeCalendarChanged].Topic,
		Catalog[TypeSettingsChanged].Topic,
	}
}

// CategorizationChanged is emitted when a rule is overridden or reset. A bulk
// reset carries no rule id.
type CategorizationChanged struct {
	TenantID   string    `json:"tenant_id"`
	RuleID     string    `json:"rule_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Category   string    `json:"category,omitempty"`
	Source     string    `json:"source,omitempty"`
	Bulk       bool      `json:"bulk"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Calendar actions.
const (
	CalendarActionSet    = "set"
	CalendarActionRemove = "remove"
)

// CalendarChanged is emitted when production calendar marks are set or removed.
type CalendarChanged struct {
	TenantID   string    `json:"tenant_id"`
	EmployeeID string    `json:"employee_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Status     string    `json:"status,omitempty"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Settings sections.
const (
	SectionGeneral       = "general"
	SectionAccounts      = "accounts"
	SectionStopPasswords = "stop_passwords"
)

// SettingsChanged is emitted for any settings mutation. Secrets are never included.
type SettingsChanged struct {
	TenantID   string    `json:"tenant_id"`
	Section    string    `json:"section"`
	Action     string    `json:"action"`
	SubjectID  string    `json:"subject_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
