package outbox

import "example.com/kickaider/internal/events"

const categorizationChangedSchema = `{
  "type": "object",
  "title": "CategorizationChanged",
  "properties": {
    "tenant_id": {"type": "string"},
    "rule_id": {"type": "string"},
    "name": {"type": "string"},
    "category": {"type": "string", "enum": ["productive", "unproductive", "neutral", "uncategorized"]},
    "source": {"type": "string", "enum": ["hardcoded", "manual"]},
    "bulk": {"type": "boolean"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["tenant_id", "bulk", "occurred_at"],
  "additionalProperties": false
}`

const calendarChangedSchema = `{
  "type": "object",
  "title": "CalendarChanged",
  "properties": {
    "tenant_id": {"type": "string"},
    "employee_id": {"type": "string"},
    "from": {"type": "string", "format": "date"},
    "to": {"type": "string", "format": "date"},
    "status": {"type": "string", "enum": ["vacation", "sick", "trip", "absence"]},
    "action": {"type": "string", "enum": ["set", "remove"]},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["tenant_id", "employee_id", "from", "to", "action", "occurred_at"],
  "additionalProperties": false
}`

const settingsChangedSchema = `{
  "type": "object",
  "title": "SettingsChanged",
  "properties": {
    "tenant_id": {"type": "string"},
    "section": {"type": "string", "enum": ["general", "accounts", "stop_passwords"]},
    "action": {"type": "string"},
    "subject_id": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["tenant_id", "section", "action", "occurred_at"],
  "additionalProperties": false
}`

// SchemaCatalogEntry maps event type to schema definition.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	events.TypeCategorizationChanged: {Schema: categorizationChangedSchema},
	events.TypeCalendarChanged:       {Schema: calendarChangedSchema},
	events.TypeSettingsChanged:       {Schema: settingsChangedSchema},
}
