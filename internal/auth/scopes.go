package auth

// Scopes understood by the dashboard API.
const (
	ScopeActivityRead  = "activity:read"
	ScopeSettingsRead  = "settings:read"
	ScopeSettingsWrite = "settings:write"
)

// AllScopes lists every scope, for development tokens.
var AllScopes = []string{ScopeActivityRead, ScopeSettingsRead, ScopeSettingsWrite}
