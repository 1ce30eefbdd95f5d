package domain

import "time"

// Language is the dashboard UI language.
type Language string

const (
	LanguageRU Language = "ru"
	LanguageEN Language = "en"
)

// GeneralSettings holds organisation-wide preferences.
type GeneralSettings struct {
	Timezone      string   `json:"timezone"`
	Language      Language `json:"language"`
	IdleThreshold int      `json:"idle_threshold"`
	LateTolerance int      `json:"late_tolerance"`
}

// DefaultGeneralSettings is returned until an organisation saves its own.
func DefaultGeneralSettings() GeneralSettings {
	return GeneralSettings{
		Timezone:      "Europe/Moscow",
		Language:      LanguageRU,
		IdleThreshold: 10,
		LateTolerance: 5,
	}
}

// BootstrapLogin is the protected administrator created for every organisation.
const (
	BootstrapLogin     = "admin"
	bootstrapAccountID = "admin-1"
)

// AdminAccount is a dashboard login. Only a bcrypt hash of the password is kept.
type AdminAccount struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StopPassword lets an operator stop the monitoring agent on one workstation.
// Each employee has at most one.
type StopPassword struct {
	EmployeeID string    `json:"employee_id"`
	Password   string    `json:"password"`
	CreatedAt  time.Time `json:"created_at"`
	Used       bool      `json:"used"`
}

const (
	stopPasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	stopPasswordMinLen   = 6
	stopPasswordMaxLen   = 8
)
