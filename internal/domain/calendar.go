package domain

// CalendarStatusType marks why an employee is away on a date.
type CalendarStatusType string

const (
	StatusVacation CalendarStatusType = "vacation"
	StatusSick     CalendarStatusType = "sick"
	StatusTrip     CalendarStatusType = "trip"
	StatusAbsence  CalendarStatusType = "absence"
)

// Valid reports whether s is a known status.
func (s CalendarStatusType) Valid() bool {
	switch s {
	case StatusVacation, StatusSick, StatusTrip, StatusAbsence:
		return true
	}
	return false
}

// AllEmployees disables the employee filter of calendar listings.
const AllEmployees = "all"

// maxCalendarRangeDays bounds a single range assignment.
const maxCalendarRangeDays = 366

// CalendarStatus is one production calendar mark. At most one exists per
// employee and date.
type CalendarStatus struct {
	ID         string             `json:"id"`
	EmployeeID string             `json:"employee_id"`
	Date       string             `json:"date"`
	Status     CalendarStatusType `json:"status"`
}

// CalendarRange assigns one status to every date of an inclusive range.
type CalendarRange struct {
	TenantID   string
	EmployeeID string
	From       string
	To         string
	Status     CalendarStatusType
}
