// Package activity synthesises per-employee productivity data and derives the
// aggregated views the dashboard renders from it.
package activity

// State labels a time interval of employee computer usage.
type State string

const (
	StateProductive    State = "productive"
	StateNeutral       State = "neutral"
	StateUnproductive  State = "unproductive"
	StateUncategorized State = "uncategorized"
	StateIdle          State = "idle"
	StateNoData        State = "nodata"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateProductive, StateNeutral, StateUnproductive, StateUncategorized, StateIdle, StateNoData:
		return true
	}
	return false
}

// EventType classifies a single activity event.
type EventType string

const (
	EventApp  EventType = "app"
	EventWeb  EventType = "web"
	EventIdle EventType = "idle"
)

// AppUsage is a top application entry shown in a block tooltip.
type AppUsage struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
}

// ActivityBlock is one contiguous labelled interval of an employee's day.
type ActivityBlock struct {
	Start               string     `json:"start"`
	End                 string     `json:"end"`
	State               State      `json:"state"`
	AppName             string     `json:"app_name"`
	WindowTitle         string     `json:"window_title"`
	URL                 string     `json:"url,omitempty"`
	ActivityTime        string     `json:"activity_time"`
	IdleTime            string     `json:"idle_time"`
	ProductivityPercent int        `json:"productivity_percent"`
	TopApps             []AppUsage `json:"top_apps"`
}

// Employee is a roster entry with its generated timeline.
type Employee struct {
	ID         string          `json:"id"`
	FullName   string          `json:"full_name"`
	Department string          `json:"department"`
	Hostname   string          `json:"hostname"`
	Timeline   []ActivityBlock `json:"timeline"`
}

// ActivityEvent is a fine-grained unit of the day details view.
type ActivityEvent struct {
	ID            string    `json:"id"`
	Timestamp     string    `json:"timestamp"`
	Duration      string    `json:"duration"`
	Type          EventType `json:"type"`
	AppName       string    `json:"app_name"`
	WindowTitle   string    `json:"window_title,omitempty"`
	URL           string    `json:"url,omitempty"`
	ScreenshotURL string    `json:"screenshot_url,omitempty"`
	State         State     `json:"state"`
}

// ShortViewRow aggregates several events into one period.
type ShortViewRow struct {
	Period          string   `json:"period"`
	ActivityMinutes string   `json:"activity_minutes"`
	IdleMinutes     string   `json:"idle_minutes"`
	Apps            []string `json:"apps"`
}

// DayHeader identifies the employee-day a DayDetails value describes.
type DayHeader struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	Hostname   string `json:"hostname"`
	Date       string `json:"date"`
}

// DayDetails is the detail view of a single employee-day.
type DayDetails struct {
	Header         DayHeader       `json:"header"`
	ShortViewRows  []ShortViewRow  `json:"short_view_rows"`
	FullViewEvents []ActivityEvent `json:"full_view_events"`
}
