package domain

import (
	"time"

	"example.com/kickaider/internal/activity"
)

// TimelineQuery selects the employees shown on the dashboard timeline.
type TimelineQuery struct {
	TenantID    string
	Date        string
	Departments []string
	Search      string
	// Seed makes the generated data reproducible. Nil draws a fresh seed.
	Seed *uint64
}

// DayQuery selects a single employee-day.
type DayQuery struct {
	TenantID   string
	EmployeeID string
	Date       string
	Scale      activity.Scale
	Search     string
	Seed       *uint64
}

// TimelineView is the generated timeline for one date.
type TimelineView struct {
	Date      string              `json:"date"`
	Seed      uint64              `json:"seed"`
	Employees []activity.Employee `json:"employees"`
}

// EfficiencyView is the per-department state breakdown for one date.
type EfficiencyView struct {
	Date        string                          `json:"date"`
	Seed        uint64                          `json:"seed"`
	Departments []activity.DepartmentEfficiency `json:"departments"`
}

// DayView is the detail view of an employee-day. Buckets are only populated
// when a scale was requested.
type DayView struct {
	activity.DayDetails
	Seed    uint64                  `json:"seed"`
	Scale   activity.Scale          `json:"scale,omitempty"`
	Buckets []activity.ShortViewRow `json:"buckets,omitempty"`
}

func normalizeDate(value string, now time.Time) (string, error) {
	if value == "" {
		return now.Format(time.DateOnly), nil
	}
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return "", invalidInput("date must be YYYY-MM-DD, got %q", value)
	}
	return d.Format(time.DateOnly), nil
}
