package activity

import (
	"slices"
	"strings"
)

// FilterEmployees applies the department and search filters of the timeline
// view. Roster order is preserved. The search text is matched as given,
// surrounding whitespace included; only an empty search disables it.
func FilterEmployees(employees []Employee, departments []string, search string) []Employee {
	byDepartment := len(departments) > 0 && !slices.Contains(departments, CompanyDepartment)
	query := strings.ToLower(search)

	out := make([]Employee, 0, len(employees))
	for _, emp := range employees {
		if byDepartment && !slices.Contains(departments, emp.Department) {
			continue
		}
		if query != "" && !employeeMatches(emp, query) {
			continue
		}
		out = append(out, emp)
	}
	return out
}

func employeeMatches(emp Employee, query string) bool {
	if strings.Contains(strings.ToLower(emp.FullName), query) {
		return true
	}
	for _, block := range emp.Timeline {
		if strings.Contains(strings.ToLower(block.AppName), query) {
			return true
		}
	}
	return false
}

// FilterEvents keeps events whose app name or window title contains search.
func FilterEvents(events []ActivityEvent, search string) []ActivityEvent {
	query := strings.ToLower(search)
	if query == "" {
		return events
	}
	out := make([]ActivityEvent, 0, len(events))
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.AppName), query) ||
			strings.Contains(strings.ToLower(e.WindowTitle), query) {
			out = append(out, e)
		}
	}
	return out
}

// FilterRows keeps short view rows listing an app that contains search.
func FilterRows(rows []ShortViewRow, search string) []ShortViewRow {
	query := strings.ToLower(search)
	if query == "" {
		return rows
	}
	out := make([]ShortViewRow, 0, len(rows))
	for _, row := range rows {
		if slices.ContainsFunc(row.Apps, func(app string) bool {
			return strings.Contains(strings.ToLower(app), query)
		}) {
			out = append(out, row)
		}
	}
	return out
}
