package activity

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	timelineStart = 8 * 60
	detailsStart  = 9 * 60
	dayEnd        = 18 * 60
)

// FormatMinutes renders minutes as a zero-padded HH:MM string.
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseClock converts an HH:MM string into minutes since midnight.
func ParseClock(value string) (int, error) {
	hours, mins, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid hours in %q", value)
	}
	m, err := strconv.Atoi(mins)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", value)
	}
	return h*60 + m, nil
}

// mustParseClock is for values already accepted by ParseClock. Anything else
// reads as 0.
func mustParseClock(value string) int {
	m, err := ParseClock(value)
	if err != nil {
		return 0
	}
	return m
}
