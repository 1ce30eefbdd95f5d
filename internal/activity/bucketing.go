package activity

import "fmt"

// shortViewTail is how far past the last grouped event's start a short view
// period is rendered to extend.
const shortViewTail = 30

// shortViewGroup is the number of consecutive events per short view row.
const shortViewGroup = 3

// Scale is a fixed wall-clock bucket width.
type Scale string

const (
	Scale5Min  Scale = "5min"
	Scale15Min Scale = "15min"
	ScaleHour  Scale = "1hour"
)

// ParseScale validates a scale name. An empty name yields an empty Scale.
func ParseScale(value string) (Scale, error) {
	switch s := Scale(value); s {
	case "", Scale5Min, Scale15Min, ScaleHour:
		return s, nil
	default:
		return "", fmt.Errorf("unknown scale %q", value)
	}
}

// Minutes returns the bucket width, or 0 for an unknown scale.
func (s Scale) Minutes() int {
	switch s {
	case Scale5Min:
		return 5
	case Scale15Min:
		return 15
	case ScaleHour:
		return 60
	}
	return 0
}

// GroupShortView folds every three consecutive events into one row. This is
// the canonical short view returned with day details. Events whose timestamp
// or duration is not HH:MM are left out.
func GroupShortView(events []ActivityEvent) []ShortViewRow {
	events = wellFormed(events)
	rows := make([]ShortViewRow, 0, (len(events)+shortViewGroup-1)/shortViewGroup)
	for i := 0; i < len(events); i += shortViewGroup {
		group := events[i:min(i+shortViewGroup, len(events))]
		first := mustParseClock(group[0].Timestamp)
		last := mustParseClock(group[len(group)-1].Timestamp)
		period := FormatMinutes(first) + " - " + FormatMinutes(last+shortViewTail)
		rows = append(rows, summarizeRow(period, group))
	}
	return rows
}

// BucketByScale re-aggregates events into fixed wall-clock buckets aligned to
// the floor of the first event's timestamp. Each event is attributed wholly to
// the bucket containing its start; empty buckets are omitted. Events whose
// timestamp or duration is not HH:MM are left out.
func BucketByScale(events []ActivityEvent, scale Scale) []ShortViewRow {
	events = wellFormed(events)
	width := scale.Minutes()
	if width == 0 || len(events) == 0 {
		return nil
	}

	starts := make([]int, len(events))
	lastStart := 0
	for i, e := range events {
		starts[i] = mustParseClock(e.Timestamp)
		lastStart = max(lastStart, starts[i])
	}

	rows := make([]ShortViewRow, 0)
	for bucket := (starts[0] / width) * width; bucket <= lastStart; bucket += width {
		var members []ActivityEvent
		for i, e := range events {
			if starts[i] >= bucket && starts[i] < bucket+width {
				members = append(members, e)
			}
		}
		if len(members) == 0 {
			continue
		}
		period := FormatMinutes(bucket) + " - " + FormatMinutes(bucket+width)
		rows = append(rows, summarizeRow(period, members))
	}
	return rows
}

func wellFormed(events []ActivityEvent) []ActivityEvent {
	out := make([]ActivityEvent, 0, len(events))
	for _, e := range events {
		if _, err := ParseClock(e.Timestamp); err != nil {
			continue
		}
		if _, err := ParseClock(e.Duration); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

func summarizeRow(period string, events []ActivityEvent) ShortViewRow {
	var active, idle int
	apps := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		minutes := mustParseClock(e.Duration)
		if e.Type == EventIdle {
			idle += minutes
			continue
		}
		active += minutes
		if _, ok := seen[e.AppName]; !ok {
			seen[e.AppName] = struct{}{}
			apps = append(apps, e.AppName)
		}
	}
	return ShortViewRow{
		Period:          period,
		ActivityMinutes: FormatMinutes(active),
		IdleMinutes:     FormatMinutes(idle),
		Apps:            apps,
	}
}
