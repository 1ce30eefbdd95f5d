package activity

import (
	"encoding/json"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatMinutes(t *testing.T) {
	cases := map[int]string{
		0:    "00:00",
		5:    "00:05",
		125:  "02:05",
		1080: "18:00",
		-7:   "00:00",
	}
	for in, want := range cases {
		require.Equal(t, want, FormatMinutes(in), "FormatMinutes(%d)", in)
	}
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:30")
	require.NoError(t, err)
	require.Equal(t, 570, m)

	for _, bad := range []string{"", "930", "aa:10", "10:75", "-1:00"} {
		_, err := ParseClock(bad)
		require.Error(t, err, bad)
	}
}

func TestTimelineCoversWorkingDay(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		blocks := NewSeededGenerator(seed).Timeline()
		require.NotEmpty(t, blocks)
		require.Equal(t, "08:00", blocks[0].Start)
		require.Equal(t, "18:00", blocks[len(blocks)-1].End)

		for i, b := range blocks {
			start, end := mustParseClock(b.Start), mustParseClock(b.End)
			require.Less(t, start, end, "seed %d block %d", seed, i)
			active, idle := mustParseClock(b.ActivityTime), mustParseClock(b.IdleTime)
			require.Equal(t, end-start, active+idle, "seed %d block %d", seed, i)
			require.LessOrEqual(t, idle, 5)
			require.True(t, b.State.Valid())
			require.NotEqual(t, StateNoData, b.State)
			if i > 0 {
				require.Equal(t, blocks[i-1].End, b.Start, "seed %d block %d not contiguous", seed, i)
			}
			if b.State == StateProductive {
				require.NotEmpty(t, b.URL)
				require.GreaterOrEqual(t, b.ProductivityPercent, 80)
			} else {
				require.Empty(t, b.URL)
				require.Less(t, b.ProductivityPercent, 60)
			}
		}
	}
}

func TestSeededGeneratorIsReproducible(t *testing.T) {
	a := NewSeededGenerator(42)
	b := NewSeededGenerator(42)
	require.Equal(t, a.Roster(), b.Roster())
	require.Equal(t, a.DayEvents(), b.DayEvents())
}

func TestRosterLayout(t *testing.T) {
	roster := NewGenerator(rand.New(rand.NewPCG(1, 2))).Roster()
	require.Len(t, roster, 8)
	require.Equal(t, "emp-1", roster[0].ID)
	require.Equal(t, "IT", roster[0].Department)
	require.Equal(t, "WORKSTATION-101", roster[0].Hostname)
	require.Equal(t, "Finance", roster[4].Department)
	require.Equal(t, "IT", roster[5].Department)
	require.Equal(t, "emp-8", roster[7].ID)

	emp, ok := LookupEmployee("emp-3")
	require.True(t, ok)
	require.Equal(t, "Sales", emp.Department)
	require.Nil(t, emp.Timeline)

	_, ok = LookupEmployee("emp-99")
	require.False(t, ok)
}

func TestFilterEmployees(t *testing.T) {
	roster := NewSeededGenerator(7).Roster()

	it := FilterEmployees(roster, []string{"IT"}, "")
	require.Len(t, it, 2)
	require.Equal(t, "emp-1", it[0].ID)
	require.Equal(t, "emp-6", it[1].ID)

	require.Len(t, FilterEmployees(roster, nil, ""), 8)
	require.Len(t, FilterEmployees(roster, []string{"IT", CompanyDepartment}, ""), 8)
	require.Empty(t, FilterEmployees(roster, []string{"Legal"}, ""))

	byName := FilterEmployees(roster, nil, "pETROV")
	require.Len(t, byName, 1)
	require.Equal(t, "emp-2", byName[0].ID)
}

func TestFilterEmployeesSearchMatchesNameOrApp(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		roster := NewSeededGenerator(seed).Roster()
		for _, emp := range FilterEmployees(roster, nil, "slack") {
			matched := strings.Contains(strings.ToLower(emp.FullName), "slack")
			for _, b := range emp.Timeline {
				matched = matched || b.AppName == "Slack"
			}
			require.True(t, matched, "seed %d employee %s", seed, emp.ID)
		}
	}
}

func TestFilterEmployeesKeepsSearchWhitespace(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		roster := NewSeededGenerator(seed).Roster()
		for _, query := range []string{"Alexey ", "  ", "Code ", " slack"} {
			want := strings.ToLower(query)
			for _, emp := range FilterEmployees(roster, nil, query) {
				matched := strings.Contains(strings.ToLower(emp.FullName), want)
				for _, b := range emp.Timeline {
					matched = matched || strings.Contains(strings.ToLower(b.AppName), want)
				}
				require.True(t, matched, "seed %d query %q employee %s", seed, query, emp.ID)
			}
		}
		require.Empty(t, FilterEmployees(roster, nil, "Alexey "))
		require.Empty(t, FilterEmployees(roster, nil, "  "))

		bySurname := FilterEmployees(roster, nil, "smirnov ")
		require.Len(t, bySurname, 1)
		require.Equal(t, "Smirnov Alexey", bySurname[0].FullName)
	}
}

func TestDayEvents(t *testing.T) {
	for seed := uint64(0); seed < 100; seed++ {
		events := NewSeededGenerator(seed).DayEvents()
		require.NotEmpty(t, events)
		require.Equal(t, "09:00", events[0].Timestamp)

		for i, e := range events {
			require.Len(t, e.ID, eventIDLength)
			start := mustParseClock(e.Timestamp)
			require.Less(t, start, dayEnd)
			dur := mustParseClock(e.Duration)
			require.GreaterOrEqual(t, dur, 10)
			require.Less(t, dur, 30)
			if i > 0 {
				prev := events[i-1]
				require.Equal(t, mustParseClock(prev.Timestamp)+mustParseClock(prev.Duration), start)
			}
			switch e.Type {
			case EventIdle:
				require.Equal(t, IdleAppName, e.AppName)
				require.Equal(t, StateIdle, e.State)
				require.Empty(t, e.URL)
				require.Empty(t, e.ScreenshotURL)
			case EventWeb:
				require.NotEmpty(t, e.URL)
			case EventApp:
				require.Empty(t, e.URL)
			default:
				t.Fatalf("unexpected type %q", e.Type)
			}
		}
	}
}

func sampleEvents() []ActivityEvent {
	return []ActivityEvent{
		{ID: "a", Timestamp: "09:00", Duration: "00:10", Type: EventApp, AppName: "VS Code", WindowTitle: "main.go"},
		{ID: "b", Timestamp: "09:10", Duration: "00:12", Type: EventIdle, AppName: IdleAppName},
		{ID: "c", Timestamp: "09:22", Duration: "00:15", Type: EventWeb, AppName: "Google Chrome", WindowTitle: "Docs"},
		{ID: "d", Timestamp: "09:37", Duration: "00:20", Type: EventApp, AppName: "VS Code"},
		{ID: "e", Timestamp: "09:57", Duration: "00:11", Type: EventApp, AppName: "Slack"},
	}
}

func TestGroupShortView(t *testing.T) {
	rows := GroupShortView(sampleEvents())
	require.Len(t, rows, 2)

	require.Equal(t, "09:00 - 09:52", rows[0].Period)
	require.Equal(t, "00:25", rows[0].ActivityMinutes)
	require.Equal(t, "00:12", rows[0].IdleMinutes)
	require.Equal(t, []string{"VS Code", "Google Chrome"}, rows[0].Apps)

	require.Equal(t, "09:37 - 10:27", rows[1].Period)
	require.Equal(t, "00:31", rows[1].ActivityMinutes)
	require.Equal(t, "00:00", rows[1].IdleMinutes)
	require.Equal(t, []string{"VS Code", "Slack"}, rows[1].Apps)

	require.Empty(t, GroupShortView(nil))
}

func TestBucketByScale(t *testing.T) {
	rows := BucketByScale(sampleEvents(), Scale15Min)
	require.Equal(t, []string{"09:00 - 09:15", "09:15 - 09:30", "09:30 - 09:45", "09:45 - 10:00"}, periods(rows))
	require.Equal(t, "00:10", rows[0].ActivityMinutes)
	require.Equal(t, "00:12", rows[0].IdleMinutes)

	hourly := BucketByScale(sampleEvents(), ScaleHour)
	require.Len(t, hourly, 1)
	require.Equal(t, "09:00 - 10:00", hourly[0].Period)
	require.Equal(t, "00:56", hourly[0].ActivityMinutes)

	five := BucketByScale(sampleEvents(), Scale5Min)
	require.Len(t, five, 5, "empty buckets are omitted")

	require.Nil(t, BucketByScale(sampleEvents(), Scale("2min")))
	require.Nil(t, BucketByScale(nil, Scale5Min))
}

func TestBucketByScaleCoversEveryEvent(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		events := NewSeededGenerator(seed).DayEvents()
		for _, scale := range []Scale{Scale5Min, Scale15Min, ScaleHour} {
			total := 0
			for _, row := range BucketByScale(events, scale) {
				total += mustParseClock(row.ActivityMinutes) + mustParseClock(row.IdleMinutes)
			}
			want := 0
			for _, e := range events {
				want += mustParseClock(e.Duration)
			}
			require.Equal(t, want, total, "seed %d scale %s", seed, scale)
		}
	}
}

func TestParseScale(t *testing.T) {
	s, err := ParseScale("15min")
	require.NoError(t, err)
	require.Equal(t, 15, s.Minutes())

	s, err = ParseScale("")
	require.NoError(t, err)
	require.Zero(t, s.Minutes())

	_, err = ParseScale("day")
	require.Error(t, err)
}

func TestFilterEventsAndRows(t *testing.T) {
	events := sampleEvents()
	require.Len(t, FilterEvents(events, ""), len(events))
	require.Equal(t, []string{"a", "d"}, ids(FilterEvents(events, "vs code")))
	require.Equal(t, []string{"c"}, ids(FilterEvents(events, "docs")))

	rows := GroupShortView(events)
	require.Len(t, FilterRows(rows, "slack"), 1)
	require.Len(t, FilterRows(rows, "code"), 2)
	require.Empty(t, FilterRows(rows, "figma"))

	require.Empty(t, FilterEvents(events, "   "))
	require.Empty(t, FilterRows(rows, "   "))
}

func TestSummarize(t *testing.T) {
	employees := []Employee{
		{Department: "IT", Timeline: []ActivityBlock{
			{Start: "08:00", End: "09:00", State: StateProductive},
			{Start: "09:00", End: "10:00", State: StateIdle},
		}},
		{Department: "Sales", Timeline: []ActivityBlock{
			{Start: "08:00", End: "08:30", State: StateNeutral},
		}},
		{Department: "IT", Timeline: []ActivityBlock{
			{Start: "08:00", End: "10:00", State: StateProductive},
		}},
	}
	summary := Summarize(employees)
	require.Len(t, summary, 2)
	require.Equal(t, "IT", summary[0].Department)
	require.Equal(t, 240, summary[0].TotalMinutes)
	require.InDelta(t, 75.0, summary[0].Productive, 1e-9)
	require.InDelta(t, 25.0, summary[0].Idle, 1e-9)
	require.InDelta(t, 100.0, summary[1].Neutral, 1e-9)

	for _, d := range Summarize(NewSeededGenerator(3).Roster()) {
		sum := d.Productive + d.Neutral + d.Unproductive + d.Uncategorized + d.Idle
		require.InDelta(t, 100.0, sum, 1e-6, d.Department)
	}
}

func TestAggregationSkipsMalformedClocks(t *testing.T) {
	events := append([]ActivityEvent{
		{ID: "x", Timestamp: "9am", Duration: "00:05", Type: EventApp, AppName: "Figma"},
		{ID: "y", Timestamp: "08:50", Duration: "ten", Type: EventApp, AppName: "Figma"},
	}, sampleEvents()...)

	require.Equal(t, GroupShortView(sampleEvents()), GroupShortView(events))
	require.Equal(t, BucketByScale(sampleEvents(), Scale15Min), BucketByScale(events, Scale15Min))

	summary := Summarize([]Employee{{Department: "IT", Timeline: []ActivityBlock{
		{Start: "08:00", End: "09:00", State: StateProductive},
		{Start: "noon", End: "13:00", State: StateIdle},
	}}})
	require.Equal(t, 60, summary[0].TotalMinutes)
	require.InDelta(t, 100.0, summary[0].Productive, 1e-9)
}

func TestDayDetailsJSONShape(t *testing.T) {
	details := NewSeededGenerator(9).DayDetails(DayHeader{EmployeeID: "emp-1", Date: "2025-01-15"})
	raw, err := json.Marshal(details)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Contains(t, decoded, "short_view_rows")
	require.Contains(t, decoded, "full_view_events")
	require.Len(t, details.ShortViewRows, (len(details.FullViewEvents)+2)/3)
}

func periods(rows []ShortViewRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Period)
	}
	return out
}

func ids(events []ActivityEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}
