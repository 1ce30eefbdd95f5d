package activity

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

// CompanyDepartment is the sentinel department meaning "whole company".
const CompanyDepartment = "Company"

// Departments lists the sentinel followed by the concrete departments.
var Departments = []string{CompanyDepartment, "IT", "Marketing", "Sales", "HR", "Finance"}

// IdleAppName is the app name carried by idle events.
const IdleAppName = "Idle"

const (
	blockIdleMinutes = 5
	workWindowTitle  = "Work context - KickAider"
	productiveURL    = "https://github.com/kickaider"
	webWindowTitle   = "KickAider Admin"
	appWindowTitle   = "Source Code Editor"
	adminURL         = "https://app.kickaider.com"
	screenshotURL    = "https://via.placeholder.com/160x90/4E61F6/FFFFFF?text=Activity"
	idleProbability  = 0.15
	webProbability   = 0.4
	eventIDAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	eventIDLength    = 9
)

var (
	blockStates  = []State{StateProductive, StateNeutral, StateUnproductive, StateUncategorized, StateIdle}
	eventStates  = []State{StateProductive, StateNeutral, StateUnproductive}
	timelineApps = []string{"Google Chrome", "VS Code", "Slack", "Terminal", "Figma"}
	eventApps    = []string{"VS Code", "Google Chrome", "Slack", "Terminal", "Figma"}
	rosterNames  = []string{
		"Ivanov Ivan", "Petrov Petr", "Sidorova Anna", "Kuznetsova Elena",
		"Smirnov Alexey", "Volkov Dmitry", "Morozova Olga", "Novikov Artem",
	}
)

// Generator produces mock activity data from an injected random source.
// A Generator is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a Generator drawing from rng.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// NewSeededGenerator returns a PCG-backed Generator whose output is fully
// determined by seed.
func NewSeededGenerator(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Timeline generates contiguous blocks covering 08:00-18:00.
func (g *Generator) Timeline() []ActivityBlock {
	blocks := make([]ActivityBlock, 0, 12)
	for current := timelineStart; current < dayEnd; {
		duration := 30 + g.rng.IntN(60)
		state := blockStates[g.rng.IntN(len(blockStates))]
		end := min(current+duration, dayEnd)
		idle := min(blockIdleMinutes, end-current)

		block := ActivityBlock{
			Start:               FormatMinutes(current),
			End:                 FormatMinutes(end),
			State:               state,
			AppName:             timelineApps[g.rng.IntN(len(timelineApps))],
			WindowTitle:         workWindowTitle,
			ActivityTime:        FormatMinutes(end - current - idle),
			IdleTime:            FormatMinutes(idle),
			ProductivityPercent: g.productivity(state),
			TopApps: []AppUsage{
				{Name: "Google Chrome", Duration: "15m"},
				{Name: "VS Code", Duration: "10m"},
				{Name: "Slack", Duration: "5m"},
			},
		}
		if state == StateProductive {
			block.URL = productiveURL
		}
		blocks = append(blocks, block)
		current = end
	}
	return blocks
}

func (g *Generator) productivity(state State) int {
	if state == StateProductive {
		return 80 + g.rng.IntN(20)
	}
	return g.rng.IntN(60)
}

// Roster returns the fixed employee list, each with a freshly generated timeline.
func (g *Generator) Roster() []Employee {
	employees := make([]Employee, 0, len(rosterNames))
	for i := range rosterNames {
		emp := rosterEmployee(i)
		emp.Timeline = g.Timeline()
		employees = append(employees, emp)
	}
	return employees
}

// LookupEmployee returns the roster entry for id without a timeline.
func LookupEmployee(id string) (Employee, bool) {
	for i := range rosterNames {
		emp := rosterEmployee(i)
		if emp.ID == id {
			return emp, true
		}
	}
	return Employee{}, false
}

func rosterEmployee(i int) Employee {
	return Employee{
		ID:         "emp-" + strconv.Itoa(i+1),
		FullName:   rosterNames[i],
		Department: Departments[1+i%(len(Departments)-1)],
		Hostname:   "WORKSTATION-" + strconv.Itoa(i+101),
	}
}

// DayEvents generates a chronological event list from 09:00 until 18:00.
func (g *Generator) DayEvents() []ActivityEvent {
	events := make([]ActivityEvent, 0, 32)
	for current := detailsStart; current < dayEnd; {
		idle := g.rng.Float64() < idleProbability
		duration := 10 + g.rng.IntN(20)
		kind := EventApp
		switch {
		case idle:
			kind = EventIdle
		case g.rng.Float64() < webProbability:
			kind = EventWeb
		}
		app := eventApps[g.rng.IntN(len(eventApps))]

		event := ActivityEvent{
			ID:        g.eventID(),
			Timestamp: FormatMinutes(current),
			Duration:  FormatMinutes(duration),
			Type:      kind,
		}
		switch kind {
		case EventIdle:
			event.AppName = IdleAppName
			event.State = StateIdle
		case EventWeb:
			event.AppName = app
			event.WindowTitle = webWindowTitle
			event.URL = adminURL
			event.ScreenshotURL = screenshotURL
			event.State = eventStates[g.rng.IntN(len(eventStates))]
		default:
			event.AppName = app
			event.WindowTitle = appWindowTitle
			event.ScreenshotURL = screenshotURL
			event.State = eventStates[g.rng.IntN(len(eventStates))]
		}
		events = append(events, event)
		current += duration
	}
	return events
}

// DayDetails generates the events of one employee-day and groups them into
// the canonical short view.
func (g *Generator) DayDetails(header DayHeader) DayDetails {
	events := g.DayEvents()
	return DayDetails{
		Header:         header,
		ShortViewRows:  GroupShortView(events),
		FullViewEvents: events,
	}
}

func (g *Generator) eventID() string {
	var b strings.Builder
	b.Grow(eventIDLength)
	for range eventIDLength {
		b.WriteByte(eventIDAlphabet[g.rng.IntN(len(eventIDAlphabet))])
	}
	return b.String()
}
