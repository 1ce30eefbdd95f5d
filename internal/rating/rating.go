// Package rating ranks a fixed reference staff by one usage criterion for a
// given day.
package rating

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"example.com/kickaider/internal/listing"
)

// Criterion selects which usage figure drives the ranking.
type Criterion string

const (
	CriterionProductive   Criterion = "productive"
	CriterionUnproductive Criterion = "unproductive"
	CriterionNeutral      Criterion = "neutral"
	CriterionIdle         Criterion = "idle"
)

// AllDepartments disables the department filter.
const AllDepartments = "all"

// ParseCriterion validates value, defaulting to productive when empty.
func ParseCriterion(value string) (Criterion, error) {
	switch c := Criterion(strings.ToLower(strings.TrimSpace(value))); c {
	case "":
		return CriterionProductive, nil
	case CriterionProductive, CriterionUnproductive, CriterionNeutral, CriterionIdle:
		return c, nil
	default:
		return "", fmt.Errorf("unknown criterion %q", value)
	}
}

type baseline struct {
	id, name, initials, hostname, department string
	productive, unproductive, neutral, idle  int
}

var staff = []baseline{
	{"1", "Ivanov Ivan Ivanovich", "II", "DESKTOP-1AB2C3D", "IT", 435, 15, 45, 120},
	{"2", "Smirnova Anna Sergeevna", "SA", "LAPTOP-XYZ123", "HR", 410, 20, 50, 60},
	{"3", "Petrov Petr Petrovich", "PP", "DESKTOP-8K9L0M", "Marketing", 380, 45, 30, 150},
	{"4", "Saule Abdykadyrova", "SA", "MACBOOK-PRO-14", "IT", 345, 30, 110, 85},
	{"5", "Kuznetsov Alexey", "KA", "DESKTOP-QWERTY", "Sales", 310, 60, 25, 195},
	{"6", "Vasilyeva Elena", "VE", "LAPTOP-ABCDEF", "Finance", 270, 80, 40, 200},
	{"7", "Dmitry Sokolov", "DS", "DESKTOP-55XX2Q", "Sales", 220, 120, 60, 210},
	{"8", "Olga Nikolaeva", "ON", "MAC-MINI-01", "HR", 395, 10, 35, 90},
	{"9", "Maxim Lebedev", "ML", "LAPTOP-GHJ789", "IT", 440, 5, 55, 40},
	{"10", "Tatiana Morozova", "TM", "DESKTOP-ZAQ123", "Marketing", 320, 50, 80, 130},
	{"11", "Roman Nikitin", "RN", "DESKTOP-WSX456", "Finance", 290, 65, 70, 160},
	{"12", "Yulia Volkova", "YV", "LAPTOP-EDC789", "Marketing", 355, 25, 45, 100},
}

// Query selects and pages the rating view.
type Query struct {
	Date       time.Time
	Department string
	Criterion  Criterion
	Search     string
	Page       int
	PageSize   int
}

// Entry is one ranked employee.
type Entry struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Initials     string  `json:"initials"`
	Hostname     string  `json:"hostname"`
	Department   string  `json:"department"`
	Productive   int     `json:"productive"`
	Unproductive int     `json:"unproductive"`
	Neutral      int     `json:"neutral"`
	Idle         int     `json:"idle"`
	Rank         int     `json:"rank"`
	Percent      float64 `json:"percent"`
	DisplayTime  string  `json:"display_time"`
}

// Summary describes the criterion distribution over the filtered set.
type Summary struct {
	Count  int     `json:"count"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Result is a ranked page plus the summary of the whole filtered set.
type Result struct {
	Criterion Criterion           `json:"criterion"`
	Date      string              `json:"date"`
	Rows      listing.Page[Entry] `json:"rows"`
	Summary   Summary             `json:"summary"`
}

// DayModifier maps a date to a value in [0,1] that shifts the baseline so that
// different days look different.
func DayModifier(date time.Time) float64 {
	y, m, d := date.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	mod := days % 100
	if mod < 0 {
		mod += 100
	}
	return math.Abs(float64(mod)-50) / 50
}

func vary(base int, mod, spread float64) int {
	return max(0, int(math.Floor(float64(base)*(1+(mod*2*spread-spread)))))
}

// Rank computes the rating for q.
func Rank(q Query) (Result, error) {
	criterion, err := ParseCriterion(string(q.Criterion))
	if err != nil {
		return Result{}, err
	}

	mod := DayModifier(q.Date)
	entries := make([]Entry, 0, len(staff))
	for _, b := range staff {
		entries = append(entries, Entry{
			ID:           b.id,
			Name:         b.name,
			Initials:     b.initials,
			Hostname:     b.hostname,
			Department:   b.department,
			Productive:   vary(b.productive, mod, 0.1),
			Unproductive: vary(b.unproductive, mod, 0.15),
			Neutral:      vary(b.neutral, mod, 0.1),
			Idle:         vary(b.idle, mod, 0.2),
		})
	}

	if dept := strings.TrimSpace(q.Department); dept != "" && dept != AllDepartments {
		entries = listing.Filter(entries, func(e Entry) bool { return e.Department == dept })
	}
	if search := strings.ToLower(q.Search); search != "" {
		entries = listing.Filter(entries, func(e Entry) bool {
			return strings.Contains(strings.ToLower(e.Name), search) ||
				strings.Contains(strings.ToLower(e.Hostname), search)
		})
	}

	value := func(e Entry) int { return e.value(criterion) }
	listing.SortDesc(entries, value)

	maxVal := 1
	values := make([]float64, 0, len(entries))
	for _, e := range entries {
		maxVal = max(maxVal, value(e))
		values = append(values, float64(value(e)))
	}
	for i := range entries {
		v := value(entries[i])
		entries[i].Rank = i + 1
		entries[i].Percent = float64(v) / float64(maxVal) * 100
		entries[i].DisplayTime = formatHours(v)
	}

	return Result{
		Criterion: criterion,
		Date:      q.Date.Format(time.DateOnly),
		Rows:      listing.Paginate(entries, q.Page, q.PageSize),
		Summary:   summarize(values),
	}, nil
}

func (e Entry) value(c Criterion) int {
	switch c {
	case CriterionUnproductive:
		return e.Unproductive
	case CriterionNeutral:
		return e.Neutral
	case CriterionIdle:
		return e.Idle
	default:
		return e.Productive
	}
}

func summarize(values []float64) Summary {
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}
	for _, v := range values {
		s.Max = max(s.Max, int(v))
	}
	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s
}

func formatHours(minutes int) string {
	return fmt.Sprintf("%02dh %02dm", minutes/60, minutes%60)
}
