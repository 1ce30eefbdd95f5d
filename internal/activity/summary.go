package activity

// DepartmentEfficiency is the share of tracked minutes per state for one
// department, in percent.
type DepartmentEfficiency struct {
	Department    string  `json:"department"`
	Productive    float64 `json:"productive"`
	Neutral       float64 `json:"neutral"`
	Unproductive  float64 `json:"unproductive"`
	Uncategorized float64 `json:"uncategorized"`
	Idle          float64 `json:"idle"`
	TotalMinutes  int     `json:"total_minutes"`
}

// Summarize aggregates timeline minutes by department and state. Departments
// appear in the order they are first seen. Blocks with malformed bounds are
// ignored.
func Summarize(employees []Employee) []DepartmentEfficiency {
	order := make([]string, 0)
	minutes := make(map[string]map[State]int)

	for _, emp := range employees {
		byState, ok := minutes[emp.Department]
		if !ok {
			byState = make(map[State]int)
			minutes[emp.Department] = byState
			order = append(order, emp.Department)
		}
		for _, block := range emp.Timeline {
			start, err := ParseClock(block.Start)
			if err != nil {
				continue
			}
			end, err := ParseClock(block.End)
			if err != nil {
				continue
			}
			if span := end - start; span > 0 {
				byState[block.State] += span
			}
		}
	}

	out := make([]DepartmentEfficiency, 0, len(order))
	for _, dept := range order {
		byState := minutes[dept]
		total := 0
		for _, m := range byState {
			total += m
		}
		eff := DepartmentEfficiency{Department: dept, TotalMinutes: total}
		if total > 0 {
			share := func(s State) float64 { return float64(byState[s]) * 100 / float64(total) }
			eff.Productive = share(StateProductive)
			eff.Neutral = share(StateNeutral)
			eff.Unproductive = share(StateUnproductive)
			eff.Uncategorized = share(StateUncategorized)
			eff.Idle = share(StateIdle) + share(StateNoData)
		}
		out = append(out, eff)
	}
	return out
}
