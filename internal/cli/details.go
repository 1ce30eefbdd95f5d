package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"example.com/kickaider/internal/activity"
	"example.com/kickaider/internal/domain"
)

func (a *app) detailsCommand() *cobra.Command {
	var (
		date   string
		scale  string
		search string
		seed   uint64
		events bool
	)
	cmd := &cobra.Command{
		Use:   "details <employee-id>",
		Short: "Print the detail view of one employee-day",
		Example: `  activityctl details emp-1 --date 2025-01-15 --seed 7
  activityctl details emp-4 --scale 15min --events`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := activity.ParseScale(scale)
			if err != nil {
				return err
			}
			view, err := a.service.DayDetails(cmd.Context(), domain.DayQuery{
				TenantID:   localTenant,
				EmployeeID: args[0],
				Date:       date,
				Scale:      parsed,
				Search:     search,
				Seed:       seedFlag(cmd, seed),
			})
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(view)
			}
			return a.printDetails(view, events)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to generate (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&scale, "scale", "", "bucket width: 5min, 15min or 1hour")
	cmd.Flags().StringVarP(&search, "search", "q", "", "filter by application or window title")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "generator seed")
	cmd.Flags().BoolVar(&events, "events", false, "also print every event")
	return cmd
}

func (a *app) printDetails(view *domain.DayView, withEvents bool) error {
	h := view.Header
	fmt.Fprintf(a.out, "%s (%s)  %s  %s  Seed: %d\n\n", h.FullName, h.EmployeeID, h.Department, h.Date, view.Seed)

	rows := view.ShortViewRows
	if view.Scale != "" {
		rows = view.Buckets
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tACTIVITY\tIDLE\tAPPS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Period, r.ActivityMinutes, r.IdleMinutes, strings.Join(r.Apps, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !withEvents {
		return nil
	}

	fmt.Fprintln(a.out)
	tw = tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tDURATION\tTYPE\tSTATE\tAPP\tTITLE")
	for _, e := range view.FullViewEvents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Timestamp, e.Duration, e.Type, e.State, e.AppName, e.WindowTitle)
	}
	return tw.Flush()
}
