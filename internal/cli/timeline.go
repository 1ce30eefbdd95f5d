package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"example.com/kickaider/internal/activity"
	"example.com/kickaider/internal/domain"
)

func (a *app) timelineCommand() *cobra.Command {
	var (
		date        string
		departments []string
		search      string
		seed        uint64
	)
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Print the generated timeline of every employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.service.Timeline(cmd.Context(), domain.TimelineQuery{
				TenantID:    localTenant,
				Date:        date,
				Departments: departments,
				Search:      search,
				Seed:        seedFlag(cmd, seed),
			})
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(view)
			}
			return a.printTimeline(view)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to generate (YYYY-MM-DD, default today)")
	cmd.Flags().StringSliceVar(&departments, "department", nil, "keep only these departments (repeatable)")
	cmd.Flags().StringVarP(&search, "search", "q", "", "filter by name, application or window title")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "generator seed")
	return cmd
}

func (a *app) printTimeline(view *domain.TimelineView) error {
	fmt.Fprintf(a.out, "Date: %s  Seed: %d\n\n", view.Date, view.Seed)

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDEPARTMENT\tHOSTNAME\tBLOCKS\tPRODUCTIVE\tIDLE")
	for _, emp := range view.Employees {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			emp.ID, emp.FullName, emp.Department, emp.Hostname, len(emp.Timeline),
			countState(emp.Timeline, activity.StateProductive),
			countState(emp.Timeline, activity.StateIdle),
		)
	}
	return tw.Flush()
}

func countState(blocks []activity.ActivityBlock, state activity.State) int {
	n := 0
	for _, b := range blocks {
		if b.State == state {
			n++
		}
	}
	return n
}
