// Package cli implements the activityctl command tree.
package cli

import (
	"encoding/json"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"example.com/kickaider/internal/domain"
	"example.com/kickaider/internal/persistence/memory"
)

// localTenant scopes the in-memory store the CLI runs against.
const localTenant = "local"

type app struct {
	service *domain.Service
	out     io.Writer
	asJSON  bool
}

// Option adjusts the service backing the commands.
type Option func(*[]domain.Option)

// WithClock fixes the current time, which selects the default date.
func WithClock(now func() time.Time) Option {
	return func(opts *[]domain.Option) { *opts = append(*opts, domain.WithClock(now)) }
}

// WithRand replaces the source used when no seed is given.
func WithRand(rng *rand.Rand) Option {
	return func(opts *[]domain.Option) { *opts = append(*opts, domain.WithRand(rng)) }
}

// NewRootCommand builds activityctl writing to out.
func NewRootCommand(out io.Writer, opts ...Option) *cobra.Command {
	var serviceOpts []domain.Option
	for _, opt := range opts {
		opt(&serviceOpts)
	}
	a := &app{
		service: domain.NewService(memory.NewRepository(), serviceOpts...),
		out:     out,
	}

	root := &cobra.Command{
		Use:   "activityctl",
		Short: "Inspect generated employee activity data",
		Long: `activityctl runs the activity generator locally and prints the same
timelines and day details the API serves.

Pass --seed to reproduce a previous run; every response echoes the seed it used.`,
		Example: `  # Timeline of the IT department for a fixed date
  activityctl timeline --date 2025-01-15 --department IT --seed 42

  # Day details of one employee bucketed by hour
  activityctl details emp-3 --scale 1hour --seed 42

  # Development token with every scope
  activityctl token --tenant tenant-1`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of a table")
	root.SuggestionsMinimumDistance = 2

	root.AddCommand(a.timelineCommand(), a.detailsCommand(), tokenCommand(out))
	return root
}

// Execute runs activityctl with os arguments.
func Execute(out io.Writer) error {
	return NewRootCommand(out).Execute()
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func seedFlag(cmd *cobra.Command, value uint64) *uint64 {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	return &value
}
