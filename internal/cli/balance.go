package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"puntos/internal/core"
)

type balanceResult struct {
	Person  string `json:"person,omitempty"`
	Balance int64  `json:"balance"`
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	var person string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show points earned minus points spent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBalance(cmd, rootOpts, person)
		},
	}
	cmd.Flags().StringVar(&person, "person", "", "one person's balance (default both combined)")
	return cmd
}

func runBalance(cmd *cobra.Command, opts *RootOptions, person string) error {
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	rt, err := s.openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(rt)

	bal, err := rt.Service.Balance(cmd.Context(), person)
	if err != nil {
		return s.formatter.Error(err)
	}
	p, _ := rt.Service.Roster().ResolveFilter(person)
	res := balanceResult{Person: string(p), Balance: bal}
	return s.formatter.Success(res, func(w io.Writer) error {
		label := res.Person
		if label == "" {
			label = strings.Join(rt.Service.Roster().Names(), " + ")
		}
		_, err := fmt.Fprintf(w, "%s: %d points\n", label, bal)
		return err
	})
}

// NewRollupCommand creates the rollup command.
func NewRollupCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		person string
		days   int
		end    string
	)
	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Show activity points per day",
		Long: `Show the points earned on each day of a window ending on --end
(default today). Days without activity show zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollup(cmd, rootOpts, person, days, end)
		},
	}
	cmd.Flags().StringVar(&person, "person", "", "one person's points (default both)")
	cmd.Flags().IntVar(&days, "days", core.DefaultRollupDays, "window length in days")
	cmd.Flags().StringVar(&end, "end", "", "last day of the window (YYYY-MM-DD, default today)")
	return cmd
}

func runRollup(cmd *cobra.Command, opts *RootOptions, person string, days int, end string) error {
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	var endDate core.Date
	if end != "" {
		if endDate, err = core.ParseDate(end); err != nil {
			return s.formatter.Error(err)
		}
	}
	rt, err := s.openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(rt)

	rollup, err := rt.Service.Rollup(cmd.Context(), person, days, endDate)
	if err != nil {
		return s.formatter.Error(err)
	}
	return s.formatter.Success(rollup, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tPOINTS")
		for _, d := range rollup {
			fmt.Fprintf(tw, "%s\t%d\n", d.Date, d.Points)
		}
		return tw.Flush()
	})
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	var person string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals, balance and the last seven days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, rootOpts, person)
		},
	}
	cmd.Flags().StringVar(&person, "person", "", "one person's summary (default both)")
	return cmd
}

func runSummary(cmd *cobra.Command, opts *RootOptions, person string) error {
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	rt, err := s.openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(rt)

	sum, err := rt.Service.Summary(cmd.Context(), person)
	if err != nil {
		return s.formatter.Error(err)
	}
	return s.formatter.Success(sum, func(w io.Writer) error {
		fmt.Fprintf(w, "Earned:  %d\nSpent:   %d\nBalance: %d\n\n", sum.Earned, sum.Spent, sum.Balance)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, d := range sum.Rollup {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", d.Date, d.Points, strings.Repeat("#", int(min(d.Points, 60))))
		}
		return tw.Flush()
	})
}
