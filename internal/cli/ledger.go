package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"puntos/internal/core"
)

type ledgerFlags struct {
	date   string
	points string
}

func (f ledgerFlags) parseDate() (core.Date, error) {
	if f.date == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(f.date)
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	var flags ledgerFlags
	cmd := &cobra.Command{
		Use:   "log <person> <activity>",
		Short: "Record a completed activity",
		Long: `Record that a person completed an activity from the catalog. The
activity's current catalog points are captured unless --points is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, rootOpts, flags, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&flags.date, "date", "", "day the activity happened (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&flags.points, "points", "", "points to record instead of the catalog value")
	return cmd
}

func runLog(cmd *cobra.Command, opts *RootOptions, flags ledgerFlags, person, activity string) error {
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	date, err := flags.parseDate()
	if err != nil {
		return s.formatter.Error(err)
	}
	rt, err := s.openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(rt)

	var rec core.ActivityRecord
	if flags.points != "" {
		points, perr := core.ParsePoints(flags.points)
		if perr != nil {
			return s.formatter.Error(&core.ValidationError{Field: "points", Reason: perr.Error()})
		}
		if date.IsZero() {
			date = rt.Service.Today()
		}
		rec, err = rt.Service.AppendActivity(cmd.Context(), core.ActivityRecord{
			Person: core.Person(person), Activity: activity, Date: date, Points: points,
		})
	} else {
		rec, err = rt.Service.LogActivity(cmd.Context(), person, activity, date)
	}
	if err != nil {
		return s.formatter.Error(err)
	}
	return s.formatter.Success(rec, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s earned %d points for %s on %s\n", rec.Person, rec.Points, rec.Activity, rec.Date)
		return err
	})
}

// NewRedeemCommand creates the redeem command.
func NewRedeemCommand(rootOpts *RootOptions) *cobra.Command {
	var flags ledgerFlags
	cmd := &cobra.Command{
		Use:   "redeem <person> <reward>",
		Short: "Spend points on a reward",
		Long: `Record that a person redeemed a reward from the catalog at its current
cost. The balance is allowed to go negative.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRedeem(cmd, rootOpts, flags, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&flags.date, "date", "", "day of the redemption (YYYY-MM-DD, default today)")
	return cmd
}

func runRedeem(cmd *cobra.Command, opts *RootOptions, flags ledgerFlags, person, reward string) error {
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	date, err := flags.parseDate()
	if err != nil {
		return s.formatter.Error(err)
	}
	rt, err := s.openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(rt)

	rec, err := rt.Service.Redeem(cmd.Context(), person, reward, date)
	if err != nil {
		return s.formatter.Error(err)
	}
	return s.formatter.Success(rec, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s redeemed %s for %d points on %s\n", rec.Person, rec.Reward, rec.Cost, rec.Date)
		return err
	})
}

type recordsResult struct {
	Activities  []core.ActivityRecord   `json:"activities"`
	Redemptions []core.RedemptionRecord `json:"redemptions"`
}

// NewRecordsCommand creates the records command.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	var person string
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List ledger records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(cmd, rootOpts, person)
		},
	}
	cmd.Flags().StringVar(&person, "person", "", "only this person's records (default both)")
	return cmd
}

func runRecords(cmd *cobra.Command, opts *RootOptions, person string) error {
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	rt, err := s.openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close(rt)

	acts, reds, err := rt.Service.Records(cmd.Context(), person)
	if err != nil {
		return s.formatter.Error(err)
	}
	if acts == nil {
		acts = []core.ActivityRecord{}
	}
	if reds == nil {
		reds = []core.RedemptionRecord{}
	}
	return s.formatter.Success(recordsResult{Activities: acts, Redemptions: reds}, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tPERSON\tACTIVITY\tPOINTS")
		for _, a := range acts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", a.Date, a.Person, a.Activity, a.Points)
		}
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "DATE\tPERSON\tREWARD\tCOST")
		for _, r := range reds {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.Date, r.Person, r.Reward, r.Cost)
		}
		return tw.Flush()
	})
}
