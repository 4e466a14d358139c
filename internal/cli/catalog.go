package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"puntos/internal/core"
	"puntos/internal/services"
	"puntos/internal/storage/file"
)

// NewCatalogCommand groups the catalog subcommands.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or load the activity and reward catalogs",
	}
	cmd.AddCommand(newCatalogListCommand(rootOpts))
	cmd.AddCommand(newCatalogImportCommand(rootOpts))
	return cmd
}

func newCatalogListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print both catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			rt, err := s.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close(rt)

			cats, err := rt.Service.Catalog(cmd.Context())
			if err != nil {
				return s.formatter.Error(err)
			}
			return s.formatter.Success(cats, func(w io.Writer) error {
				return printCatalogs(w, cats)
			})
		},
	}
}

func printCatalogs(w io.Writer, cats services.Catalogs) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTIVITY\tPOINTS")
	for _, n := range cats.Activities.Names() {
		fmt.Fprintf(tw, "%s\t%d\n", n, cats.Activities[n])
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "REWARD\tCOST")
	for _, n := range cats.Rewards.Names() {
		fmt.Fprintf(tw, "%s\t%d\n", n, cats.Rewards[n])
	}
	return tw.Flush()
}

type importResult struct {
	Activities int `json:"activities"`
	Rewards    int `json:"rewards"`
}

func newCatalogImportCommand(rootOpts *RootOptions) *cobra.Command {
	var activitiesPath, rewardsPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load catalog files into a database-backed store",
		Long: `Read catalog files (.json, .toml or .yaml) and upsert their entries
into the configured store. Only the sqlite, postgres and memory backends
accept imports; the file backend reads its catalog files directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			if activitiesPath == "" && rewardsPath == "" {
				return s.formatter.Error(&core.ValidationError{Field: "files", Reason: "pass --activities and/or --rewards"})
			}
			var acts, rews core.Catalog
			if activitiesPath != "" {
				if acts, err = file.LoadCatalogFile(activitiesPath); err != nil {
					return s.formatter.Error(err)
				}
			}
			if rewardsPath != "" {
				if rews, err = file.LoadCatalogFile(rewardsPath); err != nil {
					return s.formatter.Error(err)
				}
			}

			rt, err := s.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close(rt)

			importer := rt.Importer()
			if importer == nil {
				return s.formatter.Error(fmt.Errorf("%w: backend %q does not accept catalog imports", core.ErrConfiguration, s.cfg.DataBackend))
			}
			if err := importer.ImportCatalog(cmd.Context(), acts, rews); err != nil {
				return s.formatter.Error(err)
			}
			if _, err := rt.Service.ReloadCatalog(cmd.Context()); err != nil && !errors.Is(err, core.ErrConfiguration) {
				return s.formatter.Error(err)
			}
			res := importResult{Activities: len(acts), Rewards: len(rews)}
			return s.formatter.Success(res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Imported %d activities and %d rewards\n", res.Activities, res.Rewards)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&activitiesPath, "activities", "", "activities catalog file")
	cmd.Flags().StringVar(&rewardsPath, "rewards", "", "rewards catalog file")
	return cmd
}
