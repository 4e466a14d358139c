package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"puntos/internal/backend"
	"puntos/internal/config"
	applog "puntos/internal/log"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Backend string
	DataDir string
	Format  string // "json" | "text"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the puntos CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "puntos",
		Short: "Points dashboard for two people",
		Long: `puntos tracks activities that earn points and rewards that spend them,
for a fixed pair of people, and serves a small dashboard over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "data backend (file|sqlite|postgres|sheets|memory); overrides DATA_BACKEND")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory for the file backend; overrides DATA_DIR")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewRedeemCommand(opts))
	cmd.AddCommand(NewRecordsCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewRollupCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))

	return cmd
}

// session is what a command needs once config is loaded.
type session struct {
	cfg       *config.Config
	logger    *applog.Logger
	formatter *OutputFormatter
}

// newSession loads config and builds a logger. Command output goes to
// stdout; logs go to stderr so --format json stays parseable.
func newSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig(opts)
	if err != nil {
		return nil, formatter.Error(err)
	}
	logger := SetupLogger(cfg.LogLevel, cmd.ErrOrStderr())
	return &session{cfg: cfg, logger: logger, formatter: formatter}, nil
}

// openRuntime assembles the backend and points service for one command.
func (s *session) openRuntime(ctx context.Context) (*backend.Runtime, error) {
	rt, err := backend.NewRuntime(ctx, s.cfg, backend.RuntimeOptions{Logger: s.logger})
	if err != nil {
		return nil, s.formatter.Error(err)
	}
	return rt, nil
}

func (s *session) close(rt *backend.Runtime) {
	if err := rt.Close(); err != nil {
		s.logger.Warn("Failed to close runtime", applog.FieldError, err.Error())
	}
}
