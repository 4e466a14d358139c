package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"puntos/internal/amqp"
	"puntos/internal/backend"
	"puntos/internal/cache"
	"puntos/internal/core"
	applog "puntos/internal/log"
	"puntos/internal/worker"
)

const (
	seenEventsSize = 10000
	seenEventsTTL  = 24 * time.Hour
	seenPrefix     = "puntos:mirror:seen:"
)

// NewEventsCommand groups the ledger event consumers.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Consume ledger events from the broker",
		Long: `Ledger events are published to AMQP_EXCHANGE whenever a record is
appended. These commands bind AMQP_QUEUE (or --queue) to that exchange.`,
	}
	cmd.AddCommand(newEventsTailCommand(rootOpts))
	cmd.AddCommand(newEventsMirrorCommand(rootOpts))
	return cmd
}

func newEventsTailCommand(rootOpts *RootOptions) *cobra.Command {
	var queue string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print ledger events as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			client, err := s.consumer(queue)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := GracefulShutdown(cmd.Context(), s.logger)
			defer stop()
			return s.consume(ctx, client, func(_ context.Context, ev *amqp.LedgerEvent) error {
				return s.formatter.Success(ev, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s %-16s %-8s %-20s %6d %s\n", ev.Date, ev.Type, ev.Person, ev.Name, ev.Points, ev.RecordID)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&queue, "queue", "", "queue to bind (default AMQP_QUEUE)")
	return cmd
}

func newEventsMirrorCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		queue  string
		target string
		dir    string
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Copy every ledger event into a second backend",
		Long: `Append each announced activity or redemption to another backend, for
example a spreadsheet kept alongside a sqlite ledger. Event IDs are
remembered so redelivered events are not mirrored twice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			if target == "" {
				return s.formatter.Error(&core.ValidationError{Field: "target", Reason: "--target is required"})
			}
			if target == s.cfg.DataBackend && dir == "" && dbPath == "" {
				return s.formatter.Error(&core.ValidationError{Field: "target", Reason: "mirroring into the primary backend would duplicate every record"})
			}

			mirrorCfg := *s.cfg
			mirrorCfg.DataBackend = target
			if dir != "" {
				mirrorCfg.DataDir = dir
			}
			if dbPath != "" {
				mirrorCfg.SQLiteDBPath = dbPath
			}
			bcfg, err := backend.FromAppConfig(&mirrorCfg)
			if err != nil {
				return s.formatter.Error(err)
			}
			res, err := backend.NewFactory(s.logger).CreateBackend(cmd.Context(), bcfg)
			if err != nil {
				return s.formatter.Error(err)
			}
			defer res.Close()

			seen, closeSeen, err := s.seenEvents()
			if err != nil {
				return s.formatter.Error(err)
			}
			defer closeSeen()

			client, err := s.consumer(queue)
			if err != nil {
				return err
			}
			defer client.Close()

			mirror := worker.NewMirrorWorker(res.Store, seen, s.logger)
			ctx, stop := GracefulShutdown(cmd.Context(), s.logger)
			defer stop()
			s.logger.Info("Mirroring ledger events", "target", target, "exchange", s.cfg.AMQPExchange)
			return s.consume(ctx, client, mirror.HandleEvent)
		},
	}
	cmd.Flags().StringVar(&queue, "queue", "", "queue to bind (default AMQP_QUEUE)")
	cmd.Flags().StringVar(&target, "target", "", "backend to mirror into (file|sqlite|postgres|sheets)")
	cmd.Flags().StringVar(&dir, "target-dir", "", "data directory for a file target")
	cmd.Flags().StringVar(&dbPath, "target-db", "", "database path for a sqlite target")
	return cmd
}

func (s *session) consumer(queue string) (*amqp.Client, error) {
	if s.cfg.AMQPURL == "" {
		return nil, s.formatter.Error(fmt.Errorf("%w: AMQP_URL is not set", core.ErrConfiguration))
	}
	if queue == "" {
		queue = s.cfg.AMQPQueue
	}
	client, err := amqp.NewClient(s.cfg.AMQPURL, s.cfg.AMQPExchange, queue)
	if err != nil {
		return nil, s.formatter.Error(err)
	}
	return client, nil
}

// seenEvents remembers mirrored event IDs in Redis when configured, so a
// restarted mirror keeps its memory, and in process otherwise.
func (s *session) seenEvents() (cache.Cache[string], func(), error) {
	if s.cfg.RedisURL == "" {
		return cache.NewLRUCache[string](seenEventsSize, seenEventsTTL), func() {}, nil
	}
	client, err := cache.Connect(s.cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	return cache.NewRedisCache[string](client, seenPrefix, seenEventsTTL), func() { _ = client.Close() }, nil
}

func (s *session) consume(ctx context.Context, client *amqp.Client, handler func(context.Context, *amqp.LedgerEvent) error) error {
	err := client.Consume(ctx, handler)
	if err == nil || errors.Is(err, context.Canceled) {
		s.logger.Info("Event consumer stopped")
		return nil
	}
	s.logger.Error("Event consumption failed", applog.FieldError, err.Error())
	return &ExitError{Code: ExitFailure, Message: "event consumption failed", Err: err}
}
