package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	apphttp "puntos/internal/http"
	applog "puntos/internal/log"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts, port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port; overrides PORT")
	return cmd
}

func runServe(cmd *cobra.Command, opts *RootOptions, port string) error {
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	if port != "" {
		s.cfg.Port = port
		if err := s.cfg.Validate(); err != nil {
			return s.formatter.Error(err)
		}
	}

	ctx, stop := GracefulShutdown(cmd.Context(), s.logger)
	defer stop()

	rt, err := s.openRuntime(ctx)
	if err != nil {
		return err
	}
	defer s.close(rt)

	srv, err := apphttp.NewServer(":"+s.cfg.Port, apphttp.Deps{
		Service: rt.Service,
		Ready:   rt.Ready,
		Metrics: rt.Metrics,
		Logger:  s.logger,
	})
	if err != nil {
		return s.formatter.Error(err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting puntos server", applog.FieldOperation, applog.OpStartup, "port", s.cfg.Port, "backend", s.cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("Server error", applog.FieldError, err.Error(), "port", s.cfg.Port)
			return &ExitError{Code: ExitFailure, Message: "server failed", Err: err}
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Server shutdown error", applog.FieldError, err.Error())
		return &ExitError{Code: ExitFailure, Message: "shutdown failed", Err: err}
	}
	s.logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
	return nil
}
