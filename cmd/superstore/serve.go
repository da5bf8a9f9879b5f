package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"superstore/internal/server"
	"superstore/internal/watch"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			h := watch.NewHolder(s)
			defer func() { _ = h.Close() }()

			if a.cfg.Data.Watch {
				debounce, _ := a.cfg.DebounceDuration()
				w, err := watch.NewWatcher(a.cfg.Data.Path, h, a.logger, debounce)
				if err != nil {
					return err
				}
				if err := w.Start(ctx); err != nil {
					return err
				}
				defer w.Stop()
			}

			timeout, _ := a.cfg.ShutdownDuration()
			a.logger.Info("serving dashboard",
				zap.String("addr", a.cfg.Server.Addr),
				zap.String("data", a.cfg.Data.Path),
				zap.Bool("watch", a.cfg.Data.Watch),
			)
			return server.New(h, a.logger).ListenAndServe(ctx, a.cfg.Server.Addr, timeout)
		},
	}
	cmd.Flags().String("addr", "", "HTTP listen address (overrides server.addr)")
	cmd.Flags().Bool("watch", false, "reload the dataset when the file changes")
	return cmd
}
