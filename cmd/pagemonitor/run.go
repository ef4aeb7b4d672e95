package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/pagemonitor/internal/monitor"

	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll every target, now and then once per check interval.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app.logLastCycle(ctx)
			stopMetrics := app.serveMetrics()
			defer stopMetrics()

			scheduler := monitor.NewScheduler(
				app.service,
				app.loadTargets,
				app.cfg.MonitorConfig.CheckInterval(),
				app.cfg.MonitorConfig.MaxCycles,
				app.logger,
			)

			if once {
				err = scheduler.RunOnce(ctx)
			} else {
				err = scheduler.Run(ctx)
			}
			if err != nil && ctx.Err() == nil {
				app.logger.Error().Err(err).Msg("Monitor stopped with an error")
				return err
			}
			if ctx.Err() == context.Canceled {
				app.logger.Info().Msg("Application shutting down due to context cancellation.")
			} else {
				app.logger.Info().Msg("Application finished.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run a single cycle and exit")
	return cmd
}
