package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "weekgrid/internal/log"
	"weekgrid/internal/web"
)

func addServe(topLevel *cobra.Command, o *rootOptions) {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grid API and refresh calendars on a schedule.",
		Example: `
weekgrid serve
weekgrid serve --listen 0.0.0.0:8080
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.load(); err != nil {
				return err
			}
			if listen != "" {
				o.conf.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, loader, err := o.newGrid(ctx)
			if err != nil {
				return err
			}

			refresh := func(ctx context.Context) error {
				loader.Invalidate()
				return g.Refresh(ctx)
			}

			c := cron.New(cron.WithLocation(o.conf.Location()))
			if _, err := c.AddFunc(o.conf.RefreshCron, func() {
				appLog.Info("scheduled refresh")
				if err := refresh(ctx); err != nil {
					appLog.Error("scheduled refresh failed", err)
				}
			}); err != nil {
				return err
			}
			c.Start()
			defer func() {
				<-c.Stop().Done()
			}()

			err = web.NewServer(o.conf, g, refresh).ListenAndServe(ctx)
			appLog.Info("weekgrid exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set).")

	topLevel.AddCommand(cmd)
}
