package main

import (
	"context"
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"weekgrid/internal/config"
	"weekgrid/internal/grid"
	"weekgrid/internal/ics"
	appLog "weekgrid/internal/log"
)

const defaultConfigPath = "~/.config/weekgrid/config.yaml"

type rootOptions struct {
	configPath string
	logLevel   string

	conf *config.Config
}

func newRootCommand() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "weekgrid",
		Short:        "Scrollable multi-day calendar grid over ICS feeds.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&o.configPath, "config", defaultConfigPath, "Path to config file.")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "Overrides log_level from the config file.")

	addServe(cmd, o)
	addRange(cmd, o)
	addHit(cmd, o)
	addVersion(cmd)
	return cmd
}

// load reads, normalizes and validates the config file. A missing file is
// created with defaults.
func (o *rootOptions) load() error {
	path, err := homedir.Expand(o.configPath)
	if err != nil {
		return fmt.Errorf("expand config path: %w", err)
	}
	conf, err := config.Load(path)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", path)
		return err
	}

	level := conf.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))

	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", path)
		return err
	}
	o.conf = conf

	appLog.Info("effective config",
		"config_path", path,
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"visible_days", conf.Grid.VisibleDays,
		"ics_count", len(conf.ICS),
	)
	return nil
}

// newGrid builds the ICS loader and a grid sized from the config. A load
// error for some month is logged, not returned; the grid is still usable.
func (o *rootOptions) newGrid(ctx context.Context) (*grid.Grid, *ics.PeriodLoader, error) {
	vc, err := o.conf.Viewport()
	if err != nil {
		return nil, nil, err
	}

	sources := make([]ics.Source, 0, len(o.conf.ICS))
	for _, src := range o.conf.ICS {
		url, err := homedir.Expand(src.URL)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, ics.Source{ID: src.SourceID(), URL: url})
	}

	cacheDir, err := homedir.Expand(o.conf.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	loader := ics.NewPeriodLoader(ics.NewFetcher(cacheDir), sources, vc.Location)

	g, err := grid.New(vc, loader)
	if err != nil {
		return nil, nil, err
	}
	if err := g.Resize(ctx, o.conf.Grid.Width, o.conf.Grid.Height); err != nil {
		appLog.Error("initial load incomplete", err)
	}
	return g, loader, nil
}
