package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"weekgrid/internal/calmath"
	"weekgrid/internal/grid"
)

type scrollOptions struct {
	days int
	date string
}

func (s *scrollOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&s.days, "scroll-days", 0, "Scroll this many days forward (negative for back) before printing.")
	cmd.Flags().StringVar(&s.date, "date", "", "Scroll to this date (YYYY-MM-DD) before printing.")
}

func (s *scrollOptions) apply(ctx context.Context, g *grid.Grid, loc *time.Location) error {
	if s.date != "" {
		d, err := time.ParseInLocation(time.DateOnly, s.date, loc)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		if err := g.ScrollToDate(ctx, d); err != nil {
			return err
		}
	}
	if s.days != 0 {
		return g.Scroll(ctx, -float64(s.days)*g.Snapshot().DayWidth, 0)
	}
	return nil
}

func addRange(topLevel *cobra.Command, o *rootOptions) {
	so := &scrollOptions{}

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Print the visible dates and their events.",
		Example: `
weekgrid range
weekgrid range --scroll-days 7
weekgrid range --date 2024-12-23
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.load(); err != nil {
				return err
			}
			ctx := cmd.Context()
			g, _, err := o.newGrid(ctx)
			if err != nil {
				return err
			}
			if err := so.apply(ctx, g, o.conf.Location()); err != nil {
				return err
			}
			printRange(g, time.Now().In(o.conf.Location()))
			return nil
		},
	}
	so.addFlags(cmd)

	topLevel.AddCommand(cmd)
}

func printRange(g *grid.Grid, now time.Time) {
	bold := color.New(color.Bold)
	today := color.New(color.Bold, color.FgHiGreen)
	weekend := color.New(color.Faint)

	visible := g.VisibleChips()

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(bold.Sprint("Date"), bold.Sprint("Day"), bold.Sprint("X"), bold.Sprint("Events"))
	for _, d := range g.DateRange() {
		c := color.New()
		switch {
		case calmath.SameDate(d.Date, now):
			c = today
		case calmath.IsWeekend(d.Date):
			c = weekend
		}

		var titles []string
		for _, ch := range visible {
			if calmath.SameDate(ch.Event.Start, d.Date) {
				titles = append(titles, chipLabel(ch.Event.Title, ch.AllDay(), ch.Event.Start))
			}
		}
		tbl.AddRow(
			c.Sprint(d.Date.Format(time.DateOnly)),
			c.Sprint(d.Date.Weekday().String()[:3]),
			fmt.Sprintf("%.0f", d.StartPixel),
			fmt.Sprint(titles),
		)
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
}

func chipLabel(title string, allDay bool, start time.Time) string {
	if allDay {
		return title
	}
	return start.Format("15:04") + " " + title
}
