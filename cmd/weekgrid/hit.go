package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func addHit(topLevel *cobra.Command, o *rootOptions) {
	var x, y float64
	so := &scrollOptions{}

	cmd := &cobra.Command{
		Use:   "hit",
		Short: "Print the event or time slot under a pixel.",
		Example: `
weekgrid hit --x 120 --y 400
weekgrid hit --x 120 --y 400 --scroll-days -7
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

			res := g.HandleClick(x, y)
			bold := color.New(color.Bold)
			switch {
			case res.Chip != nil:
				ev, ok := g.Event(res.Chip.EventID)
				if !ok {
					ev = res.Chip.Event
				}
				_, _ = fmt.Fprintf(color.Output, "%s %s\n", bold.Sprint("event:"), ev.Title)
				_, _ = fmt.Fprintf(color.Output, "%s %s - %s\n", bold.Sprint("when: "),
					ev.Start.Format(time.DateTime), ev.End.Format(time.DateTime))
				if ev.Location != "" {
					_, _ = fmt.Fprintf(color.Output, "%s %s\n", bold.Sprint("where:"), ev.Location)
				}
			case res.Time != nil:
				_, _ = fmt.Fprintf(color.Output, "%s %s\n", bold.Sprint("free slot:"), res.Time.Format("2006-01-02 15:04"))
			default:
				_, _ = fmt.Fprintln(color.Output, "nothing here")
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "X pixel.")
	cmd.Flags().Float64Var(&y, "y", 0, "Y pixel.")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	so.addFlags(cmd)

	topLevel.AddCommand(cmd)
}
