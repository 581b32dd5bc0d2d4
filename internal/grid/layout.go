package grid

import (
	"math"
	"sort"

	"weekgrid/internal/chips"
	"weekgrid/internal/viewport"
)

// Layouter assigns pixel bounds to the chips of the visible range. It runs
// after every sync; chips it does not place must end up with empty bounds.
type Layouter interface {
	Layout(vp *viewport.State, index *chips.Index)
}

// ColumnLayout stacks all-day chips in the header and puts colliding timed
// chips side by side in equal-width columns.
type ColumnLayout struct {
	// AllDayRowHeight is the height of one all-day row in the header.
	AllDayRowHeight float64
	// Padding is removed from the right edge of every chip.
	Padding float64
}

func DefaultColumnLayout() ColumnLayout {
	return ColumnLayout{AllDayRowHeight: 20, Padding: 1}
}

func (l ColumnLayout) Layout(vp *viewport.State, index *chips.Index) {
	for _, c := range index.All() {
		c.SetEmpty()
	}

	dayWidth := vp.DayWidth()
	if dayWidth <= 0 {
		return
	}
	cfg := vp.Config()

	for _, d := range vp.DateRange() {
		left := d.StartPixel
		right := d.StartPixel + dayWidth

		for i, c := range index.AllDayByDate(d.Date) {
			top := float64(i) * l.AllDayRowHeight
			r := chips.Rect{
				Left:   math.Max(left, cfg.TimeColumnWidth),
				Top:    top,
				Right:  right - l.Padding,
				Bottom: math.Min(top+l.AllDayRowHeight, cfg.HeaderHeight),
			}
			place(c, r)
		}

		for _, group := range collisionGroups(index.TimedByDate(d.Date)) {
			colWidth := dayWidth / float64(len(group))
			for col, column := range group {
				for _, c := range column {
					x0 := left + float64(col)*colWidth
					r := chips.Rect{
						Left:   math.Max(x0, cfg.TimeColumnWidth),
						Top:    math.Max(vp.PixelYForTime(c.Event.Start), cfg.HeaderHeight),
						Right:  x0 + colWidth - l.Padding,
						Bottom: math.Min(vp.PixelYForTime(c.Event.End), vp.Height()),
					}
					place(c, r)
				}
			}
		}
	}
}

func place(c *chips.Chip, r chips.Rect) {
	if r.IsEmpty() {
		c.SetEmpty()
		return
	}
	c.SetBounds(r)
}

// collisionGroups partitions chips into groups of transitively colliding
// chips, each group split into columns of non-colliding chips.
func collisionGroups(in []*chips.Chip) [][][]*chips.Chip {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]*chips.Chip, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Event, sorted[j].Event
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.End.After(b.End)
	})

	var groups [][][]*chips.Chip
	var columns [][]*chips.Chip
	groupEnd := sorted[0].Event.End

	for _, c := range sorted {
		if len(columns) > 0 && !c.Event.Start.Before(groupEnd) {
			groups = append(groups, columns)
			columns = nil
		}
		if len(columns) == 0 || c.Event.End.After(groupEnd) {
			groupEnd = c.Event.End
		}

		placed := false
		for i, col := range columns {
			if !col[len(col)-1].Event.CollidesWith(c.Event) {
				columns[i] = append(col, c)
				placed = true
				break
			}
		}
		if !placed {
			columns = append(columns, []*chips.Chip{c})
		}
	}
	return append(groups, columns)
}
