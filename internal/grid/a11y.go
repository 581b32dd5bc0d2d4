package grid

import (
	"time"

	"weekgrid/internal/chips"
)

// Node is one virtual accessibility node: either a visible chip or an empty
// hour slot of a visible date.
type Node struct {
	ID     int         `json:"id"`
	Bounds chips.Rect  `json:"bounds"`
	Label  string      `json:"label"`
	Chip   *chips.Chip `json:"-"`
	Time   *time.Time  `json:"time,omitempty"`
}

// Nodes lists the virtual nodes of the visible range. Ids stay stable across
// calls for the same chip or hour slot.
func (g *Grid) Nodes() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []Node
	dates := g.vp.Dates()
	visible := g.index.QueryRange(dates)
	ids := g.nodes.PutChips(visible)
	for i, c := range visible {
		r, ok := c.Bounds()
		if !ok {
			continue
		}
		out = append(out, Node{ID: ids[i], Bounds: r, Label: c.Event.Title, Chip: c})
	}

	cfg := g.vp.Config()
	dayWidth := g.vp.DayWidth()
	for _, d := range g.vp.DateRange() {
		for _, h := range g.vp.DisplayedHours(1, true) {
			t := time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), h, 0, 0, 0, cfg.Location)
			top := g.vp.PixelYForTime(t)
			r := chips.Rect{
				Left:   max(d.StartPixel, cfg.TimeColumnWidth),
				Top:    max(top, cfg.HeaderHeight),
				Right:  d.StartPixel + dayWidth,
				Bottom: min(top+g.vp.HourHeight(), g.vp.Height()),
			}
			if r.IsEmpty() {
				continue
			}
			out = append(out, Node{
				ID:     g.nodes.PutDateTime(t),
				Bounds: r,
				Label:  t.Format("Mon Jan 2 15:04"),
				Time:   &t,
			})
		}
	}
	return out
}

// ActivateNode resolves a node id the way a tap on it would.
func (g *Grid) ActivateNode(id int) (ClickResult, bool) {
	if c, ok := g.nodes.FindChip(id); ok {
		return ClickResult{Chip: c}, true
	}
	if t, ok := g.nodes.FindDateTime(id); ok {
		return ClickResult{Time: &t}, true
	}
	return ClickResult{}, false
}
