package chips

import (
	"sync/atomic"
	"time"

	"weekgrid/internal/model"
)

// Rect is a pixel rectangle. Left/Top are inclusive, Right/Bottom exclusive.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

func (r Rect) IsEmpty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return !r.IsEmpty() && x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Chip is the part of an event that is drawn on a single day. It refers to
// its event by ID only; the full event lives in the events cache.
type Chip struct {
	// EventID identifies the original event.
	EventID int64

	// Event is the fragment: a copy of the original with Start/End clamped
	// to one day and the visible-hour window.
	Event model.Event

	OriginalStart time.Time
	OriginalEnd   time.Time

	bounds atomic.Pointer[Rect]
}

// New creates a chip for fragment cut from original.
func New(original, fragment model.Event) *Chip {
	return &Chip{
		EventID:       original.ID,
		Event:         fragment,
		OriginalStart: original.Start,
		OriginalEnd:   original.End,
	}
}

func (c *Chip) AllDay() bool { return c.Event.AllDay }

// StartsOnEarlierDay reports whether the event began on a previous day.
func (c *Chip) StartsOnEarlierDay() bool {
	return !c.Event.Start.Equal(c.OriginalStart)
}

// EndsOnLaterDay reports whether the event continues on a later day.
func (c *Chip) EndsOnLaterDay() bool {
	return !c.Event.End.Equal(c.OriginalEnd)
}

// Bounds returns the last rectangle set by the renderer, if any.
func (c *Chip) Bounds() (Rect, bool) {
	r := c.bounds.Load()
	if r == nil {
		return Rect{}, false
	}
	return *r, true
}

// SetBounds is called by the renderer after layout. Safe to call while
// another goroutine hit-tests.
func (c *Chip) SetBounds(r Rect) {
	c.bounds.Store(&r)
}

// SetEmpty invalidates the bounds until the next layout pass.
func (c *Chip) SetEmpty() {
	c.bounds.Store(nil)
}

// IsHit reports whether (x, y) lies within the chip's current bounds.
func (c *Chip) IsHit(x, y float64) bool {
	r, ok := c.Bounds()
	return ok && r.Contains(x, y)
}
