// Package chips indexes per-day event fragments by date and resolves pixel
// hit tests against their rendered bounds.
package chips

import (
	"sort"
	"sync"
	"time"

	"weekgrid/internal/calmath"
	appLog "weekgrid/internal/log"
)

type partition map[int64][]*Chip

// Index keeps chips bucketed by the date of their fragment start, split into
// an all-day and a timed partition.
//
// Buckets are copy-on-write: a writer builds a new slice and swaps it in
// under the lock, so a reader holding an old slice keeps a complete list.
type Index struct {
	mu     sync.RWMutex
	timed  partition
	allDay partition
}

func NewIndex() *Index {
	return &Index{
		timed:  make(partition),
		allDay: make(partition),
	}
}

// Insert adds chips to the index. A chip replaces any chip already in the
// same bucket for the same event ID.
func (x *Index) Insert(chips []*Chip) {
	if len(chips) == 0 {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, c := range chips {
		key := calmath.EpochDay(c.Event.Start)
		if c.AllDay() {
			x.allDay.addOrReplace(key, c)
		} else {
			x.timed.addOrReplace(key, c)
		}
	}
}

func (p partition) addOrReplace(key int64, c *Chip) {
	old := p[key]
	next := make([]*Chip, len(old), len(old)+1)
	copy(next, old)

	for i, existing := range next {
		if existing.EventID == c.EventID {
			next[i] = c
			p[key] = next
			return
		}
	}
	p[key] = append(next, c)
}

// QueryRange returns, for each date in order, the all-day chips followed by
// the timed chips of that date.
func (x *Index) QueryRange(dates []time.Time) []*Chip {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []*Chip
	for _, d := range dates {
		key := calmath.EpochDay(d)
		out = append(out, x.allDay[key]...)
		out = append(out, x.timed[key]...)
	}
	return out
}

// AllDayInRange returns only the all-day chips of dates, in date order.
func (x *Index) AllDayInRange(dates []time.Time) []*Chip {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []*Chip
	for _, d := range dates {
		out = append(out, x.allDay[calmath.EpochDay(d)]...)
	}
	return out
}

// TimedByDate returns the timed chips of a single date. The slice must not
// be modified.
func (x *Index) TimedByDate(d time.Time) []*Chip {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.timed[calmath.EpochDay(d)]
}

// AllDayByDate returns the all-day chips of a single date. The slice must
// not be modified.
func (x *Index) AllDayByDate(d time.Time) []*Chip {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.allDay[calmath.EpochDay(d)]
}

// All returns every indexed chip, timed first.
func (x *Index) All() []*Chip {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []*Chip
	for _, p := range []partition{x.timed, x.allDay} {
		for _, bucket := range p {
			out = append(out, bucket...)
		}
	}
	return out
}

// HitTest returns the chip under (x, y), or nil. When an all-day chip and a
// timed chip overlap, the all-day chip wins.
func (x *Index) HitTest(px, py float64) *Chip {
	var candidates []*Chip
	for _, c := range x.All() {
		if c.IsHit(px, py) {
			candidates = append(candidates, c)
		}
	}

	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}

	// Map iteration order is random; sort so the answer is stable.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.AllDay() != b.AllDay() {
			return a.AllDay()
		}
		if !a.Event.Start.Equal(b.Event.Start) {
			return a.Event.Start.Before(b.Event.Start)
		}
		return a.EventID < b.EventID
	})

	if len(candidates) > 2 {
		appLog.Warn("chips: more than two chips overlap at hit point",
			"x", px, "y", py, "count", len(candidates))
	}
	return candidates[0]
}

// ClearTimedChips drops the timed partition. All-day chips are kept.
func (x *Index) ClearTimedChips() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.timed = make(partition)
}

// Clear drops every chip.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.timed = make(partition)
	x.allDay = make(partition)
}
