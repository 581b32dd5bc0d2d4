// Package cache holds resolved events between data-source fetches.
package cache

import (
	"sort"
	"sync"
	"time"

	"weekgrid/internal/calmath"
	appLog "weekgrid/internal/log"
	"weekgrid/internal/model"
)

// FetchRange is the three-month window kept resident around the first
// visible date.
type FetchRange struct {
	Previous calmath.Period
	Current  calmath.Period
	Next     calmath.Period
}

// NewFetchRange builds the window around firstVisibleDate's month.
func NewFetchRange(firstVisibleDate time.Time) FetchRange {
	p := calmath.PeriodOf(firstVisibleDate)
	return FetchRange{Previous: p.Add(-1), Current: p, Next: p.Add(1)}
}

func (r FetchRange) Periods() []calmath.Period {
	return []calmath.Period{r.Previous, r.Current, r.Next}
}

// EventsCache is the read/replace surface the lookup helpers work on.
type EventsCache interface {
	AllEvents() []model.Event
	Update(events []model.Event)
	Clear()
}

// Get returns the event with the given id.
func Get(c EventsCache, id int64) (model.Event, bool) {
	for _, ev := range c.AllEvents() {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

// InDateRange returns events that overlap the dates [first, last] of dates.
func InDateRange(c EventsCache, dates []time.Time) []model.Event {
	if len(dates) == 0 {
		return nil
	}
	first, last := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return overlapping(c.AllEvents(), first, last)
}

// InFetchRange returns events that overlap the dates covered by r.
func InFetchRange(c EventsCache, r FetchRange, loc *time.Location) []model.Event {
	return overlapping(c.AllEvents(), r.Previous.StartDate(loc), r.Next.EndDate(loc))
}

func overlapping(events []model.Event, first, last time.Time) []model.Event {
	var out []model.Event
	for _, ev := range events {
		if calmath.DaysBetween(first, ev.End) >= 0 && calmath.DaysBetween(ev.Start, last) >= 0 {
			out = append(out, ev)
		}
	}
	return out
}

// PagedCache keeps events in one bucket per month, keyed by the month their
// start falls in. Buckets are replaced whole; a reader always observes
// either the old or the new list of a bucket.
type PagedCache struct {
	mu       sync.RWMutex
	byPeriod map[calmath.Period][]model.Event
}

func NewPagedCache() *PagedCache {
	return &PagedCache{byPeriod: make(map[calmath.Period][]model.Event)}
}

// AllEvents returns every cached event ordered by period.
func (c *PagedCache) AllEvents() []model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []model.Event
	for _, p := range c.periodsLocked() {
		out = append(out, c.byPeriod[p]...)
	}
	return out
}

// Periods lists the cached periods in ascending order.
func (c *PagedCache) Periods() []calmath.Period {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.periodsLocked()
}

func (c *PagedCache) periodsLocked() []calmath.Period {
	out := make([]calmath.Period, 0, len(c.byPeriod))
	for p := range c.byPeriod {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// EventsIn returns the bucket for p.
func (c *PagedCache) EventsIn(p calmath.Period) []model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byPeriod[p]
}

// Update groups events by the period of their start and replaces each of
// those buckets. Periods not represented in events are left alone.
func (c *PagedCache) Update(events []model.Event) {
	grouped := make(map[calmath.Period][]model.Event)
	for _, ev := range events {
		p := calmath.PeriodOf(ev.Start)
		grouped[p] = append(grouped[p], ev)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for p, evs := range grouped {
		c.byPeriod[p] = evs
		appLog.Debug("cache: period updated", "period", p, "events", len(evs))
	}
}

// ReplacePeriod stores events as the complete content of p. Unlike Update,
// an empty slice still clears the bucket, which is how a data source reports
// that every event of a month was deleted. Events whose start falls outside
// p are filed under their own period.
func (c *PagedCache) ReplacePeriod(p calmath.Period, events []model.Event) {
	own := make([]model.Event, 0, len(events))
	var foreign []model.Event
	for _, ev := range events {
		if p.Contains(ev.Start) {
			own = append(own, ev)
		} else {
			foreign = append(foreign, ev)
		}
	}

	c.mu.Lock()
	c.byPeriod[p] = own
	c.mu.Unlock()
	appLog.Debug("cache: period replaced", "period", p, "events", len(own))

	if len(foreign) > 0 {
		c.Update(foreign)
	}
}

// Reserve marks p as present with no events so that it is not requested
// again while its fetch is in flight.
func (c *PagedCache) Reserve(p calmath.Period) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byPeriod[p] = []model.Event{}
	appLog.Debug("cache: period reserved", "period", p)
}

// Release forgets p, so that the next DeterminePeriodsToFetch asks for it
// again.
func (c *PagedCache) Release(p calmath.Period) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byPeriod, p)
}

// Contains reports whether p is cached or reserved.
func (c *PagedCache) Contains(p calmath.Period) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byPeriod[p]
	return ok
}

// ContainsRange reports whether every period of r is present.
func (c *PagedCache) ContainsRange(r FetchRange) bool {
	for _, p := range r.Periods() {
		if !c.Contains(p) {
			return false
		}
	}
	return true
}

// DeterminePeriodsToFetch returns the periods of r that are neither cached
// nor reserved, in previous/current/next order.
func (c *PagedCache) DeterminePeriodsToFetch(r FetchRange) []calmath.Period {
	var out []calmath.Period
	for _, p := range r.Periods() {
		if !c.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

func (c *PagedCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byPeriod = make(map[calmath.Period][]model.Event)
}
