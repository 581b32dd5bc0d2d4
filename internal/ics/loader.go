package ics

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"weekgrid/internal/calmath"
	appLog "weekgrid/internal/log"
	"weekgrid/internal/model"
)

const defaultParseTTL = 30 * time.Second

// PeriodLoader serves one month of events at a time from a set of ICS
// sources. Fetching and parsing happen at most once per TTL; each period
// request only expands recurrences for its own month.
type PeriodLoader struct {
	fetcher *Fetcher
	sources []Source
	loc     *time.Location

	// TTL of the parsed feed. Zero means 30s.
	TTL time.Duration
	// Now is injectable for tests.
	Now func() time.Time

	mu       sync.Mutex
	parsed   []ParsedEvent
	parsedAt time.Time
}

// NewPeriodLoader returns a loader that expands events into loc.
func NewPeriodLoader(fetcher *Fetcher, sources []Source, loc *time.Location) *PeriodLoader {
	if loc == nil {
		loc = time.Local
	}
	return &PeriodLoader{
		fetcher: fetcher,
		sources: sources,
		loc:     loc,
		Now:     time.Now,
	}
}

// Invalidate forces the next LoadPeriod to refetch every source.
func (l *PeriodLoader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.parsed = nil
	l.parsedAt = time.Time{}
}

// LoadPeriod returns every occurrence starting in period. A source that
// fails is skipped; the call fails only when every source failed.
func (l *PeriodLoader) LoadPeriod(ctx context.Context, period calmath.Period) ([]model.Event, error) {
	parsed, err := l.parsedEvents(ctx)
	if err != nil {
		return nil, err
	}

	res, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation: l.loc,
		RangeStart:      period.StartDate(l.loc),
		RangeEnd:        period.Add(1).StartDate(l.loc),
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(res.Occurrences))
	for _, occ := range res.Occurrences {
		if !period.Contains(occ.Start) {
			continue
		}
		out = append(out, ToEvent(occ))
	}
	appLog.Debug("ics: period loaded", "period", period, "events", len(out))
	return out, nil
}

func (l *PeriodLoader) parsedEvents(ctx context.Context) ([]ParsedEvent, error) {
	ttl := l.TTL
	if ttl <= 0 {
		ttl = defaultParseTTL
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.parsed != nil && l.Now().Sub(l.parsedAt) < ttl {
		return l.parsed, nil
	}

	results, fetchErrs := l.fetcher.FetchAll(ctx, l.sources)
	if len(results) == 0 && len(fetchErrs) > 0 {
		return nil, errors.Join(fetchErrs...)
	}

	parsed := make([]ParsedEvent, 0)
	for _, res := range results {
		events, err := ParseICS(res.Source, res.Body, l.loc)
		if err != nil {
			appLog.Error("ics: parse failed for source", err, "id", res.Source.ID)
			continue
		}
		parsed = append(parsed, events...)
	}

	l.parsed = parsed
	l.parsedAt = l.Now()
	return parsed, nil
}

// ToEvent converts an occurrence into a grid event. The ID is a hash of
// source, UID and instance so it is stable across refetches.
func ToEvent(occ model.Occurrence) model.Event {
	return model.Event{
		ID:       EventID(occ),
		Start:    occ.Start,
		End:      occ.End,
		AllDay:   occ.AllDay,
		Title:    occ.Summary,
		Location: occ.Location,
		Style:    model.Style{BackgroundColor: occ.Color},
		Payload:  occ,
	}
}

func EventID(occ model.Occurrence) int64 {
	h := fnv.New64a()
	h.Write([]byte(occ.SourceID))
	h.Write([]byte{0})
	h.Write([]byte(occ.UID))
	h.Write([]byte{0})
	h.Write([]byte(occ.InstanceKey))
	return int64(h.Sum64() &^ (1 << 63))
}
