// Package splitter cuts events into per-day chips clamped to the visible
// hour window.
package splitter

import (
	"sort"

	"weekgrid/internal/calmath"
	"weekgrid/internal/chips"
	"weekgrid/internal/model"
)

// Split returns one chip per calendar day that ev touches, sorted by
// (start, end). Events with start >= end yield no chips.
func Split(ev model.Event, minHour, maxHour int) []*chips.Chip {
	frags := Fragments(ev, minHour, maxHour)
	out := make([]*chips.Chip, 0, len(frags))
	for _, f := range frags {
		out = append(out, chips.New(ev, f))
	}
	return out
}

// SplitAll splits every event in events.
func SplitAll(events []model.Event, minHour, maxHour int) []*chips.Chip {
	var out []*chips.Chip
	for _, ev := range events {
		out = append(out, Split(ev, minHour, maxHour)...)
	}
	return out
}

// Fragments is Split without the chip wrapping.
func Fragments(ev model.Event, minHour, maxHour int) []model.Event {
	if !ev.Start.Before(ev.End) {
		return nil
	}

	var out []model.Event
	switch {
	case minHour == 0 && calmath.IsAtStartOfNextDay(ev.End, ev.Start):
		// An event ending exactly at the next midnight stays on its start day.
		out = []model.Event{ev.WithTimes(ev.Start, calmath.WithTimeAtEndOfPeriod(ev.Start, maxHour))}
	case !ev.IsMultiDay():
		return []model.Event{ev}
	default:
		first := ev.WithTimes(ev.Start, calmath.WithTimeAtEndOfPeriod(ev.Start, maxHour))
		last := ev.WithTimes(calmath.WithTimeAtStartOfPeriod(ev.End, minHour), ev.End)
		out = []model.Event{first, last}

		for d := calmath.AddDays(calmath.DateOf(ev.Start), 1); calmath.DaysBetween(d, ev.End) > 0; d = calmath.AddDays(d, 1) {
			out = append(out, ev.WithTimes(
				calmath.WithTimeAtStartOfPeriod(d, minHour),
				calmath.WithTimeAtEndOfPeriod(d, maxHour),
			))
		}
	}

	// A piece that starts after maxHour or ends before minHour is empty once
	// clamped.
	kept := out[:0]
	for _, f := range out {
		if f.Start.Before(f.End) {
			kept = append(kept, f)
		}
	}
	out = kept

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].End.Before(out[j].End)
	})
	return out
}
