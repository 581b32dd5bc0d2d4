// Package calmath holds the date arithmetic shared by the grid components.
//
// A "date" throughout weekgrid is a time.Time at 00:00 in the location the
// grid runs in. Day differences are computed on the calendar (year, month,
// day) triple, never on elapsed hours, so DST transitions do not shift them.
package calmath

import (
	"errors"
	"fmt"
	"time"
)

// ErrTooManyVisibleDays is returned when a date range cannot fit between the
// configured min and max dates.
var ErrTooManyVisibleDays = errors.New("calmath: date range longer than min/max date span")

const day = 24 * time.Hour

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays moves d by n calendar days, keeping the wall clock.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b. It is
// negative when b is before a.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / day)
}

// DaysFromToday is DaysBetween(today, d).
func DaysFromToday(d, today time.Time) int {
	return DaysBetween(today, d)
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WithTimeAtStartOfPeriod returns t's date at hour:00:00.000.
func WithTimeAtStartOfPeriod(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}

// WithTimeAtEndOfPeriod returns t's date at (hour-1):59:59.999999, the last
// representable microsecond of a visible window ending at hour.
func WithTimeAtEndOfPeriod(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour-1, 59, 59, 999999000, t.Location())
}

// IsAtStartOfNextDay reports whether end is exactly midnight of the day
// following start's day.
func IsAtStartOfNextDay(end, start time.Time) bool {
	if !end.Equal(DateOf(end)) {
		return false
	}
	return SameDate(end.Add(-time.Nanosecond), start)
}

func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DifferenceWithFirstDayOfWeek returns how many days d lies after the most
// recent firstDayOfWeek (0 when d is that weekday).
func DifferenceWithFirstDayOfWeek(d time.Time, firstDayOfWeek time.Weekday) int {
	return (int(d.Weekday()) - int(firstDayOfWeek) + 7) % 7
}

// RangeWithDays returns days consecutive dates starting at start.
func RangeWithDays(start time.Time, days int) []time.Time {
	if days <= 0 {
		return nil
	}
	start = DateOf(start)
	out := make([]time.Time, days)
	for i := range out {
		out[i] = AddDays(start, i)
	}
	return out
}

// LimitTo shifts the contiguous range dates so that it lies within
// [minDate, maxDate]. A zero minDate or maxDate means unbounded. The length
// of the range is preserved; if it cannot fit, ErrTooManyVisibleDays is
// returned.
func LimitTo(dates []time.Time, minDate, maxDate time.Time) ([]time.Time, error) {
	if len(dates) == 0 || (minDate.IsZero() && maxDate.IsZero()) {
		return dates, nil
	}

	first := dates[0]
	last := dates[len(dates)-1]
	n := len(dates)

	adjustStart := !minDate.IsZero() && DaysBetween(minDate, first) < 0
	adjustEnd := !maxDate.IsZero() && DaysBetween(maxDate, last) > 0

	switch {
	case adjustStart && adjustEnd:
		return nil, fmt.Errorf("%w: can't render %d days", ErrTooManyVisibleDays, n)
	case adjustStart:
		return RangeWithDays(inLocation(minDate, first), n), nil
	case adjustEnd:
		return RangeWithDays(AddDays(inLocation(maxDate, first), -(n-1)), n), nil
	default:
		return dates, nil
	}
}

// inLocation re-anchors date d at midnight in ref's location.
func inLocation(d, ref time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, ref.Location())
}

// EpochDay returns the number of days between 1970-01-01 and d's date.
func EpochDay(d time.Time) int64 {
	return int64(DaysBetween(time.Unix(0, 0).UTC(), d))
}
