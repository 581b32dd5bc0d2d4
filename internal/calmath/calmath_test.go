package calmath

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(date(2024, 1, 1), date(2024, 1, 1)))
	assert.Equal(t, 31, DaysBetween(date(2024, 1, 1), date(2024, 2, 1)))
	assert.Equal(t, -1, DaysBetween(date(2024, 3, 1), date(2024, 2, 29)))

	t.Run("ignores DST shifts", func(t *testing.T) {
		loc, err := time.LoadLocation("Europe/Berlin")
		if err != nil {
			t.Skip("tzdata unavailable")
		}
		a := time.Date(2024, 3, 30, 23, 0, 0, 0, loc)
		b := time.Date(2024, 3, 31, 23, 0, 0, 0, loc)
		assert.Equal(t, 1, DaysBetween(a, b))
	})
}

func TestPeriodBoundaries(t *testing.T) {
	p := Period{Year: 2024, Month: time.February}
	assert.Equal(t, date(2024, 2, 1), p.StartDate(time.UTC))
	assert.Equal(t, date(2024, 2, 29), p.EndDate(time.UTC))
	assert.Equal(t, Period{Year: 2023, Month: time.December}, Period{Year: 2024, Month: time.January}.Add(-1))
	assert.Equal(t, Period{Year: 2025, Month: time.January}, Period{Year: 2024, Month: time.December}.Add(1))
	assert.Equal(t, "2024-02", p.String())
	assert.True(t, p.Before(p.Add(1)))
	assert.True(t, p.Contains(time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)))
}

func TestEndOfPeriod(t *testing.T) {
	ts := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 23, 59, 59, 999999000, time.UTC), WithTimeAtEndOfPeriod(ts, 24))
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), WithTimeAtStartOfPeriod(ts, 8))
}

func TestIsAtStartOfNextDay(t *testing.T) {
	start := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	assert.True(t, IsAtStartOfNextDay(date(2024, 1, 2), start))
	assert.False(t, IsAtStartOfNextDay(date(2024, 1, 3), start))
	assert.False(t, IsAtStartOfNextDay(time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC), start))
}

func TestWeekHelpers(t *testing.T) {
	sat := date(2024, 1, 6)
	assert.True(t, IsWeekend(sat))
	assert.False(t, IsWeekend(date(2024, 1, 8)))
	assert.Equal(t, 5, DifferenceWithFirstDayOfWeek(sat, time.Monday))
	assert.Equal(t, 6, DifferenceWithFirstDayOfWeek(sat, time.Sunday))
	assert.Equal(t, 0, DifferenceWithFirstDayOfWeek(date(2024, 1, 8), time.Monday))
}

func TestLimitTo(t *testing.T) {
	r := RangeWithDays(date(2024, 1, 1), 3)

	t.Run("unbounded returns input", func(t *testing.T) {
		out, err := LimitTo(r, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, r, out)
	})

	t.Run("shifts forward to min date", func(t *testing.T) {
		out, err := LimitTo(r, date(2024, 1, 2), time.Time{})
		require.NoError(t, err)
		assert.Equal(t, RangeWithDays(date(2024, 1, 2), 3), out)
	})

	t.Run("shifts back to max date", func(t *testing.T) {
		out, err := LimitTo(r, time.Time{}, date(2024, 1, 2))
		require.NoError(t, err)
		assert.Equal(t, RangeWithDays(date(2023, 12, 31), 3), out)
	})

	t.Run("range longer than bounds", func(t *testing.T) {
		_, err := LimitTo(RangeWithDays(date(2023, 12, 31), 5), date(2024, 1, 1), date(2024, 1, 2))
		assert.True(t, errors.Is(err, ErrTooManyVisibleDays))
	})
}

func TestEpochDay(t *testing.T) {
	assert.Equal(t, int64(0), EpochDay(date(1970, 1, 1)))
	assert.Equal(t, int64(19723), EpochDay(time.Date(2024, 1, 1, 23, 30, 0, 0, time.FixedZone("x", 3600))))
}
