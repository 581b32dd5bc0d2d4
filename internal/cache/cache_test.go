package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekgrid/internal/calmath"
	"weekgrid/internal/model"
)

var (
	dec = calmath.Period{Year: 2023, Month: time.December}
	jan = calmath.Period{Year: 2024, Month: time.January}
	feb = calmath.Period{Year: 2024, Month: time.February}
)

func ev(id int64, month time.Month, day int) model.Event {
	start := time.Date(2024, month, day, 9, 0, 0, 0, time.UTC)
	return model.Event{ID: id, Start: start, End: start.Add(time.Hour)}
}

func TestNewFetchRange(t *testing.T) {
	r := NewFetchRange(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, FetchRange{Previous: dec, Current: jan, Next: feb}, r)
	assert.Equal(t, []calmath.Period{dec, jan, feb}, r.Periods())
}

func TestDeterminePeriodsToFetch(t *testing.T) {
	c := NewPagedCache()
	r := FetchRange{Previous: dec, Current: jan, Next: feb}
	assert.Equal(t, []calmath.Period{dec, jan, feb}, c.DeterminePeriodsToFetch(r))

	c.Reserve(jan)
	assert.Equal(t, []calmath.Period{dec, feb}, c.DeterminePeriodsToFetch(r))
	assert.True(t, c.Contains(jan))
	assert.False(t, c.ContainsRange(r))

	c.Update([]model.Event{ev(1, time.February, 3)})
	assert.Equal(t, []calmath.Period{dec}, c.DeterminePeriodsToFetch(r))

	c.Reserve(dec)
	assert.Empty(t, c.DeterminePeriodsToFetch(r))
	assert.True(t, c.ContainsRange(r))

	c.Release(dec)
	assert.Equal(t, []calmath.Period{dec}, c.DeterminePeriodsToFetch(r))
}

func TestUpdateReplacesBucket(t *testing.T) {
	c := NewPagedCache()
	c.Update([]model.Event{ev(1, time.January, 3), ev(2, time.January, 4), ev(3, time.February, 1)})
	require.Len(t, c.EventsIn(jan), 2)

	c.Update([]model.Event{ev(4, time.January, 10)})
	jans := c.EventsIn(jan)
	require.Len(t, jans, 1)
	assert.Equal(t, int64(4), jans[0].ID)
	assert.Len(t, c.EventsIn(feb), 1, "other periods untouched")
	assert.Equal(t, []calmath.Period{jan, feb}, c.Periods())
}

func TestEmptySnapshotClearsPeriod(t *testing.T) {
	c := NewPagedCache()
	c.Update([]model.Event{ev(1, time.January, 3), ev(2, time.February, 1)})

	c.ReplacePeriod(jan, nil)
	assert.True(t, c.Contains(jan))
	for _, e := range c.AllEvents() {
		assert.NotEqual(t, int64(1), e.ID)
	}
	assert.Len(t, c.AllEvents(), 1)

	t.Run("reserve drops prior events", func(t *testing.T) {
		c.Reserve(feb)
		assert.Empty(t, c.AllEvents())
		assert.True(t, c.Contains(feb))
	})
}

func TestReplacePeriodFilesForeignEvents(t *testing.T) {
	c := NewPagedCache()
	c.ReplacePeriod(jan, []model.Event{ev(1, time.January, 3), ev(2, time.February, 1)})
	assert.Len(t, c.EventsIn(jan), 1)
	assert.Len(t, c.EventsIn(feb), 1)
}

func TestLookups(t *testing.T) {
	c := NewPagedCache()
	multi := model.Event{
		ID:    5,
		Start: time.Date(2024, 1, 30, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 2, 9, 0, 0, 0, time.UTC),
	}
	c.Update([]model.Event{ev(1, time.January, 3), multi, ev(3, time.March, 20)})

	got, ok := Get(c, 5)
	require.True(t, ok)
	assert.Equal(t, multi, got)
	_, ok = Get(c, 42)
	assert.False(t, ok)

	dates := calmath.RangeWithDays(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 3)
	inRange := InDateRange(c, dates)
	require.Len(t, inRange, 1)
	assert.Equal(t, int64(5), inRange[0].ID)

	r := FetchRange{Previous: dec, Current: jan, Next: feb}
	assert.Len(t, InFetchRange(c, r, time.UTC), 2)
}

func TestClear(t *testing.T) {
	c := NewPagedCache()
	c.Update([]model.Event{ev(1, time.January, 3)})
	c.Clear()
	assert.Empty(t, c.AllEvents())
	assert.False(t, c.Contains(jan))
}
