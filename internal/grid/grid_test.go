package grid

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekgrid/internal/calmath"
	"weekgrid/internal/model"
	"weekgrid/internal/viewport"
)

// Wednesday.
var now = time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
}

type fakeLoader struct {
	mu     sync.Mutex
	events map[calmath.Period][]model.Event
	fail   map[calmath.Period]error
	calls  []calmath.Period
}

func newFakeLoader(evs ...model.Event) *fakeLoader {
	l := &fakeLoader{
		events: make(map[calmath.Period][]model.Event),
		fail:   make(map[calmath.Period]error),
	}
	for _, ev := range evs {
		p := calmath.PeriodOf(ev.Start)
		l.events[p] = append(l.events[p], ev)
	}
	return l
}

func (l *fakeLoader) LoadPeriod(_ context.Context, p calmath.Period) ([]model.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, p)
	if err := l.fail[p]; err != nil {
		return nil, err
	}
	return l.events[p], nil
}

func (l *fakeLoader) Calls() []calmath.Period {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]calmath.Period(nil), l.calls...)
}

// newGrid returns a 3-day grid sized to 100px columns starting at x=48, a
// 40px header and 60px hours.
func newGrid(t *testing.T, loader Loader) *Grid {
	t.Helper()
	cfg := viewport.DefaultConfig()
	cfg.Location = time.UTC
	cfg.Now = func() time.Time { return now }

	g, err := New(cfg, loader)
	require.NoError(t, err)
	require.NoError(t, g.Resize(context.Background(), 348, 1000))
	return g
}

func period(y int, m time.Month) calmath.Period {
	return calmath.Period{Year: y, Month: m}
}

func TestSyncLoadsFetchRangeOnce(t *testing.T) {
	l := newFakeLoader()
	g := newGrid(t, l)

	assert.Equal(t, []calmath.Period{period(2023, 12), period(2024, 1), period(2024, 2)}, l.Calls())
	assert.Equal(t, []calmath.Period{period(2023, 12), period(2024, 1), period(2024, 2)}, g.Periods())

	require.NoError(t, g.Sync(context.Background()))
	require.NoError(t, g.Scroll(context.Background(), -100, 0))
	assert.Len(t, l.Calls(), 3, "no new month became current")
}

func TestScrollIntoNextMonthFetchesOnlyMissing(t *testing.T) {
	l := newFakeLoader()
	g := newGrid(t, l)

	// 25 days forward puts Feb 4 first.
	require.NoError(t, g.Scroll(context.Background(), -2500, 0))
	assert.True(t, calmath.SameDate(time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC), g.DateRange()[0].Date))
	assert.Equal(t, period(2024, 3), l.Calls()[len(l.Calls())-1])
	assert.Len(t, l.Calls(), 4)
}

func TestLoaderErrorReleasesPeriod(t *testing.T) {
	l := newFakeLoader()
	l.fail[period(2024, 2)] = errors.New("boom")

	cfg := viewport.DefaultConfig()
	cfg.Location = time.UTC
	cfg.Now = func() time.Time { return now }
	g, err := New(cfg, l)
	require.NoError(t, err)

	err = g.Resize(context.Background(), 348, 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-02")
	assert.Equal(t, []calmath.Period{period(2023, 12), period(2024, 1)}, g.Periods())

	require.Error(t, g.Sync(context.Background()))
	assert.Len(t, l.Calls(), 4, "only the failed period is asked for again")

	delete(l.fail, period(2024, 2))
	require.NoError(t, g.Sync(context.Background()))
	assert.Len(t, l.Calls(), 5)
	assert.Len(t, g.Periods(), 3)

	require.NoError(t, g.Sync(context.Background()))
	assert.Len(t, l.Calls(), 5)
}

func TestHandleClick(t *testing.T) {
	l := newFakeLoader(
		model.Event{ID: 1, Title: "standup", Start: at(10, 9), End: at(10, 10)},
		model.Event{ID: 2, Title: "holiday", Start: at(11, 0), End: at(12, 0), AllDay: true},
	)
	g := newGrid(t, l)

	t.Run("timed chip", func(t *testing.T) {
		res := g.HandleClick(100, 600)
		require.NotNil(t, res.Chip)
		assert.Equal(t, int64(1), res.Chip.EventID)
		assert.Nil(t, res.Time)

		ev, ok := g.Event(res.Chip.EventID)
		require.True(t, ok)
		assert.Equal(t, "standup", ev.Title)
	})

	t.Run("all-day chip in header", func(t *testing.T) {
		res := g.HandleClick(200, 10)
		require.NotNil(t, res.Chip)
		assert.Equal(t, int64(2), res.Chip.EventID)
	})

	t.Run("empty slot", func(t *testing.T) {
		res := g.HandleClick(100, 700)
		require.NotNil(t, res.Time)
		assert.Equal(t, at(10, 11), *res.Time)
	})

	t.Run("time column is ignored", func(t *testing.T) {
		assert.True(t, g.HandleClick(20, 600).Empty())
	})

	t.Run("empty header", func(t *testing.T) {
		assert.True(t, g.HandleClick(100, 10).Empty())
	})

	t.Run("long click", func(t *testing.T) {
		res := g.HandleLongClick(100, 600)
		require.NotNil(t, res.Chip)
		assert.Equal(t, int64(1), res.Chip.EventID)
	})
}

func TestMultiDayEventYieldsChipPerDay(t *testing.T) {
	l := newFakeLoader(model.Event{ID: 7, Start: at(10, 22), End: at(12, 2)})
	g := newGrid(t, l)

	visible := g.VisibleChips()
	require.Len(t, visible, 3)
	assert.False(t, visible[0].StartsOnEarlierDay())
	assert.True(t, visible[0].EndsOnLaterDay())
	assert.True(t, visible[1].StartsOnEarlierDay())
	assert.True(t, visible[1].EndsOnLaterDay())
	assert.True(t, visible[2].StartsOnEarlierDay())
	assert.False(t, visible[2].EndsOnLaterDay())

	events := g.VisibleEvents()
	require.Len(t, events, 1, "one event however many chips")
	assert.Equal(t, int64(7), events[0].ID)
}

func TestChipsOutsideRangeAreNotHit(t *testing.T) {
	l := newFakeLoader(model.Event{ID: 1, Start: at(20, 9), End: at(20, 10)})
	g := newGrid(t, l)

	assert.Empty(t, g.VisibleChips())
	res := g.HandleClick(100, 600)
	assert.Nil(t, res.Chip)
	assert.NotNil(t, res.Time)
}

func TestRefreshReplacesDeletedEvents(t *testing.T) {
	l := newFakeLoader(model.Event{ID: 1, Start: at(10, 9), End: at(10, 10)})
	g := newGrid(t, l)
	require.Len(t, g.VisibleChips(), 1)

	l.mu.Lock()
	l.events[period(2024, 1)] = nil
	l.mu.Unlock()

	require.NoError(t, g.Refresh(context.Background()))
	assert.Empty(t, g.VisibleChips())
	_, ok := g.Event(1)
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	g := newGrid(t, newFakeLoader())

	s := g.Snapshot()
	assert.Equal(t, 348.0, s.Width)
	assert.Equal(t, 100.0, s.DayWidth)
	assert.Equal(t, 60.0, s.HourHeight)
	require.Len(t, s.Dates, 3)
	assert.Equal(t, 48.0, s.Dates[0].StartPixel)
	assert.Equal(t, 248.0, s.Dates[2].StartPixel)
}

func TestZoom(t *testing.T) {
	g := newGrid(t, newFakeLoader())
	require.NoError(t, g.Zoom(context.Background(), 2))
	assert.Equal(t, 120.0, g.Snapshot().HourHeight)
}

func TestNodes(t *testing.T) {
	l := newFakeLoader(model.Event{ID: 1, Title: "standup", Start: at(10, 9), End: at(10, 10)})
	g := newGrid(t, l)

	nodes := g.Nodes()
	require.NotEmpty(t, nodes)
	assert.Equal(t, "standup", nodes[0].Label)
	assert.NotNil(t, nodes[0].Chip)

	again := g.Nodes()
	require.Len(t, again, len(nodes))
	for i := range nodes {
		assert.Equal(t, nodes[i].ID, again[i].ID)
	}

	res, ok := g.ActivateNode(nodes[0].ID)
	require.True(t, ok)
	assert.Equal(t, int64(1), res.Chip.EventID)

	last := nodes[len(nodes)-1]
	res, ok = g.ActivateNode(last.ID)
	require.True(t, ok)
	require.NotNil(t, res.Time)

	_, ok = g.ActivateNode(-1)
	assert.False(t, ok)
}

func TestNewRejectsNilLoader(t *testing.T) {
	_, err := New(viewport.DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestLoaderFunc(t *testing.T) {
	var got calmath.Period
	f := LoaderFunc(func(_ context.Context, p calmath.Period) ([]model.Event, error) {
		got = p
		return nil, nil
	})
	_, err := f.LoadPeriod(context.Background(), period(2024, 5))
	require.NoError(t, err)
	assert.Equal(t, period(2024, 5), got)
}
