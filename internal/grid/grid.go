// Package grid drives one scrollable calendar grid: it owns the viewport,
// the period-paged event cache and the chip index, fetches missing months
// through a Loader and places chips with a Layouter.
package grid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"weekgrid/internal/cache"
	"weekgrid/internal/calmath"
	"weekgrid/internal/chips"
	appLog "weekgrid/internal/log"
	"weekgrid/internal/model"
	"weekgrid/internal/splitter"
	"weekgrid/internal/viewport"
)

// Loader returns the complete set of events whose start falls in period.
// An empty result means the period has no events.
type Loader interface {
	LoadPeriod(ctx context.Context, period calmath.Period) ([]model.Event, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, period calmath.Period) ([]model.Event, error)

func (f LoaderFunc) LoadPeriod(ctx context.Context, period calmath.Period) ([]model.Event, error) {
	return f(ctx, period)
}

// ClickResult is what a tap resolved to. At most one field is set.
type ClickResult struct {
	Chip *chips.Chip
	Time *time.Time
}

// Empty reports whether the tap hit nothing.
func (r ClickResult) Empty() bool { return r.Chip == nil && r.Time == nil }

// Snapshot is a read-only copy of the viewport.
type Snapshot struct {
	Width      float64               `json:"width"`
	Height     float64               `json:"height"`
	OriginX    float64               `json:"origin_x"`
	OriginY    float64               `json:"origin_y"`
	HourHeight float64               `json:"hour_height"`
	DayWidth   float64               `json:"day_width"`
	Dates      []viewport.DateOffset `json:"dates"`
}

// Grid serializes all mutation and viewport reads behind mu, so queries
// wait for a running sync. The cache and the index carry their own locks;
// Event and Periods read the cache without taking mu.
type Grid struct {
	mu sync.Mutex

	vp     *viewport.State
	events *cache.PagedCache
	index  *chips.Index
	nodes  *chips.VirtualIDStore

	loader   Loader
	layouter Layouter

	fetchRange *cache.FetchRange
}

// Option configures a Grid.
type Option func(*Grid)

// WithLayouter replaces the default ColumnLayout.
func WithLayouter(l Layouter) Option {
	return func(g *Grid) { g.layouter = l }
}

// New builds a Grid. The grid is unsized until Resize is called.
func New(cfg viewport.Config, loader Loader, opts ...Option) (*Grid, error) {
	if loader == nil {
		return nil, errors.New("grid: loader is nil")
	}
	vp, err := viewport.New(cfg)
	if err != nil {
		return nil, err
	}
	g := &Grid{
		vp:       vp,
		events:   cache.NewPagedCache(),
		index:    chips.NewIndex(),
		nodes:    chips.NewVirtualIDStore(),
		loader:   loader,
		layouter: DefaultColumnLayout(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Resize sets the pixel size and syncs.
func (g *Grid) Resize(ctx context.Context, width, height float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vp.Resize(width, height)
	return g.syncLocked(ctx)
}

// Scroll moves the viewport by (dx, dy) pixels and syncs.
func (g *Grid) Scroll(ctx context.Context, dx, dy float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vp.Scroll(dx, dy)
	return g.syncLocked(ctx)
}

// Zoom scales the hour height and syncs.
func (g *Grid) Zoom(ctx context.Context, factor float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vp.Zoom(factor)
	return g.syncLocked(ctx)
}

// ScrollToDate makes date the first visible day, within bounds.
func (g *Grid) ScrollToDate(ctx context.Context, date time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vp.ScrollToDate(date)
	return g.syncLocked(ctx)
}

// Sync recomputes the viewport and loads any month of the fetch range that
// is not cached yet.
func (g *Grid) Sync(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.syncLocked(ctx)
}

// Refresh drops every cached event and chip and refetches the current
// fetch range.
func (g *Grid) Refresh(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.events.Clear()
	g.index.Clear()
	g.fetchRange = nil
	appLog.Info("grid: refresh requested")
	return g.syncLocked(ctx)
}

func (g *Grid) syncLocked(ctx context.Context) error {
	if err := g.vp.Update(); err != nil {
		return fmt.Errorf("grid: update viewport: %w", err)
	}

	var loadErr error
	r := cache.NewFetchRange(g.vp.FirstVisibleDate())
	if g.fetchRange == nil || *g.fetchRange != r || !g.events.ContainsRange(r) {
		g.fetchRange = &r
		loadErr = g.fetchLocked(ctx, r)
		g.rebuildChipsLocked()
	}

	g.layouter.Layout(g.vp, g.index)
	return loadErr
}

// fetchLocked reserves and loads the missing periods of r. A period whose
// load fails is released so the next sync asks for it again.
func (g *Grid) fetchLocked(ctx context.Context, r cache.FetchRange) error {
	missing := g.events.DeterminePeriodsToFetch(r)
	if len(missing) == 0 {
		return nil
	}
	for _, p := range missing {
		g.events.Reserve(p)
	}

	var errs []error
	for _, p := range missing {
		evs, err := g.loader.LoadPeriod(ctx, p)
		if err != nil {
			appLog.Error("grid: load period failed", err, "period", p)
			g.events.Release(p)
			errs = append(errs, fmt.Errorf("grid: load %s: %w", p, err))
			continue
		}
		g.events.ReplacePeriod(p, evs)
		appLog.Debug("grid: period loaded", "period", p, "events", len(evs))
	}
	return errors.Join(errs...)
}

func (g *Grid) rebuildChipsLocked() {
	cfg := g.vp.Config()
	evs := cache.InFetchRange(g.events, *g.fetchRange, cfg.Location)

	g.index.Clear()
	g.index.Insert(splitter.SplitAll(evs, cfg.MinHour, cfg.MaxHour))
	appLog.Debug("grid: chips rebuilt", "events", len(evs))
}

// HandleClick resolves a tap. Taps on the time column are ignored; taps on
// the header only resolve to all-day chips.
func (g *Grid) HandleClick(x, y float64) ClickResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handleClickLocked(x, y)
}

// HandleLongClick resolves a long press the same way as a tap.
func (g *Grid) HandleLongClick(x, y float64) ClickResult {
	return g.HandleClick(x, y)
}

func (g *Grid) handleClickLocked(x, y float64) ClickResult {
	cfg := g.vp.Config()
	if x <= cfg.TimeColumnWidth {
		return ClickResult{}
	}
	if c := g.index.HitTest(x, y); c != nil {
		return ClickResult{Chip: c}
	}
	if y < cfg.HeaderHeight {
		return ClickResult{}
	}
	if t, ok := g.vp.MapPixelToDateTime(x, y); ok {
		return ClickResult{Time: &t}
	}
	return ClickResult{}
}

// Event returns the full cached event a chip refers to.
func (g *Grid) Event(id int64) (model.Event, bool) {
	return cache.Get(g.events, id)
}

// VisibleChips returns the chips of the visible dates, all-day first per
// date.
func (g *Grid) VisibleChips() []*chips.Chip {
	g.mu.Lock()
	dates := g.vp.Dates()
	g.mu.Unlock()
	return g.index.QueryRange(dates)
}

// VisibleEvents returns the cached events that overlap a visible date.
func (g *Grid) VisibleEvents() []model.Event {
	g.mu.Lock()
	dates := g.vp.Dates()
	g.mu.Unlock()
	return cache.InDateRange(g.events, dates)
}

// DateRange returns the visible dates and their column offsets.
func (g *Grid) DateRange() []viewport.DateOffset {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.vp.DateRange()
}

// Snapshot copies the current viewport geometry.
func (g *Grid) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	ox, oy := g.vp.Origin()
	return Snapshot{
		Width:      g.vp.Width(),
		Height:     g.vp.Height(),
		OriginX:    ox,
		OriginY:    oy,
		HourHeight: g.vp.HourHeight(),
		DayWidth:   g.vp.DayWidth(),
		Dates:      g.vp.DateRange(),
	}
}

// Periods lists the months currently held in the cache.
func (g *Grid) Periods() []calmath.Period {
	return g.events.Periods()
}
