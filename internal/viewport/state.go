// Package viewport maps between the pixel space of a scrollable multi-day
// grid and calendar date-times.
//
// Horizontal origin convention: originX is 0 when today is the first visible
// day, positive when earlier dates are shown and negative for later dates.
// originY is 0 at the top of the visible-hour window and negative when
// scrolled down.
package viewport

import (
	"math"
	"time"

	"weekgrid/internal/calmath"
	"weekgrid/internal/chips"
)

type phase int

const (
	uninitialized phase = iota
	initialized
)

// DateOffset is a visible date and the x pixel its column starts at.
type DateOffset struct {
	Date       time.Time `json:"date"`
	StartPixel float64   `json:"start_pixel"`
}

// State is the mutable viewport of one grid. It is not safe for concurrent
// use; the owner serializes calls.
type State struct {
	cfg Config

	width  float64
	height float64

	originX float64
	originY float64

	hourHeight    float64
	newHourHeight float64

	phase phase

	scrollToDate *time.Time
	scrollToHour *int

	dateRange []DateOffset
}

// New validates cfg and returns an unsized State.
func New(cfg Config) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	s := &State{cfg: cfg}
	s.hourHeight = clamp(cfg.HourHeight, cfg.MinHourHeight, cfg.MaxHourHeight)
	return s, nil
}

func (s *State) Config() Config { return s.cfg }

func (s *State) today() time.Time {
	return calmath.DateOf(s.cfg.Now().In(s.cfg.Location))
}

// Width and Height are the pixel size last passed to Resize.
func (s *State) Width() float64  { return s.width }
func (s *State) Height() float64 { return s.height }

// Origin returns the current scroll offset.
func (s *State) Origin() (x, y float64) { return s.originX, s.originY }

func (s *State) HourHeight() float64 { return s.hourHeight }

func (s *State) HoursPerDay() int { return s.cfg.MaxHour - s.cfg.MinHour }

// DayWidth is the width of one date column.
func (s *State) DayWidth() float64 {
	return (s.width - s.cfg.TimeColumnWidth) / float64(s.cfg.NumberOfVisibleDays)
}

// DayHeight is the rendered height of a day including the header.
func (s *State) DayHeight() float64 {
	return s.hourHeight*float64(s.HoursPerDay()) + s.cfg.HeaderHeight
}

// Initialized reports whether an Update has run on a sized view.
func (s *State) Initialized() bool { return s.phase == initialized }

// XOriginForDate returns the originX at which date is the first visible day.
func (s *State) XOriginForDate(date time.Time) float64 {
	return float64(calmath.DaysFromToday(date, s.today())) * s.DayWidth() * -1
}

// maxScrollDays bounds an unbounded grid so that day offsets stay within
// int range.
const maxScrollDays = 100_000

// MinX is the smallest allowed originX (latest scroll position).
func (s *State) MinX() float64 {
	if s.cfg.MaxDate.IsZero() {
		return -maxScrollDays * s.DayWidth()
	}
	return s.XOriginForDate(calmath.AddDays(s.cfg.MaxDate, -(s.cfg.NumberOfVisibleDays - 1)))
}

// MaxX is the largest allowed originX (earliest scroll position).
func (s *State) MaxX() float64 {
	if s.cfg.MinDate.IsZero() {
		return maxScrollDays * s.DayWidth()
	}
	return s.XOriginForDate(s.cfg.MinDate)
}

// HeaderBounds is the header row, right of the time column.
func (s *State) HeaderBounds() chips.Rect {
	return chips.Rect{Left: s.cfg.TimeColumnWidth, Top: 0, Right: s.width, Bottom: s.cfg.HeaderHeight}
}

// CalendarGridBounds is the area below the header, right of the time column.
func (s *State) CalendarGridBounds() chips.Rect {
	return chips.Rect{Left: s.cfg.TimeColumnWidth, Top: s.cfg.HeaderHeight, Right: s.width, Bottom: s.height}
}

// DateRange returns the dates computed by the last Update.
func (s *State) DateRange() []DateOffset {
	out := make([]DateOffset, len(s.dateRange))
	copy(out, s.dateRange)
	return out
}

// Dates returns just the dates of DateRange.
func (s *State) Dates() []time.Time {
	out := make([]time.Time, len(s.dateRange))
	for i, d := range s.dateRange {
		out[i] = d.Date
	}
	return out
}

// FirstVisibleDate is the first date of the last computed range, or today
// before the first Update.
func (s *State) FirstVisibleDate() time.Time {
	if len(s.dateRange) == 0 {
		return s.today()
	}
	return s.dateRange[0].Date
}

// DisplayedHours lists the hours that get a label in the time column.
func (s *State) DisplayedHours(interval int, includeFirst bool) []int {
	if interval <= 0 {
		interval = 1
	}
	start := s.cfg.MinHour
	if !includeFirst {
		start += interval
	}
	var out []int
	for h := start; h < s.cfg.MaxHour; h += interval {
		out = append(out, h)
	}
	return out
}

// DateWithinRange returns date, or the nearest date that can be scrolled to
// when date lies outside MinDate/MaxDate. Week views that show the first
// day of the week first are snapped back to that day.
func (s *State) DateWithinRange(date time.Time) time.Time {
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.cfg.Location)
	switch {
	case !s.cfg.MinDate.IsZero() && calmath.DaysBetween(s.cfg.MinDate, date) < 0:
		return s.cfg.MinDate
	case !s.cfg.MaxDate.IsZero() && calmath.DaysBetween(s.cfg.MaxDate, date) > 0:
		return calmath.AddDays(s.cfg.MaxDate, -(s.cfg.NumberOfVisibleDays - 1))
	case s.cfg.NumberOfVisibleDays >= 7 && s.cfg.ShowFirstDayOfWeekFirst:
		return calmath.AddDays(date, -calmath.DifferenceWithFirstDayOfWeek(date, s.cfg.FirstDayOfWeek))
	default:
		return date
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
