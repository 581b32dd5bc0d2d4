package viewport

import (
	"math"
	"time"

	"weekgrid/internal/calmath"
)

// Resize records a new pixel size and re-derives the hour height.
func (s *State) Resize(width, height float64) {
	oldDayWidth := s.DayWidth()
	s.width = width
	s.height = height

	// Keep the same fractional day at the left edge.
	if newDayWidth := s.DayWidth(); oldDayWidth > 0 && newDayWidth > 0 {
		s.originX = s.originX / oldDayWidth * newDayWidth
	}

	if s.cfg.ShowCompleteDay {
		s.fitCompleteDay()
	} else {
		s.refreshAfterZooming()
	}
	s.updateVerticalOrigin()
	s.clampHorizontalOrigin()
}

// Scroll moves the origin by (dx, dy) pixels. Positive dx reveals earlier
// dates, negative dy scrolls towards the end of the day. Non-finite deltas
// are ignored.
func (s *State) Scroll(dx, dy float64) {
	if !isFinite(dx) || !isFinite(dy) {
		return
	}
	s.originX += dx
	s.originY += dy
	s.clampHorizontalOrigin()
	s.updateVerticalOrigin()
}

// Zoom scales the hour height by factor. Ignored in complete-day mode.
func (s *State) Zoom(factor float64) {
	if s.cfg.ShowCompleteDay || factor <= 0 || !isFinite(factor) {
		return
	}
	s.newHourHeight = s.hourHeight * factor
	s.refreshAfterZooming()
	s.updateVerticalOrigin()
}

// SetHeaderHeight changes the header height, e.g. when the all-day row
// grows.
func (s *State) SetHeaderHeight(h float64) {
	s.cfg.HeaderHeight = h
	if s.cfg.ShowCompleteDay {
		s.fitCompleteDay()
	}
	s.updateVerticalOrigin()
}

// ScrollToDate asks the next Update to make date the first visible day.
func (s *State) ScrollToDate(date time.Time) {
	s.scrollToDate = &date
}

// ScrollToHour asks the next Update to put hour at the top of the grid.
func (s *State) ScrollToHour(hour int) {
	s.scrollToHour = &hour
}

// Update recomputes the derived state. It must run after any mutation and
// before queries; running it twice in a row changes nothing. The first call
// also performs the one-time initial scroll.
func (s *State) Update() error {
	s.updateViewState()
	s.refreshAfterZooming()
	s.updateVerticalOrigin()
	s.applyPendingScroll()
	return s.updateDateRange()
}

// updateViewState runs the first-draw scrolls once the view has a size.
func (s *State) updateViewState() {
	if s.phase != uninitialized || s.DayWidth() <= 0 || s.height <= 0 {
		return
	}
	if s.cfg.ShowFirstDayOfWeekFirst {
		s.scrollToFirstDayOfWeek()
	}
	if s.cfg.ShowCurrentTimeFirst {
		s.scrollToCurrentTime()
	}
	s.phase = initialized
}

func (s *State) scrollToFirstDayOfWeek() {
	today := s.today()
	if s.cfg.NumberOfVisibleDays >= 7 && today.Weekday() != s.cfg.FirstDayOfWeek {
		diff := calmath.DifferenceWithFirstDayOfWeek(today, s.cfg.FirstDayOfWeek)
		s.originX += s.DayWidth() * float64(diff)
	}
	s.clampHorizontalOrigin()
}

func (s *State) scrollToCurrentTime() {
	now := s.cfg.Now().In(s.cfg.Location)

	// Leave an hour of room above the current time.
	hour := now.Hour()
	if hour > s.cfg.MinHour {
		hour--
	}
	hour = min(max(hour, s.cfg.MinHour), s.cfg.MaxHour)

	verticalOffset := s.hourHeight * float64(hour-s.cfg.MinHour)
	desiredOffset := s.DayHeight() - s.height
	s.originY = math.Min(desiredOffset, verticalOffset) * -1
	s.updateVerticalOrigin()
}

func (s *State) applyPendingScroll() {
	if s.scrollToDate != nil {
		target := s.DateWithinRange(*s.scrollToDate)
		s.originX = s.XOriginForDate(target)
		s.clampHorizontalOrigin()
		s.scrollToDate = nil
	}
	if s.scrollToHour != nil {
		hour := min(max(*s.scrollToHour, s.cfg.MinHour), s.cfg.MaxHour)
		s.originY = -float64(hour-s.cfg.MinHour) * s.hourHeight
		s.updateVerticalOrigin()
		s.scrollToHour = nil
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (s *State) fitCompleteDay() {
	s.hourHeight = (s.height - s.cfg.HeaderHeight) / float64(s.HoursPerDay())
	s.newHourHeight = 0
}

// refreshAfterZooming applies a pending zoom and keeps one day from being
// shorter than the viewport. The effective minimum is
// max(MinHourHeight, (height-header)/hoursPerDay); MaxHourHeight always caps.
func (s *State) refreshAfterZooming() {
	if s.cfg.ShowCompleteDay {
		return
	}

	dayHeight := s.hourHeight * float64(s.HoursPerDay())
	notFilling := dayHeight < s.height-s.cfg.HeaderHeight
	didZoom := s.newHourHeight > 0
	if !notFilling && !didZoom {
		return
	}

	target := s.newHourHeight
	if !didZoom {
		target = s.hourHeight
	}

	floor := (s.height - s.cfg.HeaderHeight) / float64(s.HoursPerDay())
	effectiveMin := math.Max(s.cfg.MinHourHeight, floor)
	next := clamp(target, effectiveMin, s.cfg.MaxHourHeight)

	if s.hourHeight > 0 {
		s.originY = s.originY / s.hourHeight * next
	}
	s.hourHeight = next
	s.newHourHeight = 0
}

// updateVerticalOrigin keeps originY in [height - dayHeight, 0].
func (s *State) updateVerticalOrigin() {
	lowest := s.height - s.DayHeight()
	s.originY = math.Min(math.Max(s.originY, lowest), 0)
}

func (s *State) clampHorizontalOrigin() {
	if s.DayWidth() <= 0 {
		return
	}
	s.originX = math.Min(math.Max(s.originX, s.MinX()), s.MaxX())
}

func (s *State) updateDateRange() error {
	s.clampHorizontalOrigin()

	dayWidth := s.DayWidth()
	daysFromOrigin := 0
	scrolling := false
	if dayWidth > 0 {
		q := s.originX / dayWidth
		if r := math.Round(q); math.Abs(q-r) < 1e-9 {
			q = r
		}
		daysFromOrigin = int(math.Ceil(q)) * -1
		scrolling = q != math.Trunc(q)
	}

	// A partial scroll exposes a sliver of one more day.
	visibleDays := s.cfg.NumberOfVisibleDays
	if scrolling {
		visibleDays++
	}

	start := calmath.AddDays(s.today(), daysFromOrigin)
	dates, err := calmath.LimitTo(calmath.RangeWithDays(start, visibleDays), s.cfg.MinDate, s.cfg.MaxDate)
	if err != nil {
		return err
	}

	s.dateRange = s.dateRange[:0]
	for _, d := range dates {
		s.dateRange = append(s.dateRange, DateOffset{
			Date:       d,
			StartPixel: s.cfg.TimeColumnWidth + s.originX - s.XOriginForDate(d),
		})
	}
	return nil
}
