package viewport

import (
	"math"
	"time"

	"weekgrid/internal/calmath"
)

// PixelXForDate returns the x pixel at which date's column starts, if date
// is in the current range.
func (s *State) PixelXForDate(date time.Time) (float64, bool) {
	for _, d := range s.dateRange {
		if calmath.SameDate(d.Date, date) {
			return d.StartPixel, true
		}
	}
	return 0, false
}

// PixelYForTime returns the y pixel of t's wall-clock time within its day
// column.
func (s *State) PixelYForTime(t time.Time) float64 {
	minutes := float64((t.Hour()-s.cfg.MinHour)*60+t.Minute()) + float64(t.Second())/60
	return s.originY + s.cfg.HeaderHeight + minutes/60*s.hourHeight
}

// DateAtX returns the visible date whose column contains x.
func (s *State) DateAtX(x float64) (time.Time, bool) {
	if x <= s.cfg.TimeColumnWidth {
		return time.Time{}, false
	}
	dayWidth := s.DayWidth()
	if dayWidth <= 0 {
		return time.Time{}, false
	}
	for _, d := range s.dateRange {
		start := math.Max(d.StartPixel, s.cfg.TimeColumnWidth)
		end := d.StartPixel + dayWidth
		if x >= start && x < end {
			return d.Date, true
		}
	}
	return time.Time{}, false
}

// MapPixelToDateTime returns the date-time under (x, y), truncated to the
// minute. It reports false for the time column, the header, and anything
// outside the rendered hours.
func (s *State) MapPixelToDateTime(x, y float64) (time.Time, bool) {
	day, ok := s.DateAtX(x)
	if !ok {
		return time.Time{}, false
	}
	if y < s.cfg.HeaderHeight || (s.height > 0 && y >= s.height) || s.hourHeight <= 0 {
		return time.Time{}, false
	}

	fromTop := y - s.originY - s.cfg.HeaderHeight
	if fromTop < 0 {
		return time.Time{}, false
	}
	hour := int(math.Floor(fromTop / s.hourHeight))
	if hour >= s.HoursPerDay() {
		return time.Time{}, false
	}
	minute := int(math.Floor((fromTop - float64(hour)*s.hourHeight) / s.hourHeight * 60))
	minute = min(max(minute, 0), 59)

	return time.Date(day.Year(), day.Month(), day.Day(), s.cfg.MinHour+hour, minute, 0, 0, s.cfg.Location), true
}
