package viewport

import (
	"errors"
	"fmt"
	"time"

	"weekgrid/internal/calmath"
)

var (
	ErrInvalidVisibleDays = errors.New("viewport: number of visible days must be at least 1")
	ErrInvalidHourHeights = errors.New("viewport: min hour height exceeds max hour height")
	ErrInvalidHourWindow  = errors.New("viewport: min hour must be before max hour within [0, 24]")
	ErrInvalidDateBounds  = errors.New("viewport: min date is after max date")
)

// Config is the static part of a viewport. Zero MinDate/MaxDate mean the
// grid scrolls without bound in that direction.
type Config struct {
	NumberOfVisibleDays int

	// Visible-hour window [MinHour, MaxHour).
	MinHour int
	MaxHour int

	HourHeight    float64
	MinHourHeight float64
	MaxHourHeight float64

	TimeColumnWidth float64
	HeaderHeight    float64

	MinDate time.Time
	MaxDate time.Time

	// ShowFirstDayOfWeekFirst scrolls week views (7+ days) to the start of
	// the week on the first Update.
	ShowFirstDayOfWeekFirst bool
	FirstDayOfWeek          time.Weekday

	// ShowCurrentTimeFirst scrolls vertically to an hour before now on the
	// first Update.
	ShowCurrentTimeFirst bool

	// ShowCompleteDay fits the whole visible-hour window into the viewport
	// height. Zooming is disabled in this mode.
	ShowCompleteDay bool

	// Location dates are computed in. Defaults to time.Local.
	Location *time.Location

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig mirrors a three-day view with the full day visible.
func DefaultConfig() Config {
	return Config{
		NumberOfVisibleDays: 3,
		MinHour:             0,
		MaxHour:             24,
		HourHeight:          60,
		MinHourHeight:       16,
		MaxHourHeight:       250,
		TimeColumnWidth:     48,
		HeaderHeight:        40,
		FirstDayOfWeek:      time.Monday,
	}
}

// Validate rejects configurations that could only fail later, mid-scroll.
func (c Config) Validate() error {
	if c.NumberOfVisibleDays < 1 {
		return ErrInvalidVisibleDays
	}
	if c.MinHourHeight > c.MaxHourHeight {
		return fmt.Errorf("%w: %.1f > %.1f", ErrInvalidHourHeights, c.MinHourHeight, c.MaxHourHeight)
	}
	if c.MinHour < 0 || c.MaxHour > 24 || c.MinHour >= c.MaxHour {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidHourWindow, c.MinHour, c.MaxHour)
	}
	if !c.MinDate.IsZero() && !c.MaxDate.IsZero() {
		span := calmath.DaysBetween(c.MinDate, c.MaxDate) + 1
		if span < 1 {
			return ErrInvalidDateBounds
		}
		if c.NumberOfVisibleDays > span {
			return fmt.Errorf("%w: can't render %d days between %s and %s",
				calmath.ErrTooManyVisibleDays, c.NumberOfVisibleDays,
				c.MinDate.Format(time.DateOnly), c.MaxDate.Format(time.DateOnly))
		}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if !c.MinDate.IsZero() {
		c.MinDate = time.Date(c.MinDate.Year(), c.MinDate.Month(), c.MinDate.Day(), 0, 0, 0, 0, c.Location)
	}
	if !c.MaxDate.IsZero() {
		c.MaxDate = time.Date(c.MaxDate.Year(), c.MaxDate.Month(), c.MaxDate.Day(), 0, 0, 0, 0, c.Location)
	}
	return c
}
