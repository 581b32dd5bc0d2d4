package model

import (
	"time"

	"weekgrid/internal/calmath"
)

// Style carries optional colors for an event. A nil field means "use the
// renderer default". Style values are immutable and passed explicitly to the
// renderer; nothing in weekgrid keeps shared drawing state.
type Style struct {
	BackgroundColor *uint32 `json:"background_color,omitempty"`
	BorderColor     *uint32 `json:"border_color,omitempty"`
	BorderWidth     *int    `json:"border_width,omitempty"`
	TextColor       *uint32 `json:"text_color,omitempty"`
}

// Event is a resolved calendar event. It is treated as immutable once
// created: updates produce a new value carrying the same ID.
type Event struct {
	// ID is stable and unique within a data source.
	ID int64

	Start time.Time
	End   time.Time

	AllDay bool

	Title    string
	Location string
	Style    Style

	// Payload is carried through untouched.
	Payload any
}

// IsMultiDay reports whether start and end fall on different dates.
func (e Event) IsMultiDay() bool {
	return !calmath.SameDate(e.Start, e.End)
}

// DurationMinutes is the length of e in whole minutes.
func (e Event) DurationMinutes() int {
	return int(e.End.Sub(e.Start) / time.Minute)
}

// CollidesWith reports whether e and other overlap in time. All-day and
// timed events never collide; events that merely touch do not collide.
func (e Event) CollidesWith(other Event) bool {
	if e.AllDay != other.AllDay {
		return false
	}
	if e.Start.Equal(other.Start) && e.End.Equal(other.End) {
		return true
	}
	if e.End.Equal(other.Start) || e.Start.Equal(other.End) {
		return false
	}
	return !e.Start.After(other.End) && !e.End.Before(other.Start)
}

// WithTimes returns a copy of e with new start and end.
func (e Event) WithTimes(start, end time.Time) Event {
	e.Start = start
	e.End = end
	return e
}

// Occurrence represents a single concrete instance of an ICS event
// (after recurrence expansion and timezone normalization).
type Occurrence struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, typically derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string
	Color       *uint32

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}
