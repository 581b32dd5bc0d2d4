package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
}

func TestCollidesWith(t *testing.T) {
	a := Event{ID: 1, Start: at(1, 9), End: at(1, 11)}

	tests := []struct {
		name  string
		other Event
		want  bool
	}{
		{"identical", Event{ID: 2, Start: at(1, 9), End: at(1, 11)}, true},
		{"overlap", Event{ID: 2, Start: at(1, 10), End: at(1, 12)}, true},
		{"touching end", Event{ID: 2, Start: at(1, 11), End: at(1, 12)}, false},
		{"touching start", Event{ID: 2, Start: at(1, 8), End: at(1, 9)}, false},
		{"disjoint", Event{ID: 2, Start: at(1, 13), End: at(1, 14)}, false},
		{"all-day vs timed", Event{ID: 2, Start: at(1, 9), End: at(1, 11), AllDay: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.CollidesWith(tt.other))
		})
	}
}

func TestDerivedFields(t *testing.T) {
	e := Event{Start: at(1, 22), End: at(2, 1)}
	assert.True(t, e.IsMultiDay())
	assert.Equal(t, 180, e.DurationMinutes())
	assert.False(t, Event{Start: at(1, 9), End: at(1, 10)}.IsMultiDay())

	frag := e.WithTimes(at(2, 0), e.End)
	assert.Equal(t, 60, frag.DurationMinutes())
	assert.Equal(t, e.ID, frag.ID)
}
