package chips

import (
	"sync"
	"time"
)

// chipKey identifies a chip across re-splits: the same event fragment on the
// same date keeps its virtual id even when the *Chip value is rebuilt.
type chipKey struct {
	eventID int64
	start   int64
}

func keyOf(c *Chip) chipKey {
	return chipKey{eventID: c.EventID, start: c.Event.Start.UnixNano()}
}

// VirtualIDStore hands out stable integer ids for chips and date-times, for
// accessibility layers that mirror the grid as a tree of virtual nodes.
type VirtualIDStore struct {
	mu sync.Mutex

	next int

	chipIDs map[chipKey]int
	chips   map[int]*Chip

	timeIDs map[int64]int
	times   map[int]time.Time
}

func NewVirtualIDStore() *VirtualIDStore {
	return &VirtualIDStore{
		chipIDs: make(map[chipKey]int),
		chips:   make(map[int]*Chip),
		timeIDs: make(map[int64]int),
		times:   make(map[int]time.Time),
	}
}

// PutChips registers chips and returns their ids in the same order. A chip
// that was seen before keeps its id; the stored value is refreshed since its
// bounds may have changed.
func (s *VirtualIDStore) PutChips(cs []*Chip) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(cs))
	for _, c := range cs {
		k := keyOf(c)
		id, ok := s.chipIDs[k]
		if !ok {
			id = s.next
			s.next++
			s.chipIDs[k] = id
		}
		s.chips[id] = c
		ids = append(ids, id)
	}
	return ids
}

// PutDateTime registers t and returns its id.
func (s *VirtualIDStore) PutDateTime(t time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := t.UnixNano()
	if id, ok := s.timeIDs[k]; ok {
		return id
	}
	id := s.next
	s.next++
	s.timeIDs[k] = id
	s.times[id] = t
	return id
}

func (s *VirtualIDStore) FindChip(id int) (*Chip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chips[id]
	return c, ok
}

func (s *VirtualIDStore) FindDateTime(id int) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.times[id]
	return t, ok
}
