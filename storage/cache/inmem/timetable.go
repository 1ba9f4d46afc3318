// Package inmem keeps API data in process memory.
package inmem

import (
	"sync"
	"time"

	"github.com/trezcool/ratiba/core/timetable"
)

// TimetableStore holds the last set of timetables fetched from the API.
type TimetableStore struct {
	mutex     sync.RWMutex
	table     map[string]timetable.ClassTimetable
	order     []string
	updatedAt time.Time
	now       func() time.Time
}

var _ timetable.Store = (*TimetableStore)(nil)

func NewTimetableStore() *TimetableStore {
	return &TimetableStore{table: make(map[string]timetable.ClassTimetable), now: time.Now}
}

// Put replaces the stored timetables, keeping their order.
func (s *TimetableStore) Put(tables []timetable.ClassTimetable) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.table = make(map[string]timetable.ClassTimetable, len(tables))
	s.order = make([]string, 0, len(tables))
	for _, tt := range tables {
		if _, dup := s.table[tt.ClassID]; !dup {
			s.order = append(s.order, tt.ClassID)
		}
		s.table[tt.ClassID] = tt
	}
	s.updatedAt = s.now()
}

// All returns the stored timetables and when they were stored. The time is zero while empty.
func (s *TimetableStore) All() ([]timetable.ClassTimetable, time.Time) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tables := make([]timetable.ClassTimetable, 0, len(s.order))
	for _, id := range s.order {
		tables = append(tables, s.table[id])
	}
	return tables, s.updatedAt
}

func (s *TimetableStore) Get(classID string) (timetable.ClassTimetable, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	tt, ok := s.table[classID]
	return tt, ok
}

func (s *TimetableStore) UpdatedAt() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.updatedAt
}
