package inmem

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core/slot"
	"github.com/trezcool/ratiba/core/timetable"
)

func TestTimetableStore(t *testing.T) {
	store := NewTimetableStore()
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	tables, updatedAt := store.All()
	assert.Empty(t, tables)
	assert.True(t, updatedAt.IsZero())

	store.Put([]timetable.ClassTimetable{
		{ClassID: "B", Subjects: map[string][]slot.Index{"Art": {1}}},
		{ClassID: "A", Subjects: map[string][]slot.Index{"Math": {2}}},
		{ClassID: "B", Subjects: map[string][]slot.Index{"Music": {3}}},
	})

	tables, updatedAt = store.All()
	assert.Equal(t, now, updatedAt)
	assert.Equal(t, now, store.UpdatedAt())
	assert.Equal(t, []string{"B", "A"}, timetable.ClassIDs(tables))

	tt, ok := store.Get("B")
	assert.True(t, ok)
	assert.Equal(t, slot.Schedule{3: "Music"}, tt.Schedule())

	_, ok = store.Get("Z")
	assert.False(t, ok)

	store.Put(nil)
	tables, _ = store.All()
	assert.Empty(t, tables)
}

func TestTimetableStore_Concurrent(t *testing.T) {
	store := NewTimetableStore()
	var wg sync.WaitGroup
	for n := 0; n < 10; n++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Put([]timetable.ClassTimetable{{ClassID: "A"}})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.All()
			_, _ = store.Get("A")
		}()
	}
	wg.Wait()

	_, ok := store.Get("A")
	assert.True(t, ok)
}
