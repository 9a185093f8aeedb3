package taskpool

import (
	"sort"
	"sync"
	"time"

	"github.com/fleetiq/courier/core/model"
)

// Snapshot is an immutable view of the task pool taken at a single refresh.
// Controllers read snapshots concurrently; a snapshot is never mutated
// after construction.
type Snapshot struct {
	tasks map[string]model.Task
	ids   []string // sorted, so iteration order is stable across agents
	taken time.Time
}

// NewSnapshot copies tasks into an immutable snapshot.
func NewSnapshot(tasks map[string]model.Task) *Snapshot {
	s := &Snapshot{
		tasks: make(map[string]model.Task, len(tasks)),
		ids:   make([]string, 0, len(tasks)),
		taken: time.Now(),
	}
	for id, t := range tasks {
		s.tasks[id] = t
		s.ids = append(s.ids, id)
	}
	sort.Strings(s.ids)
	return s
}

// Get returns the task with the given id.
func (s *Snapshot) Get(id string) (model.Task, bool) {
	t, ok := s.tasks[id]
	return t, ok
}

// IDs returns all task ids in sorted order. The slice is shared; callers
// must not mutate it.
func (s *Snapshot) IDs() []string {
	return s.ids
}

// Len returns the number of tasks in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.ids)
}

// Taken returns the time the snapshot was created.
func (s *Snapshot) Taken() time.Time {
	return s.taken
}

// HubEntrances returns the pickup entrance list of the first task that
// carries one. All tasks share the same hub, so any entrance list
// describes it; the sorted id order keeps the choice stable.
func (s *Snapshot) HubEntrances() []model.Point {
	for _, id := range s.ids {
		if t := s.tasks[id]; len(t.Entrances) > 0 {
			return t.Entrances
		}
	}
	return nil
}

// Store holds the current pool snapshot. Refreshes replace the snapshot
// pointer atomically; readers keep whatever snapshot they grabbed for the
// duration of a tick.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewStore returns a store primed with an empty snapshot so readers never
// see nil before the first refresh.
func NewStore() *Store {
	return &Store{snap: NewSnapshot(nil)}
}

// Replace swaps in a new snapshot.
func (s *Store) Replace(snap *Snapshot) {
	if snap == nil {
		snap = NewSnapshot(nil)
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Current returns the latest snapshot. Never nil.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
