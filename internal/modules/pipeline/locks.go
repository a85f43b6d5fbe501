package pipeline

import (
	"slices"
	"sync"
)

// leadLocks serialises the store change and repository write of each lead,
// so a failed write always reverts exactly its own change
type leadLocks struct {
	mu    sync.Mutex
	locks map[string]*leadLock
}

type leadLock struct {
	mu   sync.Mutex
	refs int
}

func newLeadLocks() *leadLocks {
	return &leadLocks{locks: make(map[string]*leadLock)}
}

// lock acquires every listed lead in sorted order and returns the release func
func (l *leadLocks) lock(ids ...string) func() {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	ids = slices.DeleteFunc(ids, func(id string) bool { return id == "" })

	held := make([]*leadLock, 0, len(ids))
	for _, id := range ids {
		l.mu.Lock()
		ll, ok := l.locks[id]
		if !ok {
			ll = &leadLock{}
			l.locks[id] = ll
		}
		ll.refs++
		l.mu.Unlock()

		ll.mu.Lock()
		held = append(held, ll)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, ids[i])
			}
			l.mu.Unlock()
		}
	}
}
