package progression

import "sync"

// userLocks hands out one mutex per user id so that all mutating ledger
// operations for the same user serialize in-process. Entries are kept for
// the process lifetime; the map is bounded by the community size.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: map[int64]*sync.Mutex{}}
}

func (ul *userLocks) get(userID int64) *sync.Mutex {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	m, ok := ul.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		ul.locks[userID] = m
	}
	return m
}
