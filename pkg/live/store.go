package live

import (
	"sync"
	"sync/atomic"
	"time"
)

// Store holds the current snapshot and the bookkeeping used to decide whether
// it is still fresh. Readers load the snapshot pointer without locking; the
// mutex only guards the attempt metadata and the publish decision, and is
// never held across network I/O.
type Store struct {
	snapshot atomic.Pointer[Snapshot]

	mu          sync.Mutex
	lastAttempt time.Time
	lastErr     error
	failures    int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Load returns the current snapshot, or nil before the first successful fetch
func (s *Store) Load() *Snapshot {
	return s.snapshot.Load()
}

// Fresh returns the current snapshot if the most recent fetch attempt is
// younger than maxAge, nil otherwise
func (s *Store) Fresh(now time.Time, maxAge time.Duration) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot.Load()
	if snap == nil {
		return nil
	}
	if now.Sub(s.lastAttempt) >= maxAge {
		return nil
	}
	return snap
}

// Publish installs snap unless the held snapshot carries a strictly newer
// update marker. It returns the snapshot now held and whether it was replaced.
func (s *Store) Publish(snap *Snapshot, now time.Time) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAttempt = now
	s.lastErr = nil
	s.failures = 0

	current := s.snapshot.Load()
	if current != nil && snap.Marker().Before(current.Marker()) {
		return current, false
	}
	s.snapshot.Store(snap)
	return snap, true
}

// RecordFailure notes a failed attempt; the held snapshot is untouched
func (s *Store) RecordFailure(now time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAttempt = now
	s.lastErr = err
	s.failures++
}

// StoreState is a point-in-time view of the store bookkeeping
type StoreState struct {
	Snapshot            *Snapshot
	LastAttempt         time.Time
	LastError           error
	ConsecutiveFailures int
}

// State returns the current bookkeeping
func (s *Store) State() StoreState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StoreState{
		Snapshot:            s.snapshot.Load(),
		LastAttempt:         s.lastAttempt,
		LastError:           s.lastErr,
		ConsecutiveFailures: s.failures,
	}
}
