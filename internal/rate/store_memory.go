package rate

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

type counterWindow struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is the in-process counter table: one mutex-guarded map owned
// exclusively by the store. Expired windows are collected by a lazy sweep
// piggybacked on Incr, not by a background timer.
type MemoryStore struct {
	mu            sync.Mutex
	windows       map[string]counterWindow
	now           func() time.Time
	sweepInterval time.Duration
	lastSweep     time.Time
}

// NewMemoryStore creates an empty counter table. now may be nil, in which
// case wall-clock time is used.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		windows:       make(map[string]counterWindow),
		now:           now,
		sweepInterval: defaultSweepInterval,
		lastSweep:     now(),
	}
}

// Incr implements Store. The lock covers only the read-modify-write of the
// single window plus the occasional sweep; no request blocks on I/O here.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = counterWindow{resetAt: now.Add(window)}
	}
	w.count++
	s.windows[key] = w

	return w.count, w.resetAt, nil
}

// Reset clears the counter table. Intended for shutdown and test isolation.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = make(map[string]counterWindow)
}

// Len reports the number of live counter windows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < s.sweepInterval {
		return
	}
	s.lastSweep = now

	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
}
