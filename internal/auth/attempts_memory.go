package auth

import (
    "context"
    "sync"
    "time"
)

// MemoryAttemptStore is the in-process fallback used when Redis is
// unreachable at startup.  Counters live in a mutex-guarded map keyed by
// identity; an entry older than the window is treated as absent and lazily
// replaced.  State is per-instance only, which is acceptable in degraded
// mode and in tests.
type MemoryAttemptStore struct {
    mu      sync.Mutex
    window  time.Duration
    entries map[string]*attemptEntry
    now     func() time.Time
}

type attemptEntry struct {
    count       int
    windowStart time.Time
}

// maxEntries caps the map so a scan of identities cannot grow memory
// without bound.  Stale entries are pruned when the cap is hit.
const maxEntries = 5000

// NewMemoryAttemptStore builds an in-memory store with the given window.
func NewMemoryAttemptStore(window time.Duration) *MemoryAttemptStore {
    return &MemoryAttemptStore{
        window:  window,
        entries: make(map[string]*attemptEntry),
        now:     time.Now,
    }
}

// Fail records one failed attempt and returns the in-window count.
func (s *MemoryAttemptStore) Fail(_ context.Context, id string) (int, error) {
    now := s.now().UTC()
    s.mu.Lock()
    defer s.mu.Unlock()

    e := s.entries[id]
    if e == nil || now.Sub(e.windowStart) > s.window {
        e = &attemptEntry{windowStart: now}
        s.entries[id] = e
    }
    e.count++

    if len(s.entries) > maxEntries {
        s.prune(now)
    }
    return e.count, nil
}

// Count returns the current in-window count.
func (s *MemoryAttemptStore) Count(_ context.Context, id string) (int, error) {
    now := s.now().UTC()
    s.mu.Lock()
    defer s.mu.Unlock()

    e := s.entries[id]
    if e == nil || now.Sub(e.windowStart) > s.window {
        return 0, nil
    }
    return e.count, nil
}

// Reset clears the counter for id.
func (s *MemoryAttemptStore) Reset(_ context.Context, id string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    delete(s.entries, id)
    return nil
}

// prune drops entries whose window has passed.  Caller holds the lock.
func (s *MemoryAttemptStore) prune(now time.Time) {
    for k, e := range s.entries {
        if now.Sub(e.windowStart) > s.window {
            delete(s.entries, k)
        }
    }
}
