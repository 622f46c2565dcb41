package auth

import (
    "context"
    "sync"
    "time"
)

// MemoryRevocationStore keeps the blacklist in process memory.  It mirrors
// the SQL store's semantics exactly: an entry past its expiry is invisible
// to IsRevoked and reclaimable by DeleteExpired.  Used in tests and as a
// last-resort fallback; production runs on the database-backed store so the
// blacklist survives restarts and is shared across instances.
type MemoryRevocationStore struct {
    mu      sync.Mutex
    entries map[string]revocationEntry
}

type revocationEntry struct {
    kind      TokenKind
    expiresAt time.Time
    reason    string
}

// NewMemoryRevocationStore builds an empty store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
    return &MemoryRevocationStore{entries: make(map[string]revocationEntry)}
}

// Revoke records the hash; re-revoking overwrites the reason and keeps the
// earlier expiry if it is later.
func (s *MemoryRevocationStore) Revoke(_ context.Context, hash string, kind TokenKind, expiresAt time.Time, reason string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if prev, ok := s.entries[hash]; ok && prev.expiresAt.After(expiresAt) {
        expiresAt = prev.expiresAt
    }
    s.entries[hash] = revocationEntry{kind: kind, expiresAt: expiresAt, reason: reason}
    return nil
}

// IsRevoked reports whether hash has an unexpired entry.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, hash string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.entries[hash]
    if !ok {
        return false, nil
    }
    return e.expiresAt.After(time.Now().UTC()), nil
}

// IsRevokedAt is IsRevoked against an explicit instant, for callers that
// inject their own clock.
func (s *MemoryRevocationStore) IsRevokedAt(hash string, at time.Time) bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.entries[hash]
    return ok && e.expiresAt.After(at)
}

// DeleteExpired removes entries whose expiry is at or before now.
func (s *MemoryRevocationStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var n int64
    for h, e := range s.entries {
        if !e.expiresAt.After(now) {
            delete(s.entries, h)
            n++
        }
    }
    return n, nil
}

// Reason returns the recorded reason for a hash, or "" when absent.
func (s *MemoryRevocationStore) Reason(hash string) string {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.entries[hash].reason
}

// Len reports how many entries are held, expired ones included.
func (s *MemoryRevocationStore) Len() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.entries)
}
