package auth

import (
    "context"
    "fmt"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// memorySessionStore is a SessionStore fake that also records the order of
// mutating calls, so tests can assert that blacklist writes precede
// deactivation.
type memorySessionStore struct {
    mu       sync.Mutex
    sessions map[string]Session
    calls    []string
}

func newMemorySessionStore() *memorySessionStore {
    return &memorySessionStore{sessions: make(map[string]Session)}
}

func (s *memorySessionStore) record(call string) {
    s.calls = append(s.calls, call)
}

func (s *memorySessionStore) Insert(_ context.Context, sess *Session) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.record("insert:" + sess.ID)
    s.sessions[sess.ID] = *sess
    return nil
}

func (s *memorySessionStore) Get(_ context.Context, id string) (Session, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    sess, ok := s.sessions[id]
    if !ok {
        return Session{}, ErrSessionNotFound
    }
    return sess, nil
}

func (s *memorySessionStore) GetByRefreshHash(_ context.Context, hash string) (Session, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, sess := range s.sessions {
        if sess.RefreshHash == hash {
            return sess, nil
        }
    }
    return Session{}, ErrSessionNotFound
}

func (s *memorySessionStore) ActiveByAccount(_ context.Context, accountID uint64) ([]Session, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []Session
    for _, sess := range s.sessions {
        if sess.AccountID == accountID && sess.Active {
            out = append(out, sess)
        }
    }
    return out, nil
}

func (s *memorySessionStore) StaleActive(_ context.Context, idleBefore, createdBefore time.Time) ([]Session, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []Session
    for _, sess := range s.sessions {
        if !sess.Active {
            continue
        }
        if sess.LastActivity.Before(idleBefore) || sess.CreatedAt.Before(createdBefore) {
            out = append(out, sess)
        }
    }
    return out, nil
}

func (s *memorySessionStore) Touch(_ context.Context, id string, at time.Time) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    sess, ok := s.sessions[id]
    if !ok {
        return ErrSessionNotFound
    }
    sess.LastActivity = at
    s.sessions[id] = sess
    return nil
}

func (s *memorySessionStore) UpdateTokens(_ context.Context, id, accessHash string, accessExp time.Time, refreshHash string, refreshExp time.Time, at time.Time) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    sess, ok := s.sessions[id]
    if !ok {
        return ErrSessionNotFound
    }
    sess.AccessHash = accessHash
    sess.AccessExp = accessExp
    sess.RefreshHash = refreshHash
    sess.RefreshExp = refreshExp
    sess.LastActivity = at
    s.sessions[id] = sess
    return nil
}

func (s *memorySessionStore) Deactivate(_ context.Context, id string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.record("deactivate:" + id)
    sess, ok := s.sessions[id]
    if !ok {
        return ErrSessionNotFound
    }
    sess.Active = false
    s.sessions[id] = sess
    return nil
}

func (s *memorySessionStore) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var n int64
    for id, sess := range s.sessions {
        if !sess.Active && sess.LastActivity.Before(cutoff) {
            delete(s.sessions, id)
            n++
        }
    }
    return n, nil
}

// recordingRevocations wraps MemoryRevocationStore, appending each revoke
// into the shared session-store call log.
type recordingRevocations struct {
    *MemoryRevocationStore
    log *memorySessionStore
}

func (r *recordingRevocations) Revoke(ctx context.Context, hash string, kind TokenKind, expiresAt time.Time, reason string) error {
    r.log.mu.Lock()
    r.log.record(fmt.Sprintf("revoke:%s:%s", kind, hash))
    r.log.mu.Unlock()
    return r.MemoryRevocationStore.Revoke(ctx, hash, kind, expiresAt, reason)
}

func testClock(start time.Time) (func() time.Time, func(time.Duration)) {
    var mu sync.Mutex
    now := start
    get := func() time.Time {
        mu.Lock()
        defer mu.Unlock()
        return now
    }
    step := func(d time.Duration) {
        mu.Lock()
        now = now.Add(d)
        mu.Unlock()
    }
    return get, step
}

func newTestRegistry(t *testing.T) (*Registry, *memorySessionStore, *MemoryRevocationStore, func(time.Duration)) {
    t.Helper()
    store := newMemorySessionStore()
    revoked := NewMemoryRevocationStore()
    clock, step := testClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
    reg := NewRegistry(store, &recordingRevocations{revoked, store}, 3, 30*time.Minute, 12*time.Hour).WithClock(clock)
    return reg, store, revoked, step
}

func makeSession(id string, account uint64) *Session {
    return &Session{
        ID:          id,
        AccountID:   account,
        AccessHash:  "access-" + id,
        AccessExp:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
        RefreshHash: "refresh-" + id,
        RefreshExp:  time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC),
    }
}

func TestCreateEvictsOldestAtCap(t *testing.T) {
    reg, store, revoked, step := newTestRegistry(t)
    ctx := context.Background()

    for i := 1; i <= 3; i++ {
        require.NoError(t, reg.Create(ctx, makeSession(fmt.Sprintf("s%d", i), 7)))
        step(time.Minute)
    }

    // Fourth login evicts exactly the oldest; the new login always wins.
    require.NoError(t, reg.Create(ctx, makeSession("s4", 7)))

    active, err := reg.ActiveSessions(ctx, 7)
    require.NoError(t, err)
    require.Len(t, active, 3)
    ids := []string{active[0].ID, active[1].ID, active[2].ID}
    assert.Equal(t, []string{"s2", "s3", "s4"}, ids)

    s1, err := store.Get(ctx, "s1")
    require.NoError(t, err)
    assert.False(t, s1.Active)
    assert.Equal(t, ReasonSessionLimit, revoked.Reason("access-s1"))
    assert.Equal(t, ReasonSessionLimit, revoked.Reason("refresh-s1"))
    // Other accounts are unaffected by the cap.
    require.NoError(t, reg.Create(ctx, makeSession("other", 8)))
}

func TestRevokeBlacklistsBothHashesBeforeDeactivate(t *testing.T) {
    reg, store, revoked, _ := newTestRegistry(t)
    ctx := context.Background()

    require.NoError(t, reg.Create(ctx, makeSession("s1", 7)))
    store.calls = nil
    require.NoError(t, reg.Revoke(ctx, "s1", ReasonLogout))

    require.Equal(t, []string{
        "revoke:access:access-s1",
        "revoke:refresh:refresh-s1",
        "deactivate:s1",
    }, store.calls)
    assert.Equal(t, ReasonLogout, revoked.Reason("access-s1"))
    assert.Equal(t, ReasonLogout, revoked.Reason("refresh-s1"))

    // Re-revoking an inactive session is a no-op.
    store.calls = nil
    require.NoError(t, reg.Revoke(ctx, "s1", ReasonLogout))
    assert.Empty(t, store.calls)
}

func TestTouchTripsIdleTimeout(t *testing.T) {
    reg, store, revoked, step := newTestRegistry(t)
    ctx := context.Background()

    require.NoError(t, reg.Create(ctx, makeSession("s1", 7)))

    step(29 * time.Minute)
    require.NoError(t, reg.Touch(ctx, "s1")) // refreshes LastActivity

    step(30*time.Minute + time.Second)
    err := reg.Touch(ctx, "s1")
    require.ErrorIs(t, err, ErrSessionExpired)

    s1, err := store.Get(ctx, "s1")
    require.NoError(t, err)
    assert.False(t, s1.Active)
    assert.Equal(t, ReasonIdleTimeout, revoked.Reason("access-s1"))

    // Once expired the session stays unusable.
    require.ErrorIs(t, reg.Touch(ctx, "s1"), ErrSessionNotFound)
}

func TestTouchTripsAbsoluteTimeout(t *testing.T) {
    reg, _, revoked, step := newTestRegistry(t)
    ctx := context.Background()

    require.NoError(t, reg.Create(ctx, makeSession("s1", 7)))

    // Keep the session warm so idle never trips, then cross the absolute
    // boundary.
    for i := 0; i < 48; i++ {
        step(15 * time.Minute)
        if err := reg.Touch(ctx, "s1"); err != nil {
            require.ErrorIs(t, err, ErrSessionExpired)
            assert.Equal(t, ReasonAbsoluteAge, revoked.Reason("access-s1"))
            return
        }
    }
    step(time.Minute)
    require.ErrorIs(t, reg.Touch(ctx, "s1"), ErrSessionExpired)
    assert.Equal(t, ReasonAbsoluteAge, revoked.Reason("access-s1"))
}

func TestRotateBlacklistsOldRefreshAndKeepsCreatedAt(t *testing.T) {
    reg, store, revoked, step := newTestRegistry(t)
    ctx := context.Background()

    require.NoError(t, reg.Create(ctx, makeSession("s1", 7)))
    before, err := store.Get(ctx, "s1")
    require.NoError(t, err)

    step(5 * time.Minute)
    sess, err := reg.ByRefreshHash(ctx, "refresh-s1")
    require.NoError(t, err)
    newAccessExp := sess.AccessExp.Add(time.Hour)
    newRefreshExp := sess.RefreshExp.Add(time.Hour)
    require.NoError(t, reg.Rotate(ctx, sess, "access-s1b", newAccessExp, "refresh-s1b", newRefreshExp))

    after, err := store.Get(ctx, "s1")
    require.NoError(t, err)
    assert.Equal(t, "access-s1b", after.AccessHash)
    assert.Equal(t, "refresh-s1b", after.RefreshHash)
    assert.Equal(t, before.CreatedAt, after.CreatedAt)
    assert.Equal(t, ReasonRotated, revoked.Reason("refresh-s1"))

    // The replaced refresh token can no longer resolve a session.
    _, err = reg.ByRefreshHash(ctx, "refresh-s1")
    require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRevokeAll(t *testing.T) {
    reg, _, revoked, _ := newTestRegistry(t)
    ctx := context.Background()

    require.NoError(t, reg.Create(ctx, makeSession("s1", 7)))
    require.NoError(t, reg.Create(ctx, makeSession("s2", 7)))
    require.NoError(t, reg.RevokeAll(ctx, 7, ReasonPasswordReset))

    active, err := reg.ActiveSessions(ctx, 7)
    require.NoError(t, err)
    assert.Empty(t, active)
    assert.Equal(t, ReasonPasswordReset, revoked.Reason("refresh-s1"))
    assert.Equal(t, ReasonPasswordReset, revoked.Reason("refresh-s2"))
}

func TestExpireStaleIsIdempotent(t *testing.T) {
    reg, _, _, step := newTestRegistry(t)
    ctx := context.Background()

    require.NoError(t, reg.Create(ctx, makeSession("s1", 7)))
    step(time.Minute)
    require.NoError(t, reg.Create(ctx, makeSession("s2", 7)))

    step(31 * time.Minute)
    n, err := reg.ExpireStale(ctx)
    require.NoError(t, err)
    assert.Equal(t, 2, n)

    // Second pass finds nothing to do.
    n, err = reg.ExpireStale(ctx)
    require.NoError(t, err)
    assert.Equal(t, 0, n)
}
