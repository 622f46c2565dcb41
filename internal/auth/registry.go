package auth

import (
    "context"
    "errors"
    "sort"
    "time"
)

// Session is one login.  Both token hashes are kept on the row so a revoke
// can blacklist them without the raw tokens in hand.  CreatedAt anchors the
// absolute timeout and the eviction order; LastActivity anchors the idle
// timeout.
type Session struct {
    ID           string
    AccountID    uint64
    AccessHash   string
    AccessExp    time.Time
    RefreshHash  string
    RefreshExp   time.Time
    LastActivity time.Time
    CreatedAt    time.Time
    Active       bool
}

// SessionStore is the persistence surface the registry needs.  The MySQL
// implementation is repository.SessionRepo.
type SessionStore interface {
    Insert(ctx context.Context, s *Session) error
    Get(ctx context.Context, id string) (Session, error)
    GetByRefreshHash(ctx context.Context, hash string) (Session, error)
    ActiveByAccount(ctx context.Context, accountID uint64) ([]Session, error)
    // StaleActive returns active sessions whose last activity predates
    // idleBefore or whose creation predates createdBefore.
    StaleActive(ctx context.Context, idleBefore, createdBefore time.Time) ([]Session, error)
    Touch(ctx context.Context, id string, at time.Time) error
    UpdateTokens(ctx context.Context, id, accessHash string, accessExp time.Time, refreshHash string, refreshExp time.Time, at time.Time) error
    Deactivate(ctx context.Context, id string) error
    DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Registry enforces the session lifecycle rules: at most MaxSessions active
// sessions per account (oldest evicted, the new login always wins), idle and
// absolute timeouts, and revocation that blacklists both token hashes before
// returning.
type Registry struct {
    store    SessionStore
    revoked  RevocationStore
    maxPer   int
    idle     time.Duration
    absolute time.Duration
    now      func() time.Time
}

// NewRegistry wires a registry from its stores and policy values.
func NewRegistry(store SessionStore, revoked RevocationStore, maxSessions int, idle, absolute time.Duration) *Registry {
    if maxSessions < 1 {
        maxSessions = 1
    }
    return &Registry{
        store:    store,
        revoked:  revoked,
        maxPer:   maxSessions,
        idle:     idle,
        absolute: absolute,
        now:      time.Now,
    }
}

// WithClock overrides the registry's time source.  Tests use this to step
// through timeout boundaries.
func (r *Registry) WithClock(now func() time.Time) *Registry {
    r.now = now
    return r
}

// Create persists a new session for the account.  When the account already
// holds the maximum number of active sessions, the least-recently-created
// one is revoked to make room; the new login itself is never rejected.
func (r *Registry) Create(ctx context.Context, s *Session) error {
    if s.ID == "" || s.AccountID == 0 {
        return errors.New("session id and account required")
    }
    now := r.now().UTC()
    s.CreatedAt = now
    s.LastActivity = now
    s.Active = true

    existing, err := r.store.ActiveByAccount(ctx, s.AccountID)
    if err != nil {
        return err
    }
    sort.Slice(existing, func(i, j int) bool {
        return existing[i].CreatedAt.Before(existing[j].CreatedAt)
    })
    // Evict until the new session fits under the cap.
    for len(existing) >= r.maxPer {
        if err := r.revokeSession(ctx, existing[0], ReasonSessionLimit); err != nil {
            return err
        }
        existing = existing[1:]
    }
    return r.store.Insert(ctx, s)
}

// Touch records activity on a session.  A session past either timeout is
// revoked through the normal revoke path and ErrSessionExpired is returned.
func (r *Registry) Touch(ctx context.Context, id string) error {
    s, err := r.store.Get(ctx, id)
    if err != nil {
        return err
    }
    if !s.Active {
        return ErrSessionNotFound
    }
    now := r.now().UTC()
    if now.Sub(s.LastActivity) > r.idle {
        if err := r.revokeSession(ctx, s, ReasonIdleTimeout); err != nil {
            return err
        }
        return ErrSessionExpired
    }
    if now.Sub(s.CreatedAt) > r.absolute {
        if err := r.revokeSession(ctx, s, ReasonAbsoluteAge); err != nil {
            return err
        }
        return ErrSessionExpired
    }
    return r.store.Touch(ctx, id, now)
}

// Revoke deactivates the session and blacklists both of its token hashes.
// Revoking an already inactive session is a no-op.
func (r *Registry) Revoke(ctx context.Context, id, reason string) error {
    s, err := r.store.Get(ctx, id)
    if err != nil {
        return err
    }
    if !s.Active {
        return nil
    }
    return r.revokeSession(ctx, s, reason)
}

// RevokeAll revokes every active session of an account.  Used by logout
// everywhere and password reset.
func (r *Registry) RevokeAll(ctx context.Context, accountID uint64, reason string) error {
    sessions, err := r.store.ActiveByAccount(ctx, accountID)
    if err != nil {
        return err
    }
    for _, s := range sessions {
        if err := r.revokeSession(ctx, s, reason); err != nil {
            return err
        }
    }
    return nil
}

// ByRefreshHash resolves an active session from a refresh token hash, used
// by the refresh flow.
func (r *Registry) ByRefreshHash(ctx context.Context, hash string) (Session, error) {
    s, err := r.store.GetByRefreshHash(ctx, hash)
    if err != nil {
        return Session{}, err
    }
    if !s.Active {
        return Session{}, ErrSessionNotFound
    }
    if r.now().UTC().After(s.RefreshExp) {
        return Session{}, ErrSessionExpired
    }
    return s, nil
}

// Rotate swaps the session's token hashes after a refresh.  The previous
// refresh hash is blacklisted so it cannot be replayed; the session keeps
// its creation time so the absolute timeout is unaffected.
func (r *Registry) Rotate(ctx context.Context, s Session, accessHash string, accessExp time.Time, refreshHash string, refreshExp time.Time) error {
    if err := r.revoked.Revoke(ctx, s.RefreshHash, KindRefresh, s.RefreshExp, ReasonRotated); err != nil {
        return err
    }
    return r.store.UpdateTokens(ctx, s.ID, accessHash, accessExp, refreshHash, refreshExp, r.now().UTC())
}

// ActiveSessions lists the account's active sessions, oldest first.
func (r *Registry) ActiveSessions(ctx context.Context, accountID uint64) ([]Session, error) {
    sessions, err := r.store.ActiveByAccount(ctx, accountID)
    if err != nil {
        return nil, err
    }
    sort.Slice(sessions, func(i, j int) bool {
        return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
    })
    return sessions, nil
}

// ExpireStale revokes every active session past either timeout.  Called by
// the background sweep; each revocation is independent and idempotent so a
// rerun after a partial failure converges.
func (r *Registry) ExpireStale(ctx context.Context) (int, error) {
    now := r.now().UTC()
    stale, err := r.store.StaleActive(ctx, now.Add(-r.idle), now.Add(-r.absolute))
    if err != nil {
        return 0, err
    }
    revoked := 0
    for _, s := range stale {
        reason := ReasonIdleTimeout
        if now.Sub(s.CreatedAt) > r.absolute {
            reason = ReasonAbsoluteAge
        }
        if err := r.revokeSession(ctx, s, reason); err != nil {
            return revoked, err
        }
        revoked++
    }
    return revoked, nil
}

// revokeSession writes both blacklist entries before deactivating the row,
// so an interrupted revoke errs on the side of rejecting tokens.
func (r *Registry) revokeSession(ctx context.Context, s Session, reason string) error {
    if err := r.revoked.Revoke(ctx, s.AccessHash, KindAccess, s.AccessExp, reason); err != nil {
        return err
    }
    if err := r.revoked.Revoke(ctx, s.RefreshHash, KindRefresh, s.RefreshExp, reason); err != nil {
        return err
    }
    return r.store.Deactivate(ctx, s.ID)
}
