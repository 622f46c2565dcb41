package auth

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/karthicware/ultra-bms-sub010/internal/config"
    "github.com/karthicware/ultra-bms-sub010/internal/utils"
)

// fakeAccounts implements AccountStore over a map, with the same
// threshold-and-lockout semantics as the SQL store.
type fakeAccounts struct {
    byID    map[uint64]*Account
    byEmail map[string]*Account
}

func newFakeAccounts() *fakeAccounts {
    return &fakeAccounts{byID: map[uint64]*Account{}, byEmail: map[string]*Account{}}
}

func (f *fakeAccounts) add(a Account) {
    cp := a
    f.byID[a.ID] = &cp
    f.byEmail[a.Email] = &cp
}

func (f *fakeAccounts) ByEmail(_ context.Context, email string) (Account, error) {
    if a, ok := f.byEmail[email]; ok {
        return *a, nil
    }
    return Account{}, ErrAccountNotFound
}

func (f *fakeAccounts) ByID(_ context.Context, id uint64) (Account, error) {
    if a, ok := f.byID[id]; ok {
        return *a, nil
    }
    return Account{}, ErrAccountNotFound
}

func (f *fakeAccounts) RegisterFailure(_ context.Context, id uint64, threshold int, lockFor time.Duration, now time.Time) (*time.Time, error) {
    a := f.byID[id]
    a.FailedLogins++
    if a.FailedLogins >= threshold {
        until := now.Add(lockFor)
        a.LockedUntil = &until
        return &until, nil
    }
    return nil, nil
}

func (f *fakeAccounts) ClearFailures(_ context.Context, id uint64) error {
    a := f.byID[id]
    a.FailedLogins = 0
    a.LockedUntil = nil
    return nil
}

var testPolicy = config.AuthPolicy{
    MaxAttempts:     5,
    AttemptWindow:   15 * time.Minute,
    LockThreshold:   10,
    LockDuration:    30 * time.Minute,
    MaxSessions:     3,
    IdleTimeout:     30 * time.Minute,
    AbsoluteTimeout: 12 * time.Hour,
}

func newTestGate(t *testing.T) (*CredentialGate, *fakeAccounts, *MemoryAttemptStore, func(time.Duration)) {
    t.Helper()
    accounts := newFakeAccounts()
    hash, err := utils.HashPassword("correct horse", bcrypt.MinCost)
    require.NoError(t, err)
    accounts.add(Account{ID: 1, OrgID: 10, Email: "ops@example.com", PasswordHash: hash, Role: "MANAGER", Active: true})

    clock, step := testClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
    attempts := NewMemoryAttemptStore(testPolicy.AttemptWindow)
    attempts.now = clock

    store := newMemorySessionStore()
    revoked := NewMemoryRevocationStore()
    registry := NewRegistry(store, revoked, testPolicy.MaxSessions, testPolicy.IdleTimeout, testPolicy.AbsoluteTimeout).WithClock(clock)

    gate := NewCredentialGate(accounts, attempts, registry, testPolicy, "test-secret", 15, 7).WithClock(clock)
    return gate, accounts, attempts, step
}

func TestAuthenticateSuccess(t *testing.T) {
    gate, _, _, _ := newTestGate(t)
    ctx := context.Background()

    as, err := gate.Authenticate(ctx, "ops@example.com", "correct horse")
    require.NoError(t, err)
    assert.NotEmpty(t, as.Access.Token)
    assert.NotEmpty(t, as.Refresh.Raw)
    assert.Equal(t, uint64(1), as.Session.AccountID)
    assert.True(t, as.Session.Active)

    claims, err := utils.ParseAccessToken("test-secret", as.Access.Token)
    require.NoError(t, err)
    assert.Equal(t, uint64(1), claims.AccountID)
    assert.Equal(t, uint64(10), claims.OrgID)
    assert.Equal(t, "MANAGER", claims.Role)
    assert.Equal(t, as.Session.ID, claims.SessionID)
}

func TestRateLimitWindowTripsWithoutPasswordCheck(t *testing.T) {
    gate, _, _, _ := newTestGate(t)
    ctx := context.Background()

    for i := 0; i < testPolicy.MaxAttempts; i++ {
        _, err := gate.Authenticate(ctx, "ops@example.com", "wrong")
        require.ErrorIs(t, err, ErrInvalidCredential)
    }

    // Attempt N+1 inside the window is rejected even with the correct
    // password.
    _, err := gate.Authenticate(ctx, "ops@example.com", "correct horse")
    require.ErrorIs(t, err, ErrRateLimited)
}

func TestRateLimitWindowElapsesAndSuccessResets(t *testing.T) {
    gate, accounts, attempts, step := newTestGate(t)
    ctx := context.Background()

    for i := 0; i < testPolicy.MaxAttempts; i++ {
        _, err := gate.Authenticate(ctx, "ops@example.com", "wrong")
        require.ErrorIs(t, err, ErrInvalidCredential)
    }
    _, err := gate.Authenticate(ctx, "ops@example.com", "correct horse")
    require.ErrorIs(t, err, ErrRateLimited)

    step(testPolicy.AttemptWindow + time.Second)

    as, err := gate.Authenticate(ctx, "ops@example.com", "correct horse")
    require.NoError(t, err)
    assert.True(t, as.Session.Active)

    // Success cleared both failure mechanisms.
    n, err := attempts.Count(ctx, "ops@example.com")
    require.NoError(t, err)
    assert.Equal(t, 0, n)
    acct, err := accounts.ByID(ctx, 1)
    require.NoError(t, err)
    assert.Equal(t, 0, acct.FailedLogins)
    assert.Nil(t, acct.LockedUntil)
}

func TestAccountLockoutAtThreshold(t *testing.T) {
    gate, accounts, _, step := newTestGate(t)
    ctx := context.Background()

    // Spread failures across windows so the fast limiter never trips and
    // the persistent counter reaches the lockout threshold.
    failures := 0
    for failures < testPolicy.LockThreshold-1 {
        for i := 0; i < testPolicy.MaxAttempts-1 && failures < testPolicy.LockThreshold-1; i++ {
            _, err := gate.Authenticate(ctx, "ops@example.com", "wrong")
            require.ErrorIs(t, err, ErrInvalidCredential)
            failures++
        }
        step(testPolicy.AttemptWindow + time.Second)
    }

    // The failure that reaches the threshold reports the lockout itself.
    _, err := gate.Authenticate(ctx, "ops@example.com", "wrong")
    require.ErrorIs(t, err, ErrAccountLocked)
    acct, err := accounts.ByID(ctx, 1)
    require.NoError(t, err)
    require.NotNil(t, acct.LockedUntil)

    // While locked, even the correct password is rejected.
    step(testPolicy.AttemptWindow + time.Second)
    _, err = gate.Authenticate(ctx, "ops@example.com", "correct horse")
    require.ErrorIs(t, err, ErrAccountLocked)

    // After the lockout expires the correct password works again.
    step(testPolicy.LockDuration)
    as, err := gate.Authenticate(ctx, "ops@example.com", "correct horse")
    require.NoError(t, err)
    assert.True(t, as.Session.Active)
}

func TestUnknownIdentityConsumesWindowBudget(t *testing.T) {
    gate, _, attempts, _ := newTestGate(t)
    ctx := context.Background()

    for i := 0; i < testPolicy.MaxAttempts; i++ {
        _, err := gate.Authenticate(ctx, "ghost@example.com", "whatever")
        require.ErrorIs(t, err, ErrInvalidCredential)
    }
    _, err := gate.Authenticate(ctx, "ghost@example.com", "whatever")
    require.ErrorIs(t, err, ErrRateLimited)

    n, err := attempts.Count(ctx, "ghost@example.com")
    require.NoError(t, err)
    assert.Equal(t, testPolicy.MaxAttempts, n)
}

func TestInactiveAccountRejected(t *testing.T) {
    gate, accounts, _, _ := newTestGate(t)
    ctx := context.Background()

    hash, err := utils.HashPassword("pw123456", bcrypt.MinCost)
    require.NoError(t, err)
    accounts.add(Account{ID: 2, OrgID: 10, Email: "gone@example.com", PasswordHash: hash, Role: "MANAGER", Active: false})

    _, err = gate.Authenticate(ctx, "gone@example.com", "pw123456")
    require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestRefreshRotatesToken(t *testing.T) {
    gate, _, _, _ := newTestGate(t)
    ctx := context.Background()

    as, err := gate.Authenticate(ctx, "ops@example.com", "correct horse")
    require.NoError(t, err)

    rotated, err := gate.Refresh(ctx, as.Refresh.Raw)
    require.NoError(t, err)
    assert.Equal(t, as.Session.ID, rotated.Session.ID)
    assert.NotEqual(t, as.Refresh.Raw, rotated.Refresh.Raw)

    // The old refresh token is blacklisted and cannot be replayed.
    _, err = gate.Refresh(ctx, as.Refresh.Raw)
    require.ErrorIs(t, err, ErrInvalidCredential)

    // The rotated one still works.
    _, err = gate.Refresh(ctx, rotated.Refresh.Raw)
    require.NoError(t, err)
}

func TestConcurrentSessionCapViaGate(t *testing.T) {
    gate, _, _, step := newTestGate(t)
    ctx := context.Background()

    var sessions []AuthSession
    for i := 0; i < 4; i++ {
        as, err := gate.Authenticate(ctx, "ops@example.com", "correct horse")
        require.NoError(t, err)
        sessions = append(sessions, as)
        step(time.Minute)
    }

    // The first session was evicted; its refresh token is dead.
    _, err := gate.Refresh(ctx, sessions[0].Refresh.Raw)
    require.ErrorIs(t, err, ErrInvalidCredential)
    // The newest three still refresh fine.
    for _, as := range sessions[1:] {
        _, err := gate.Refresh(ctx, as.Refresh.Raw)
        require.NoError(t, err)
    }
}
