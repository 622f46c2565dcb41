package auth

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/karthicware/ultra-bms-sub010/internal/config"
    "github.com/karthicware/ultra-bms-sub010/internal/utils"
)

// Account is the credential holder as the gate sees it.  FailedLogins and
// LockedUntil implement the slow, persistent lockout; the fast in-window
// limiter lives in the AttemptStore.
type Account struct {
    ID           uint64
    OrgID        uint64
    Email        string
    PasswordHash string
    Role         string
    Active       bool
    FailedLogins int
    LockedUntil  *time.Time
}

// AccountStore is the persistence surface the gate needs.  The MySQL
// implementation is repository.AccountRepo.
type AccountStore interface {
    ByEmail(ctx context.Context, email string) (Account, error)
    ByID(ctx context.Context, id uint64) (Account, error)
    // RegisterFailure bumps the account's failure counter and, when the
    // counter reaches threshold, sets a lockout until now+lockFor.  Returns
    // the lockout expiry when one is in effect after the call.
    RegisterFailure(ctx context.Context, id uint64, threshold int, lockFor time.Duration, now time.Time) (*time.Time, error)
    // ClearFailures zeroes the failure counter and lifts any lockout.
    ClearFailures(ctx context.Context, id uint64) error
}

// ErrAccountNotFound is the sentinel AccountStore implementations return
// for unknown identities.  Defined here so the gate stays store-agnostic.
var ErrAccountNotFound = errors.New("account not found")

// AuthSession is the result of a successful authentication or refresh.
type AuthSession struct {
    Account Account
    Session Session
    Access  utils.AccessToken
    Refresh utils.RefreshToken
}

// CredentialGate validates identities and issues sessions.  Two independent
// failure mechanisms guard it: the in-window attempt counter (fail-fast,
// never touches bcrypt) and the persistent account lockout with a larger
// threshold.  A verified success clears both in the same request scope as
// session creation.
type CredentialGate struct {
    accounts AccountStore
    attempts AttemptStore
    registry *Registry
    policy   config.AuthPolicy

    secret         string
    accessTTLMin   int
    refreshTTLDays int

    now func() time.Time
}

// NewCredentialGate wires a gate from its collaborators.
func NewCredentialGate(accounts AccountStore, attempts AttemptStore, registry *Registry, policy config.AuthPolicy, secret string, accessTTLMin, refreshTTLDays int) *CredentialGate {
    return &CredentialGate{
        accounts:       accounts,
        attempts:       attempts,
        registry:       registry,
        policy:         policy,
        secret:         secret,
        accessTTLMin:   accessTTLMin,
        refreshTTLDays: refreshTTLDays,
        now:            time.Now,
    }
}

// WithClock overrides the gate's time source for tests.
func (g *CredentialGate) WithClock(now func() time.Time) *CredentialGate {
    g.now = now
    return g
}

// Authenticate checks the identity and secret and, on success, creates a
// session and issues a token pair.  Failure modes, in evaluation order:
// ErrRateLimited (window tripped; password not checked), ErrAccountLocked
// (lockout in effect), ErrInvalidCredential (unknown identity or wrong
// password).
func (g *CredentialGate) Authenticate(ctx context.Context, email, password string) (AuthSession, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    if email == "" || password == "" {
        return AuthSession{}, ErrInvalidCredential
    }
    now := g.now().UTC()

    n, err := g.attempts.Count(ctx, email)
    if err != nil {
        return AuthSession{}, err
    }
    if n >= g.policy.MaxAttempts {
        return AuthSession{}, ErrRateLimited
    }

    acct, err := g.accounts.ByEmail(ctx, email)
    if err != nil {
        if errors.Is(err, ErrAccountNotFound) {
            // Unknown identities still consume window budget, otherwise an
            // attacker could probe for valid emails without tripping it.
            if _, ferr := g.attempts.Fail(ctx, email); ferr != nil {
                return AuthSession{}, ferr
            }
            return AuthSession{}, ErrInvalidCredential
        }
        return AuthSession{}, err
    }
    if !acct.Active {
        return AuthSession{}, ErrInvalidCredential
    }
    if acct.LockedUntil != nil && now.Before(*acct.LockedUntil) {
        return AuthSession{}, ErrAccountLocked
    }

    if !utils.VerifyPassword(acct.PasswordHash, password) {
        if _, ferr := g.attempts.Fail(ctx, email); ferr != nil {
            return AuthSession{}, ferr
        }
        lockedUntil, ferr := g.accounts.RegisterFailure(ctx, acct.ID, g.policy.LockThreshold, g.policy.LockDuration, now)
        if ferr != nil {
            return AuthSession{}, ferr
        }
        if lockedUntil != nil {
            return AuthSession{}, ErrAccountLocked
        }
        return AuthSession{}, ErrInvalidCredential
    }

    // Verified success: clear both failure mechanisms, then create the
    // session.  All of it happens in this request scope so a client never
    // observes a successful login that left stale lockout state behind.
    if err := g.attempts.Reset(ctx, email); err != nil {
        return AuthSession{}, err
    }
    if err := g.accounts.ClearFailures(ctx, acct.ID); err != nil {
        return AuthSession{}, err
    }
    return g.openSession(ctx, acct)
}

// Refresh exchanges a valid refresh token for a new token pair, rotating
// the refresh token.  The session keeps its creation time, so the absolute
// timeout still counts from the original login.
func (g *CredentialGate) Refresh(ctx context.Context, rawRefresh string) (AuthSession, error) {
    rawRefresh = strings.TrimSpace(rawRefresh)
    if rawRefresh == "" {
        return AuthSession{}, ErrInvalidCredential
    }
    hash := utils.HashToken(rawRefresh)

    revoked, err := g.registry.revoked.IsRevoked(ctx, hash)
    if err != nil {
        return AuthSession{}, err
    }
    if revoked {
        return AuthSession{}, ErrInvalidCredential
    }

    sess, err := g.registry.ByRefreshHash(ctx, hash)
    if err != nil {
        return AuthSession{}, ErrInvalidCredential
    }
    acct, err := g.accounts.ByID(ctx, sess.AccountID)
    if err != nil || !acct.Active {
        return AuthSession{}, ErrInvalidCredential
    }

    access, err := utils.NewAccessToken(g.secret, acct.ID, acct.OrgID, acct.Role, sess.ID, g.accessTTLMin)
    if err != nil {
        return AuthSession{}, err
    }
    refresh, err := utils.NewRefreshToken(g.refreshTTLDays)
    if err != nil {
        return AuthSession{}, err
    }
    if err := g.registry.Rotate(ctx, sess, utils.HashToken(access.Token), access.Exp, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
        return AuthSession{}, err
    }
    sess.AccessHash = utils.HashToken(access.Token)
    sess.AccessExp = access.Exp
    sess.RefreshHash = utils.HashToken(refresh.Raw)
    sess.RefreshExp = refresh.Exp
    return AuthSession{Account: acct, Session: sess, Access: access, Refresh: refresh}, nil
}

// openSession mints the token pair and registers the session under the
// concurrency cap.
func (g *CredentialGate) openSession(ctx context.Context, acct Account) (AuthSession, error) {
    sid := uuid.NewString()
    access, err := utils.NewAccessToken(g.secret, acct.ID, acct.OrgID, acct.Role, sid, g.accessTTLMin)
    if err != nil {
        return AuthSession{}, err
    }
    refresh, err := utils.NewRefreshToken(g.refreshTTLDays)
    if err != nil {
        return AuthSession{}, err
    }
    sess := Session{
        ID:          sid,
        AccountID:   acct.ID,
        AccessHash:  utils.HashToken(access.Token),
        AccessExp:   access.Exp,
        RefreshHash: utils.HashToken(refresh.Raw),
        RefreshExp:  refresh.Exp,
    }
    if err := g.registry.Create(ctx, &sess); err != nil {
        return AuthSession{}, err
    }
    return AuthSession{Account: acct, Session: sess, Access: access, Refresh: refresh}, nil
}
