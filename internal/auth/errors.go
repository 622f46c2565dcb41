// Package auth implements the stateful security core of the service: the
// credential gate (failed-attempt rate limiting and account lockout), the
// session registry (concurrent session cap, idle and absolute timeouts) and
// the token revocation store.  Persistence is abstracted behind small store
// interfaces so the package can be exercised without a database; the MySQL
// implementations live in internal/repository.
package auth

import "errors"

// ErrRateLimited is returned when an identity has exceeded the allowed
// number of failed attempts inside the rolling window.  The password is
// deliberately not checked in this state.
var ErrRateLimited = errors.New("too many login attempts")

// ErrInvalidCredential is returned for unknown identities and wrong
// passwords alike so the two cases are indistinguishable to a caller.
var ErrInvalidCredential = errors.New("invalid credentials")

// ErrAccountLocked is returned while an account-level lockout is in effect.
var ErrAccountLocked = errors.New("account locked")

// ErrSessionExpired is returned by Touch when a session has passed its idle
// or absolute timeout.  The session has already been revoked when this is
// returned.
var ErrSessionExpired = errors.New("session expired")

// ErrSessionNotFound is returned when a session id resolves to nothing or
// to an already revoked session.
var ErrSessionNotFound = errors.New("session not found")
