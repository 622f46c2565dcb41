package config

import "time"

// AuthPolicy groups the security knobs for the credential gate and the
// session registry.  Two independent failure thresholds exist on purpose:
// MaxAttempts guards a rolling window and trips fast (no password check),
// while LockThreshold counts cumulative failures on the account row and
// trips a timed lockout that survives restarts.
type AuthPolicy struct {
    MaxAttempts     int           // failed attempts allowed inside AttemptWindow
    AttemptWindow   time.Duration // rolling window for the attempt counter
    LockThreshold   int           // cumulative failures before account lockout
    LockDuration    time.Duration // how long a locked account stays locked
    MaxSessions     int           // concurrent active sessions per account
    IdleTimeout     time.Duration // session expires after this much inactivity
    AbsoluteTimeout time.Duration // session expires this long after creation
}

// LoadAuthPolicy reads the auth policy from environment variables, falling
// back to defaults that match the documented behaviour of the system.
func LoadAuthPolicy() AuthPolicy {
    p := AuthPolicy{
        MaxAttempts:     envInt("AUTH_MAX_ATTEMPTS", 5),
        AttemptWindow:   envDur("AUTH_ATTEMPT_WINDOW", 15*time.Minute),
        LockThreshold:   envInt("AUTH_LOCK_THRESHOLD", 10),
        LockDuration:    envDur("AUTH_LOCK_DURATION", 30*time.Minute),
        MaxSessions:     envInt("AUTH_MAX_SESSIONS", 3),
        IdleTimeout:     envDur("AUTH_IDLE_TIMEOUT", 30*time.Minute),
        AbsoluteTimeout: envDur("AUTH_ABSOLUTE_TIMEOUT", 12*time.Hour),
    }
    if p.MaxAttempts < 1 {
        p.MaxAttempts = 1
    }
    if p.LockThreshold < p.MaxAttempts {
        p.LockThreshold = p.MaxAttempts
    }
    if p.MaxSessions < 1 {
        p.MaxSessions = 1
    }
    return p
}
