package auth

import (
    "context"
    "time"
)

// TokenKind discriminates the two token families a session links to.
type TokenKind string

const (
    KindAccess  TokenKind = "access"
    KindRefresh TokenKind = "refresh"
)

// Revocation reasons recorded alongside blacklist entries.  Free-form
// strings are allowed; these cover the paths the service itself takes.
const (
    ReasonLogout        = "logout"
    ReasonIdleTimeout   = "idle_timeout"
    ReasonAbsoluteAge   = "absolute_timeout"
    ReasonSessionLimit  = "session_limit"
    ReasonRotated       = "rotated"
    ReasonPasswordReset = "password_reset"
)

// RevocationStore records token hashes that must be rejected even though
// their signatures still verify.  Each entry carries the token's own expiry:
// once that passes the token rejects itself and the row is garbage, so
// IsRevoked only honors entries whose expiry is still in the future and
// DeleteExpired reclaims the rest.  Retention therefore always covers the
// token's validity window.
type RevocationStore interface {
    // Revoke records hash as rejected until expiresAt.  Re-revoking an
    // already present hash must not fail.
    Revoke(ctx context.Context, hash string, kind TokenKind, expiresAt time.Time, reason string) error

    // IsRevoked reports whether hash has an unexpired revocation entry.
    IsRevoked(ctx context.Context, hash string) (bool, error)

    // DeleteExpired removes entries whose expiry is at or before now and
    // returns how many were deleted.  Running it twice in a row is a no-op
    // the second time.
    DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
