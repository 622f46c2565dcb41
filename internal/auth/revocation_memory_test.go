package auth

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRevocationExpiredEntryIsNotRevoked(t *testing.T) {
    s := NewMemoryRevocationStore()
    ctx := context.Background()
    now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

    require.NoError(t, s.Revoke(ctx, "h1", KindAccess, now.Add(time.Hour), ReasonLogout))

    // Before the token's own expiry the entry holds.
    assert.True(t, s.IsRevokedAt("h1", now.Add(30*time.Minute)))
    // At and after the expiry the token rejects itself anyway, so the entry
    // no longer answers revoked.
    assert.False(t, s.IsRevokedAt("h1", now.Add(time.Hour)))
    assert.False(t, s.IsRevokedAt("h1", now.Add(2*time.Hour)))
    // Unknown hashes are never revoked.
    assert.False(t, s.IsRevokedAt("other", now))
}

func TestRevocationReRevokeKeepsLaterExpiry(t *testing.T) {
    s := NewMemoryRevocationStore()
    ctx := context.Background()
    now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

    require.NoError(t, s.Revoke(ctx, "h1", KindRefresh, now.Add(2*time.Hour), ReasonLogout))
    // Re-revoking with an earlier expiry must not shorten retention.
    require.NoError(t, s.Revoke(ctx, "h1", KindRefresh, now.Add(time.Hour), ReasonSessionLimit))

    assert.True(t, s.IsRevokedAt("h1", now.Add(90*time.Minute)))
    assert.Equal(t, ReasonSessionLimit, s.Reason("h1"))
}

func TestRevocationSweepIsIdempotent(t *testing.T) {
    s := NewMemoryRevocationStore()
    ctx := context.Background()
    now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

    require.NoError(t, s.Revoke(ctx, "h1", KindAccess, now.Add(-time.Minute), ReasonLogout))
    require.NoError(t, s.Revoke(ctx, "h2", KindRefresh, now.Add(-time.Hour), ReasonRotated))
    require.NoError(t, s.Revoke(ctx, "h3", KindAccess, now.Add(time.Hour), ReasonLogout))

    n, err := s.DeleteExpired(ctx, now)
    require.NoError(t, err)
    assert.Equal(t, int64(2), n)
    assert.Equal(t, 1, s.Len())

    // Running the sweep again right away deletes nothing.
    n, err = s.DeleteExpired(ctx, now)
    require.NoError(t, err)
    assert.Equal(t, int64(0), n)

    // The unexpired entry is still enforced.
    assert.True(t, s.IsRevokedAt("h3", now))
}
