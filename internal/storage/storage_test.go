package storage

import (
    "bytes"
    "context"
    "io"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLocalPutGetRoundTrip(t *testing.T) {
    s := NewLocal(t.TempDir(), "url-secret")
    ctx := context.Background()

    content := []byte("lease agreement pdf bytes")
    key, size, err := s.Put(ctx, bytes.NewReader(content))
    require.NoError(t, err)
    assert.Len(t, key, 32)
    assert.Equal(t, int64(len(content)), size)

    rc, err := s.Get(ctx, key)
    require.NoError(t, err)
    defer rc.Close()
    got, err := io.ReadAll(rc)
    require.NoError(t, err)
    assert.Equal(t, content, got)
}

func TestLocalGetUnknownKey(t *testing.T) {
    s := NewLocal(t.TempDir(), "url-secret")
    _, err := s.Get(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef")
    require.ErrorIs(t, err, ErrNotFound)
}

func TestSignedURLVerification(t *testing.T) {
    s := NewLocal(t.TempDir(), "url-secret")
    now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
    s.now = func() time.Time { return now }

    exp := now.Add(15 * time.Minute).Unix()
    sig := s.Sign("somekey", exp)

    assert.True(t, s.Verify("somekey", exp, sig))
    // Tampering with any signed component invalidates the link.
    assert.False(t, s.Verify("otherkey", exp, sig))
    assert.False(t, s.Verify("somekey", exp+1, sig))
    assert.False(t, s.Verify("somekey", exp, sig+"00"))

    // Past the expiry even the genuine signature is rejected.
    s.now = func() time.Time { return now.Add(16 * time.Minute) }
    assert.False(t, s.Verify("somekey", exp, sig))
}

func TestSignDependsOnSecret(t *testing.T) {
    a := NewLocal(t.TempDir(), "secret-a")
    b := NewLocal(t.TempDir(), "secret-b")
    exp := time.Now().Add(time.Hour).Unix()
    assert.NotEqual(t, a.Sign("k", exp), b.Sign("k", exp))
}
