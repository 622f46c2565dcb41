package auth

import (
    "context"
    "fmt"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestMemoryAttemptStoreWindow(t *testing.T) {
    clock, step := testClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
    s := NewMemoryAttemptStore(15 * time.Minute)
    s.now = clock
    ctx := context.Background()

    for i := 1; i <= 3; i++ {
        n, err := s.Fail(ctx, "a@example.com")
        require.NoError(t, err)
        assert.Equal(t, i, n)
    }

    // Later failures do not extend the window: it is anchored at the first
    // failure.
    step(14 * time.Minute)
    n, err := s.Fail(ctx, "a@example.com")
    require.NoError(t, err)
    assert.Equal(t, 4, n)

    step(time.Minute + time.Second)
    n, err = s.Count(ctx, "a@example.com")
    require.NoError(t, err)
    assert.Equal(t, 0, n)

    // The next failure starts a fresh window.
    n, err = s.Fail(ctx, "a@example.com")
    require.NoError(t, err)
    assert.Equal(t, 1, n)
}

func TestMemoryAttemptStoreReset(t *testing.T) {
    s := NewMemoryAttemptStore(15 * time.Minute)
    ctx := context.Background()

    _, err := s.Fail(ctx, "a@example.com")
    require.NoError(t, err)
    require.NoError(t, s.Reset(ctx, "a@example.com"))

    n, err := s.Count(ctx, "a@example.com")
    require.NoError(t, err)
    assert.Equal(t, 0, n)
}

func TestMemoryAttemptStoreIsolatesIdentities(t *testing.T) {
    s := NewMemoryAttemptStore(15 * time.Minute)
    ctx := context.Background()

    _, err := s.Fail(ctx, "a@example.com")
    require.NoError(t, err)

    n, err := s.Count(ctx, "b@example.com")
    require.NoError(t, err)
    assert.Equal(t, 0, n)
}

func TestMemoryAttemptStorePrunesStaleEntries(t *testing.T) {
    clock, step := testClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
    s := NewMemoryAttemptStore(time.Minute)
    s.now = clock
    ctx := context.Background()

    for i := 0; i < maxEntries; i++ {
        _, err := s.Fail(ctx, fmt.Sprintf("u%d@example.com", i))
        require.NoError(t, err)
    }
    step(2 * time.Minute)
    _, err := s.Fail(ctx, "fresh@example.com")
    require.NoError(t, err)
    assert.LessOrEqual(t, len(s.entries), 2)
}
