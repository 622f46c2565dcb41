package auth

import "context"

// AttemptStore tracks failed login attempts per identity inside a rolling
// window.  The canonical implementation is Redis-backed so the counter is
// shared across service instances; the in-memory implementation exists as a
// degraded single-instance fallback and as a test double.  Entries evict
// themselves once the window passes, so no sweep is needed for this store.
type AttemptStore interface {
    // Fail records one failed attempt for key and returns the attempt count
    // inside the current window, including this one.
    Fail(ctx context.Context, key string) (int, error)

    // Count returns the attempt count inside the current window without
    // recording anything.
    Count(ctx context.Context, key string) (int, error)

    // Reset clears the counter for key.  Called only on verified successful
    // authentication.
    Reset(ctx context.Context, key string) error
}
