package auth

import (
    "context"
    "errors"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisAttemptStore counts failed attempts in Redis so the limit holds
// across all instances of the service.  The window starts at the first
// failure: the key gets its TTL exactly once, and the whole entry expires
// together with the window.
type RedisAttemptStore struct {
    rdb    *redis.Client
    prefix string
    window time.Duration
}

// NewRedisAttemptStore builds a store with the given key prefix and window.
func NewRedisAttemptStore(rdb *redis.Client, prefix string, window time.Duration) *RedisAttemptStore {
    if prefix == "" {
        prefix = "login_attempts"
    }
    return &RedisAttemptStore{rdb: rdb, prefix: prefix, window: window}
}

// failScript increments the counter and arms the window TTL on first
// failure only, so later failures never extend the window.
var failScript = redis.NewScript(`
    local c = redis.call('INCR', KEYS[1])
    if c == 1 then
        redis.call('PEXPIRE', KEYS[1], ARGV[1])
    end
    return c
`)

func (s *RedisAttemptStore) key(id string) string { return s.prefix + ":" + id }

// Fail records one failed attempt and returns the in-window count.
func (s *RedisAttemptStore) Fail(ctx context.Context, id string) (int, error) {
    n, err := failScript.Run(ctx, s.rdb, []string{s.key(id)}, s.window.Milliseconds()).Int()
    if err != nil {
        return 0, err
    }
    return n, nil
}

// Count returns the current in-window count without recording an attempt.
func (s *RedisAttemptStore) Count(ctx context.Context, id string) (int, error) {
    n, err := s.rdb.Get(ctx, s.key(id)).Int()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return 0, nil
        }
        return 0, err
    }
    return n, nil
}

// Reset clears the counter for id.
func (s *RedisAttemptStore) Reset(ctx context.Context, id string) error {
    return s.rdb.Del(ctx, s.key(id)).Err()
}
