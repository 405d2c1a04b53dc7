package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker is the distributed mutual-exclusion primitive. A lock is a Redis key
// holding an owner token with a TTL. Acquire succeeds only when the key is
// absent or already expired. Release and Extend verify ownership atomically so
// a holder whose lock expired and was re-acquired by someone else can never
// touch the new holder's lock.
type Locker interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) (bool, error)
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}

// RedisLocker implements Locker on top of a shared Redis instance
type RedisLocker struct {
	redis *redis.Client
}

// NewRedisLocker creates a new Redis-backed locker
func NewRedisLocker(redisClient *redis.Client) *RedisLocker {
	return &RedisLocker{
		redis: redisClient,
	}
}

// Lua script for atomic check-and-delete release. Deleting unconditionally
// would allow releasing a lock that expired and was re-acquired by another
// holder between our expiry and our release call.
const luaCheckAndRelease = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

// Lua script for atomic check-and-extend. Same ownership rule as release.
const luaCheckAndExtend = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return 0
`

// NewToken generates an owner token for a lock attempt
func NewToken() string {
	return uuid.New().String()
}

// Acquire attempts to take the lock in a single round-trip (SET key token NX EX ttl).
// A false result means another holder owns the key, or the cache was unreachable;
// callers must treat both the same way and never assume the lock was granted.
func (l *RedisLocker) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if l.redis == nil {
		return false, fmt.Errorf("redis client not available")
	}

	ok, err := l.redis.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	return ok, nil
}

// Release removes the lock if and only if it is still owned by token.
// Returns false when the key is absent, expired, or owned by someone else.
func (l *RedisLocker) Release(ctx context.Context, key, token string) (bool, error) {
	if l.redis == nil {
		return false, fmt.Errorf("redis client not available")
	}

	result, err := l.redis.Eval(ctx, luaCheckAndRelease, []string{key}, token).Result()
	if err != nil {
		return false, fmt.Errorf("failed to release lock %s: %w", key, err)
	}

	deleted, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result from release script")
	}

	return deleted == 1, nil
}

// Extend bumps the TTL if the lock is still owned by token. A false result is
// never fatal: it means the lock was lost and the caller must abort its work.
func (l *RedisLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if l.redis == nil {
		return false, fmt.Errorf("redis client not available")
	}

	seconds := int(ttl.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	result, err := l.redis.Eval(ctx, luaCheckAndExtend, []string{key}, token, seconds).Result()
	if err != nil {
		return false, fmt.Errorf("failed to extend lock %s: %w", key, err)
	}

	extended, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result from extend script")
	}

	return extended == 1, nil
}
