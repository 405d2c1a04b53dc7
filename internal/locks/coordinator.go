package locks

import (
	"context"
	"time"

	"roomly/internal/shared/constants"
	"roomly/internal/shared/utils/dates"
	"roomly/pkg/lock"
	"roomly/pkg/logger"

	"github.com/google/uuid"
)

// RangeLocker serializes writers on a room's date range. Two attempts whose
// ranges share at least one night cannot both hold all their keys, so the
// overlap guarantee falls out of per-night exclusion.
type RangeLocker interface {
	AcquireRange(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (string, bool)
	ReleaseRange(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, token string) bool
	ExtendRange(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, token string) bool
}

// Coordinator implements RangeLocker by composing the single-key lock
// primitive across every night of [checkIn, checkOut)
type Coordinator struct {
	locker lock.Locker
	ttl    time.Duration
}

// NewCoordinator creates a multi-date lock coordinator with the given
// per-attempt TTL
func NewCoordinator(locker lock.Locker, ttl time.Duration) *Coordinator {
	return &Coordinator{
		locker: locker,
		ttl:    ttl,
	}
}

// AcquireRange takes one lock key per night in ascending date order, all
// sharing one freshly generated token. If any key is contended, or the cache
// is unreachable (which must never be read as "granted"), every key acquired
// so far is released and the attempt reports failure with no partial holds
// left behind.
func (c *Coordinator) AcquireRange(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (string, bool) {
	nights := dates.InRange(checkIn, checkOut)
	if len(nights) == 0 {
		return "", false
	}

	token := lock.NewToken()
	acquired := make([]string, 0, len(nights))

	for _, night := range nights {
		key := constants.BookingLockKey(roomID.String(), night)

		ok, err := c.locker.Acquire(ctx, key, token, c.ttl)
		if err != nil || !ok {
			if err != nil {
				logger.GetDefault().ErrorWithContext(ctx, "lock acquire failed, treating as contention", err,
					map[string]interface{}{"key": key})
			}
			c.releaseKeys(ctx, roomID, acquired, token)
			return "", false
		}

		acquired = append(acquired, key)
	}

	return token, true
}

// ReleaseRange walks the same derived keys and releases each. One key
// failing to release (already expired, cache hiccup) does not abort the
// rest; the leftover self-heals when its TTL lapses.
func (c *Coordinator) ReleaseRange(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, token string) bool {
	keys := make([]string, 0)
	for _, night := range dates.InRange(checkIn, checkOut) {
		keys = append(keys, constants.BookingLockKey(roomID.String(), night))
	}

	return c.releaseKeys(ctx, roomID, keys, token)
}

// ExtendRange bumps the TTL on every key of a held range. Any miss means the
// range is no longer fully owned and the caller must abort.
func (c *Coordinator) ExtendRange(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, token string) bool {
	for _, night := range dates.InRange(checkIn, checkOut) {
		key := constants.BookingLockKey(roomID.String(), night)

		ok, err := c.locker.Extend(ctx, key, token, c.ttl)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (c *Coordinator) releaseKeys(ctx context.Context, roomID uuid.UUID, keys []string, token string) bool {
	var failed []string

	for _, key := range keys {
		ok, err := c.locker.Release(ctx, key, token)
		if err != nil || !ok {
			failed = append(failed, key)
		}
	}

	if len(failed) > 0 {
		logger.GetDefault().LogPartialLockRelease(ctx, roomID.String(), failed)
		return false
	}

	return true
}
