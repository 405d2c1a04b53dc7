package constants

import (
	"fmt"
	"time"
)

// Redis key layout for the Roomly engine.
// Pattern: roomly:{module}:{operation}:{identifier}:{params?}
// Date-lock keys are the exception: their `booking:{roomId}:{date}` shape is
// part of the locking contract and shared by every writer.

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_LONG = 24 * time.Hour   // room metadata, price range cache
	TTL_SEMI_STATIC = 1 * time.Hour    // pricing rule lookups
	TTL_DYNAMIC     = 5 * time.Minute  // availability snapshots
	TTL_REALTIME    = 30 * time.Second // live min-available counts
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "roomly"
)

// Availability ledger keys
const (
	// CACHE_KEY_LEDGER + ":{roomId}:{yyyy-mm-dd}" holds the available unit
	// count for one room-night
	CACHE_KEY_LEDGER = CACHE_PREFIX + ":ledger"
)

// Price range cache keys
const (
	// CACHE_KEY_PRICE_RANGE + ":{roomId}" holds the hot copy of the room's
	// price band entry
	CACHE_KEY_PRICE_RANGE = CACHE_PREFIX + ":price_range"
)

// Date-range lock keys (shared contract, no roomly prefix)
const (
	LOCK_KEY_BOOKING = "booking"
)

// LedgerKey builds the ledger key for one room-night
func LedgerKey(roomID string, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", CACHE_KEY_LEDGER, roomID, date.Format("2006-01-02"))
}

// PriceRangeKey builds the price range cache key for a room
func PriceRangeKey(roomID string) string {
	return fmt.Sprintf("%s:%s", CACHE_KEY_PRICE_RANGE, roomID)
}

// BookingLockKey builds the per-night exclusion key used by the multi-date
// lock coordinator
func BookingLockKey(roomID string, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", LOCK_KEY_BOOKING, roomID, date.Format("2006-01-02"))
}
