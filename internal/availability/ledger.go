package availability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"roomly/internal/rooms"
	"roomly/internal/shared/constants"
	"roomly/internal/shared/utils/dates"
	"roomly/pkg/logger"

	"github.com/google/uuid"
)

// The availability ledger is a Redis projection of per-night available counts
// under roomly:ledger:{roomId}:{date}. It is an acceleration layer only:
// entries expire, gaps are expected, and every gap falls back to a live
// recomputation. The relational store stays authoritative.

// GenerateLedger recomputes and writes ledger entries for the given rooms
// over [start, end) in one batch. Rooms that no longer exist are skipped.
func (s *service) GenerateLedger(ctx context.Context, roomIDs []uuid.UUID, start, end time.Time) error {
	start = dates.Normalize(start)
	end = dates.Normalize(end)
	if !end.After(start) {
		return ErrInvalidRange
	}
	if len(roomIDs) == 0 {
		return nil
	}

	roomList, err := s.roomRepo.GetRoomsByIDs(ctx, roomIDs)
	if err != nil {
		return fmt.Errorf("failed to load rooms for ledger: %w", err)
	}
	if len(roomList) == 0 {
		return nil
	}

	presentIDs := make([]uuid.UUID, 0, len(roomList))
	for _, room := range roomList {
		presentIDs = append(presentIDs, room.ID)
	}

	overrides, err := s.roomRepo.GetOverridesForRooms(ctx, presentIDs, start, end)
	if err != nil {
		return fmt.Errorf("failed to load overrides for ledger: %w", err)
	}
	overridesByRoom := make(map[uuid.UUID][]rooms.RoomAvailabilityOverride)
	for _, ov := range overrides {
		overridesByRoom[ov.RoomID] = append(overridesByRoom[ov.RoomID], ov)
	}

	spansByRoom, err := s.repo.GetConsumingSpansForRooms(ctx, presentIDs, start, end)
	if err != nil {
		return err
	}

	entries := make(map[string]interface{})
	for i := range roomList {
		room := &roomList[i]
		days := computeAvailability(room, overridesByRoom[room.ID], spansByRoom[room.ID], start, end)
		for _, d := range days {
			entries[constants.LedgerKey(room.ID.String(), d.Date)] = d.Available
		}
	}

	if err := s.cache.MSet(ctx, entries, s.entryTTL); err != nil {
		return fmt.Errorf("failed to write ledger entries: %w", err)
	}
	return nil
}

// WarmupRoomLedger refreshes the ledger slice for one room, typically right
// after a write that changed its availability.
func (s *service) WarmupRoomLedger(ctx context.Context, roomID uuid.UUID, start, end time.Time) error {
	return s.GenerateLedger(ctx, []uuid.UUID{roomID}, start, end)
}

// TryGetMinAvailable answers a stay query purely from ledger entries. It
// reports coverage in the second return: false whenever any night of the
// stay is missing, any entry is unparseable, or the cache read fails. The
// caller decides what a coverage gap means; this method never guesses.
func (s *service) TryGetMinAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int, bool) {
	nights := dates.InRange(checkIn, checkOut)
	if len(nights) == 0 {
		return 0, false
	}

	keys := make([]string, 0, len(nights))
	for _, night := range nights {
		keys = append(keys, constants.LedgerKey(roomID.String(), night))
	}

	values, err := s.cache.MGetRaw(ctx, keys)
	if err != nil {
		logger.GetDefault().DebugWithContext(ctx, "ledger read failed, falling back to live computation",
			map[string]interface{}{"room_id": roomID.String(), "error": err.Error()})
		return 0, false
	}

	min := 0
	for i, raw := range values {
		if raw == nil {
			return 0, false
		}
		str, ok := raw.(string)
		if !ok {
			return 0, false
		}
		count, err := strconv.Atoi(str)
		if err != nil {
			return 0, false
		}
		if i == 0 || count < min {
			min = count
		}
	}
	return min, true
}
