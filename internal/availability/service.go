package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomly/internal/rooms"
	"roomly/internal/shared/utils/dates"
	"roomly/pkg/cache"
	"roomly/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidRange = errors.New("check-out date must be after check-in date")
	ErrRoomNotFound = errors.New("room not found")
)

type Service interface {
	// Live computation against the relational truth
	GetDailyAvailability(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]DayAvailability, error)
	ComputeMinAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int, error)
	ComputeBlockedRooms(ctx context.Context, roomIDs []uuid.UUID, checkIn, checkOut time.Time, quantity int) ([]uuid.UUID, error)

	// Ledger-first read with live fallback
	GetMinAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int, error)
	TryGetMinAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int, bool)

	// Ledger maintenance
	GenerateLedger(ctx context.Context, roomIDs []uuid.UUID, start, end time.Time) error
	WarmupRoomLedger(ctx context.Context, roomID uuid.UUID, start, end time.Time) error
	RefreshAllLedgers(ctx context.Context) error
}

type service struct {
	repo        Repository
	roomRepo    rooms.Repository
	cache       cache.Service
	horizonDays int
	entryTTL    time.Duration
}

func NewService(repo Repository, roomRepo rooms.Repository, cacheService cache.Service, horizonDays int, entryTTL time.Duration) Service {
	return &service{
		repo:        repo,
		roomRepo:    roomRepo,
		cache:       cacheService,
		horizonDays: horizonDays,
		entryTTL:    entryTTL,
	}
}

func (s *service) GetDailyAvailability(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]DayAvailability, error) {
	start = dates.Normalize(start)
	end = dates.Normalize(end)
	if !end.After(start) {
		return nil, ErrInvalidRange
	}

	room, err := s.roomRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, ErrRoomNotFound
	}

	overrides, err := s.roomRepo.GetOverridesForRange(ctx, roomID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}

	spans, err := s.repo.GetConsumingSpans(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}

	return computeAvailability(room, overrides, spans, start, end), nil
}

func (s *service) ComputeMinAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int, error) {
	days, err := s.GetDailyAvailability(ctx, roomID, checkIn, checkOut)
	if err != nil {
		return 0, err
	}
	return minAvailable(days), nil
}

// GetMinAvailable prefers the precomputed ledger and recomputes live when the
// ledger has no full coverage for the stay. The fallback path is mandatory:
// a ledger gap must never read as "unavailable".
func (s *service) GetMinAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int, error) {
	if min, ok := s.TryGetMinAvailable(ctx, roomID, checkIn, checkOut); ok {
		return min, nil
	}
	return s.ComputeMinAvailable(ctx, roomID, checkIn, checkOut)
}

// ComputeBlockedRooms returns the ids of candidate rooms that cannot host
// the requested quantity on every night of the stay. An empty candidate set
// means every active room.
func (s *service) ComputeBlockedRooms(ctx context.Context, candidateIDs []uuid.UUID, checkIn, checkOut time.Time, quantity int) ([]uuid.UUID, error) {
	checkIn = dates.Normalize(checkIn)
	checkOut = dates.Normalize(checkOut)
	if !checkOut.After(checkIn) {
		return nil, ErrInvalidRange
	}
	if quantity < 1 {
		quantity = 1
	}

	var activeRooms []rooms.Room
	var err error
	if len(candidateIDs) > 0 {
		activeRooms, err = s.roomRepo.GetRoomsByIDs(ctx, candidateIDs)
	} else {
		activeRooms, err = s.roomRepo.ListActiveRooms(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	if len(activeRooms) == 0 {
		return []uuid.UUID{}, nil
	}

	roomIDs := make([]uuid.UUID, 0, len(activeRooms))
	for _, room := range activeRooms {
		roomIDs = append(roomIDs, room.ID)
	}

	overrides, err := s.roomRepo.GetOverridesForRooms(ctx, roomIDs, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}
	overridesByRoom := make(map[uuid.UUID][]rooms.RoomAvailabilityOverride)
	for _, ov := range overrides {
		overridesByRoom[ov.RoomID] = append(overridesByRoom[ov.RoomID], ov)
	}

	spansByRoom, err := s.repo.GetConsumingSpansForRooms(ctx, roomIDs, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	blocked := make([]uuid.UUID, 0)
	for i := range activeRooms {
		room := &activeRooms[i]
		days := computeAvailability(room, overridesByRoom[room.ID], spansByRoom[room.ID], checkIn, checkOut)
		if minAvailable(days) < quantity {
			blocked = append(blocked, room.ID)
		}
	}
	return blocked, nil
}

// RefreshAllLedgers regenerates the ledger for every active room over the
// configured horizon, starting today. Run periodically so entries roll
// forward as the horizon advances.
func (s *service) RefreshAllLedgers(ctx context.Context) error {
	started := time.Now()

	activeRooms, err := s.roomRepo.ListActiveRooms(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rooms for ledger refresh: %w", err)
	}
	if len(activeRooms) == 0 {
		return nil
	}

	roomIDs := make([]uuid.UUID, 0, len(activeRooms))
	for _, room := range activeRooms {
		roomIDs = append(roomIDs, room.ID)
	}

	start := dates.Normalize(time.Now())
	end := start.AddDate(0, 0, s.horizonDays)
	if err := s.GenerateLedger(ctx, roomIDs, start, end); err != nil {
		return err
	}

	logger.GetDefault().LogLedgerRefresh(ctx, len(roomIDs), time.Since(started))
	return nil
}
