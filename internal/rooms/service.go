package rooms

import (
	"context"
	"fmt"
	"time"

	"roomly/internal/shared/utils/dates"
	"roomly/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// LedgerWarmer rebuilds a room's availability ledger slice after a calendar
// write (interface here to avoid a dependency cycle with the availability
// package)
type LedgerWarmer interface {
	WarmupRoomLedger(ctx context.Context, roomID uuid.UUID, start, end time.Time) error
}

// PriceCacheInvalidator drops a room's precomputed price range entry when an
// override touches pricing
type PriceCacheInvalidator interface {
	InvalidateRoom(ctx context.Context, roomID uuid.UUID) error
}

// Service interface defines the contract for room and calendar management
type Service interface {
	GetRoom(ctx context.Context, id string) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	GetCalendar(ctx context.Context, roomID string, start, end time.Time) ([]RoomAvailabilityOverride, error)
	BulkSetAvailability(ctx context.Context, roomID string, req BulkAvailabilityRequest) (int, error)
}

// ServiceWithInjection extends Service with late-bound dependencies that are
// wired after all feature packages are constructed
type ServiceWithInjection interface {
	Service
	SetLedgerWarmer(ledger LedgerWarmer)
	SetPriceCacheInvalidator(inv PriceCacheInvalidator)
}

type service struct {
	repo             Repository
	ledger           LedgerWarmer
	priceInvalidator PriceCacheInvalidator
	validate         *validator.Validate
}

func NewService(repo Repository) ServiceWithInjection {
	return &service{
		repo:     repo,
		validate: validator.New(),
	}
}

// SetLedgerWarmer injects the availability ledger dependency
func (s *service) SetLedgerWarmer(ledger LedgerWarmer) {
	s.ledger = ledger
}

// SetPriceCacheInvalidator injects the pricing cache dependency
func (s *service) SetPriceCacheInvalidator(inv PriceCacheInvalidator) {
	s.priceInvalidator = inv
}

func (s *service) GetRoom(ctx context.Context, id string) (*Room, error) {
	roomID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid room ID: %w", err)
	}

	return s.repo.GetRoomByID(ctx, roomID)
}

func (s *service) ListRooms(ctx context.Context) ([]Room, error) {
	return s.repo.ListActiveRooms(ctx)
}

func (s *service) GetCalendar(ctx context.Context, roomID string, start, end time.Time) ([]RoomAvailabilityOverride, error) {
	id, err := uuid.Parse(roomID)
	if err != nil {
		return nil, fmt.Errorf("invalid room ID: %w", err)
	}

	return s.repo.GetOverridesForRange(ctx, id, dates.Normalize(start), dates.Normalize(end))
}

// BulkSetAvailability upserts calendar overrides for the given dates and
// warms the affected ledger slice so search reads see the change without
// waiting for the next batch rebuild.
func (s *service) BulkSetAvailability(ctx context.Context, roomID string, req BulkAvailabilityRequest) (int, error) {
	if err := s.validate.Struct(req); err != nil {
		return 0, fmt.Errorf("invalid availability request: %w", err)
	}

	id, err := uuid.Parse(roomID)
	if err != nil {
		return 0, fmt.Errorf("invalid room ID: %w", err)
	}

	// Room must exist; overrides without a room are orphans
	if _, err := s.repo.GetRoomByID(ctx, id); err != nil {
		return 0, fmt.Errorf("failed to get room: %w", err)
	}

	if req.AvailableCount != nil && *req.AvailableCount < 0 {
		return 0, fmt.Errorf("available count cannot be negative")
	}
	if req.OverridePrice != nil && *req.OverridePrice < 0 {
		return 0, fmt.Errorf("override price cannot be negative")
	}

	var overrides []RoomAvailabilityOverride
	var minDate, maxDate time.Time
	seen := make(map[time.Time]bool)

	for _, dateStr := range req.Dates {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return 0, fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
		day := dates.Normalize(date)
		if seen[day] {
			continue
		}
		seen[day] = true

		overrides = append(overrides, RoomAvailabilityOverride{
			RoomID:         id,
			Date:           day,
			IsAvailable:    req.IsAvailable,
			OverridePrice:  req.OverridePrice,
			AvailableCount: req.AvailableCount,
			UpdatedAt:      time.Now().UTC(),
		})

		if minDate.IsZero() || day.Before(minDate) {
			minDate = day
		}
		if maxDate.IsZero() || day.After(maxDate) {
			maxDate = day
		}
	}

	if len(overrides) == 0 {
		return 0, fmt.Errorf("no dates specified")
	}

	updated, err := s.repo.UpsertOverrides(ctx, overrides)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert overrides: %w", err)
	}

	// Warm the ledger for the touched window; failure degrades to a live
	// recomputation on the next read, never to a wrong answer
	if s.ledger != nil {
		if err := s.ledger.WarmupRoomLedger(ctx, id, minDate, maxDate.AddDate(0, 0, 1)); err != nil {
			logger.GetDefault().ErrorWithContext(ctx, "ledger warmup after override write failed", err,
				map[string]interface{}{"room_id": roomID})
		}
	}

	// Price overrides shift the precomputed price bands
	if s.priceInvalidator != nil && req.OverridePrice != nil {
		if err := s.priceInvalidator.InvalidateRoom(ctx, id); err != nil {
			logger.GetDefault().ErrorWithContext(ctx, "price cache invalidation failed", err,
				map[string]interface{}{"room_id": roomID})
		}
	}

	return updated, nil
}
