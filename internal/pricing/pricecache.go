package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomly/internal/shared/constants"
	"roomly/internal/shared/utils/dates"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetPriceRange returns the precomputed min/max/avg bands for a room. Reads
// go hot copy first, then the database row, and fall back to a rebuild when
// the entry is missing or stale. The cache is a latency optimization, never
// the only answer.
func (s *service) GetPriceRange(ctx context.Context, roomID uuid.UUID) (*RoomPriceCache, error) {
	if s.cache != nil {
		var entry RoomPriceCache
		// A degraded hot copy is not an error for the read path
		if err := s.cache.Get(ctx, constants.PriceRangeKey(roomID.String()), &entry); err == nil && !entry.IsExpired(time.Now().UTC()) {
			return &entry, nil
		}
	}

	entry, err := s.repo.GetPriceCache(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.RebuildPriceCache(ctx, roomID)
		}
		return nil, fmt.Errorf("failed to get price cache: %w", err)
	}

	if entry.IsExpired(time.Now().UTC()) {
		return s.RebuildPriceCache(ctx, roomID)
	}

	return entry, nil
}

// RebuildPriceCache recomputes the rolling 30/90-day price statistics from
// the resolver and persists them
func (s *service) RebuildPriceCache(ctx context.Context, roomID uuid.UUID) (*RoomPriceCache, error) {
	now := dates.Normalize(time.Now().UTC())

	quote90, err := s.CalculateStayTotal(ctx, roomID, now, now.AddDate(0, 0, 90))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve 90-day window: %w", err)
	}

	min30, max30, avg30 := priceStats(quote90.Nights[:30])
	min90, max90, avg90 := priceStats(quote90.Nights)

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	entry := &RoomPriceCache{
		RoomID:         roomID,
		MinPrice30:     min30,
		MaxPrice30:     max30,
		AvgPrice30:     avg30,
		MinPrice90:     min90,
		MaxPrice90:     max90,
		AvgPrice90:     avg90,
		PriceBand:      classifyBand(avg30, room.DefaultPrice),
		DataValidUntil: time.Now().UTC().Add(s.rangeTTL),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := s.repo.UpsertPriceCache(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to persist price cache: %w", err)
	}

	if s.cache != nil {
		// Hot copy write failure only costs latency on the next read
		_ = s.cache.Set(ctx, constants.PriceRangeKey(roomID.String()), entry, s.rangeTTL)
	}

	return entry, nil
}

// InvalidateRoom drops the hot copy and expires the database entry so the
// next read rebuilds. Implements rooms.PriceCacheInvalidator.
func (s *service) InvalidateRoom(ctx context.Context, roomID uuid.UUID) error {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, constants.PriceRangeKey(roomID.String())); err != nil {
			return fmt.Errorf("failed to drop price range hot copy: %w", err)
		}
	}

	entry, err := s.repo.GetPriceCache(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get price cache: %w", err)
	}

	entry.DataValidUntil = time.Now().UTC()
	if err := s.repo.UpsertPriceCache(ctx, entry); err != nil {
		return fmt.Errorf("failed to expire price cache: %w", err)
	}

	return nil
}

func priceStats(nights []NightPrice) (min, max, avg float64) {
	if len(nights) == 0 {
		return 0, 0, 0
	}

	min = nights[0].Price
	max = nights[0].Price
	var sum float64

	for _, n := range nights {
		if n.Price < min {
			min = n.Price
		}
		if n.Price > max {
			max = n.Price
		}
		sum += n.Price
	}

	return min, max, sum / float64(len(nights))
}

// classifyBand buckets a room by how its rolling average compares to its own
// default price
func classifyBand(avg, defaultPrice float64) string {
	if defaultPrice <= 0 {
		return PriceBandStandard
	}

	ratio := avg / defaultPrice
	switch {
	case ratio < 0.9:
		return PriceBandBudget
	case ratio < 1.1:
		return PriceBandStandard
	case ratio < 1.5:
		return PriceBandPremium
	default:
		return PriceBandLuxury
	}
}
