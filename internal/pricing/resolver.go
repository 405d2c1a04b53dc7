package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomly/internal/rooms"
	"roomly/internal/shared/utils/dates"

	"github.com/google/uuid"
)

// ErrInvalidStayRange is returned when checkOut <= checkIn
var ErrInvalidStayRange = errors.New("check-out date must be after check-in date")

// NightPrice is one resolved night of a stay
type NightPrice struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// StayQuote is the priced result of a stay range
type StayQuote struct {
	RoomID   string       `json:"room_id"`
	CheckIn  time.Time    `json:"check_in"`
	CheckOut time.Time    `json:"check_out"`
	Nights   []NightPrice `json:"nights"`
	Total    float64      `json:"total"`
}

// Service interface defines the contract for price resolution
type Service interface {
	ResolvePrice(ctx context.Context, roomID uuid.UUID, date time.Time, stayNights int) (float64, error)
	CalculateStayTotal(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (*StayQuote, error)

	// Rule management
	CreateRule(ctx context.Context, req CreateRuleRequest) (*RoomPricingRule, error)
	ListRules(ctx context.Context, roomID uuid.UUID) ([]RoomPricingRule, error)
	DeactivateRule(ctx context.Context, ruleID uuid.UUID) error

	// Price range cache
	GetPriceRange(ctx context.Context, roomID uuid.UUID) (*RoomPriceCache, error)
	RebuildPriceCache(ctx context.Context, roomID uuid.UUID) (*RoomPriceCache, error)
	InvalidateRoom(ctx context.Context, roomID uuid.UUID) error
}

type service struct {
	repo     Repository
	rangeTTL time.Duration
	cache    RangeCache
}

// RangeCache is the hot copy of price range entries (backed by Redis; nil
// disables the hot path and reads hit the database)
type RangeCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func NewService(repo Repository, rangeTTL time.Duration) *service {
	return &service{
		repo:     repo,
		rangeTTL: rangeTTL,
	}
}

// SetRangeCache injects the Redis-backed hot copy for price range reads
func (s *service) SetRangeCache(cache RangeCache) {
	s.cache = cache
}

// ResolvePrice resolves the nightly price for a single date. Precedence:
// override price, then highest-priority matching rule, then holiday
// multiplier on the base price, then the room's default price. The
// stay length matters only to long-stay rules; passing the same value
// a stay total is computed with makes the two agree night for night.
func (s *service) ResolvePrice(ctx context.Context, roomID uuid.UUID, date time.Time, stayNights int) (float64, error) {
	day := dates.Normalize(date)
	if stayNights < 1 {
		stayNights = 1
	}

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return 0, fmt.Errorf("failed to get room: %w", err)
	}

	overrides, err := s.repo.GetOverridesForRange(ctx, roomID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to get overrides: %w", err)
	}

	rules, err := s.repo.GetActiveRulesForRoom(ctx, roomID)
	if err != nil {
		return 0, fmt.Errorf("failed to get pricing rules: %w", err)
	}

	holidays, err := s.repo.GetHolidaysForRange(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to get holidays: %w", err)
	}

	return resolveNightly(room, overrideFor(overrides, day), rules, holidayFor(holidays, day), day, stayNights), nil
}

// CalculateStayTotal resolves every night of [checkIn, checkOut) in one pass
// over the room's calendar data
func (s *service) CalculateStayTotal(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (*StayQuote, error) {
	start := dates.Normalize(checkIn)
	end := dates.Normalize(checkOut)
	if !end.After(start) {
		return nil, ErrInvalidStayRange
	}

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	overrides, err := s.repo.GetOverridesForRange(ctx, roomID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get overrides: %w", err)
	}

	rules, err := s.repo.GetActiveRulesForRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pricing rules: %w", err)
	}

	holidays, err := s.repo.GetHolidaysForRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays: %w", err)
	}

	stayNights := dates.Nights(start, end)

	quote := &StayQuote{
		RoomID:   roomID.String(),
		CheckIn:  start,
		CheckOut: end,
	}

	for _, day := range dates.InRange(start, end) {
		price := resolveNightly(room, overrideFor(overrides, day), rules, holidayFor(holidays, day), day, stayNights)
		quote.Nights = append(quote.Nights, NightPrice{Date: day, Price: price})
		quote.Total += price
	}

	return quote, nil
}

// resolveNightly applies the full precedence chain for one night. Rules are
// expected pre-sorted by priority DESC, created_at DESC, id DESC, so the
// first match is the winner and ties are deterministic.
func resolveNightly(room *rooms.Room, override *rooms.RoomAvailabilityOverride, rules []RoomPricingRule, holiday *HolidayCalendar, day time.Time, stayNights int) float64 {
	if override != nil && override.OverridePrice != nil {
		return *override.OverridePrice
	}

	for i := range rules {
		if rules[i].IsValidForDate(day, stayNights) {
			return rules[i].FixedPrice
		}
	}

	if holiday != nil && holiday.PriceMultiplier > 0 {
		return room.DefaultPrice * holiday.PriceMultiplier
	}

	return room.DefaultPrice
}

func overrideFor(overrides []rooms.RoomAvailabilityOverride, day time.Time) *rooms.RoomAvailabilityOverride {
	for i := range overrides {
		if dates.SameDay(overrides[i].Date, day) {
			return &overrides[i]
		}
	}
	return nil
}

func holidayFor(holidays []HolidayCalendar, day time.Time) *HolidayCalendar {
	for i := range holidays {
		if dates.SameDay(holidays[i].Date, day) {
			return &holidays[i]
		}
	}
	return nil
}

//  RULE MANAGEMENT

func (s *service) CreateRule(ctx context.Context, req CreateRuleRequest) (*RoomPricingRule, error) {
	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		return nil, fmt.Errorf("invalid room ID: %w", err)
	}

	ruleType := RuleType(req.RuleType)
	if !ruleType.IsValid() {
		return nil, fmt.Errorf("invalid rule type: %s", req.RuleType)
	}

	if req.FixedPrice < 0 {
		return nil, fmt.Errorf("fixed price cannot be negative")
	}

	rule := &RoomPricingRule{
		RoomID:        roomID,
		RuleType:      ruleType,
		DayOfWeek:     req.DayOfWeek,
		FixedPrice:    req.FixedPrice,
		Priority:      req.Priority,
		MinimumNights: req.MinimumNights,
		IsActive:      true,
	}

	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date: %w", err)
		}
		rule.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date: %w", err)
		}
		rule.EndDate = &end
	}

	if rule.StartDate != nil && rule.EndDate != nil && !rule.EndDate.After(*rule.StartDate) {
		return nil, fmt.Errorf("end date must be after start date")
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create pricing rule: %w", err)
	}

	// Rule writes shift the precomputed price bands
	if err := s.InvalidateRoom(ctx, roomID); err != nil {
		return nil, fmt.Errorf("failed to invalidate price cache: %w", err)
	}

	return rule, nil
}

func (s *service) ListRules(ctx context.Context, roomID uuid.UUID) ([]RoomPricingRule, error) {
	return s.repo.GetActiveRulesForRoom(ctx, roomID)
}

func (s *service) DeactivateRule(ctx context.Context, ruleID uuid.UUID) error {
	return s.repo.DeactivateRule(ctx, ruleID)
}
