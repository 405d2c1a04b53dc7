package pricing

import (
	"context"
	"time"

	"roomly/internal/rooms"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Pricing rules
	GetActiveRulesForRoom(ctx context.Context, roomID uuid.UUID) ([]RoomPricingRule, error)
	CreateRule(ctx context.Context, rule *RoomPricingRule) error
	DeactivateRule(ctx context.Context, ruleID uuid.UUID) error

	// Holiday calendar
	GetHolidaysForRange(ctx context.Context, start, end time.Time) ([]HolidayCalendar, error)

	// Room and override context for resolution
	GetRoom(ctx context.Context, roomID uuid.UUID) (*rooms.Room, error)
	GetOverridesForRange(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]rooms.RoomAvailabilityOverride, error)

	// Price range cache
	GetPriceCache(ctx context.Context, roomID uuid.UUID) (*RoomPriceCache, error)
	UpsertPriceCache(ctx context.Context, entry *RoomPriceCache) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetActiveRulesForRoom(ctx context.Context, roomID uuid.UUID) ([]RoomPricingRule, error) {
	var rules []RoomPricingRule
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Where("is_active = ?", true).
		Order("priority DESC, created_at DESC, id DESC").
		Find(&rules).Error
	return rules, err
}

func (r *repository) CreateRule(ctx context.Context, rule *RoomPricingRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) DeactivateRule(ctx context.Context, ruleID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&RoomPricingRule{}).
		Where("id = ?", ruleID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) GetHolidaysForRange(ctx context.Context, start, end time.Time) ([]HolidayCalendar, error) {
	var holidays []HolidayCalendar
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("date >= ? AND date < ?", start, end).
		Find(&holidays).Error
	return holidays, err
}

func (r *repository) GetRoom(ctx context.Context, roomID uuid.UUID) (*rooms.Room, error) {
	var room rooms.Room
	err := r.db.WithContext(ctx).Where("id = ?", roomID).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *repository) GetOverridesForRange(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]rooms.RoomAvailabilityOverride, error) {
	var overrides []rooms.RoomAvailabilityOverride
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Where("date >= ? AND date < ?", start, end).
		Find(&overrides).Error
	return overrides, err
}

func (r *repository) GetPriceCache(ctx context.Context, roomID uuid.UUID) (*RoomPriceCache, error) {
	var entry RoomPriceCache
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) UpsertPriceCache(ctx context.Context, entry *RoomPriceCache) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"min_price_30", "max_price_30", "avg_price_30",
			"min_price_90", "max_price_90", "avg_price_90",
			"price_band", "data_valid_until", "updated_at",
		}),
	}).Create(entry).Error
}
