package rooms

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Room reads
	GetRoomByID(ctx context.Context, id uuid.UUID) (*Room, error)
	GetRoomsByIDs(ctx context.Context, ids []uuid.UUID) ([]Room, error)
	ListActiveRooms(ctx context.Context) ([]Room, error)

	// Override calendar
	GetOverridesForRange(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]RoomAvailabilityOverride, error)
	GetOverridesForRooms(ctx context.Context, roomIDs []uuid.UUID, start, end time.Time) ([]RoomAvailabilityOverride, error)
	UpsertOverrides(ctx context.Context, overrides []RoomAvailabilityOverride) (int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetRoomByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	var room Room
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *repository) GetRoomsByIDs(ctx context.Context, ids []uuid.UUID) ([]Room, error) {
	var result []Room
	if len(ids) == 0 {
		return result, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&result).Error
	return result, err
}

func (r *repository) ListActiveRooms(ctx context.Context) ([]Room, error) {
	var result []Room
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&result).Error
	return result, err
}

func (r *repository) GetOverridesForRange(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]RoomAvailabilityOverride, error) {
	var result []RoomAvailabilityOverride
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Where("date >= ? AND date < ?", start, end).
		Order("date ASC").
		Find(&result).Error
	return result, err
}

func (r *repository) GetOverridesForRooms(ctx context.Context, roomIDs []uuid.UUID, start, end time.Time) ([]RoomAvailabilityOverride, error) {
	var result []RoomAvailabilityOverride
	if len(roomIDs) == 0 {
		return result, nil
	}
	err := r.db.WithContext(ctx).
		Where("room_id IN ?", roomIDs).
		Where("date >= ? AND date < ?", start, end).
		Find(&result).Error
	return result, err
}

// UpsertOverrides writes calendar entries, replacing any existing entry for
// the same (room, date). Returns the number of rows written.
func (r *repository) UpsertOverrides(ctx context.Context, overrides []RoomAvailabilityOverride) (int, error) {
	if len(overrides) == 0 {
		return 0, nil
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_available", "override_price", "available_count", "updated_at"}),
	}).Create(&overrides).Error
	if err != nil {
		return 0, err
	}

	return len(overrides), nil
}
