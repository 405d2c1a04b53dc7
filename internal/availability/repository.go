package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConsumingSpan is one date range that holds units of a room: a committed
// booking, an active reservation hold, or an in-flight availability lock.
type ConsumingSpan struct {
	RoomID   uuid.UUID `json:"room_id"`
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Quantity int       `json:"quantity"`
}

type Repository interface {
	GetConsumingSpans(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]ConsumingSpan, error)
	GetConsumingSpansForRooms(ctx context.Context, roomIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID][]ConsumingSpan, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Consumption sources, each queried with the half-open overlap predicate
// check_in_date < end AND check_out_date > start:
//
//   - bookings whose status is neither CANCELLED nor RESERVED. A RESERVED
//     booking does not consume on its own; its units are held by the paired
//     active reservation until confirmation flips the status.
//   - ACTIVE reservations whose hold has not expired, joined to their booking
//     for the range and quantity.
//   - active, unexpired availability locks. These cover the window between a
//     create attempt's capacity check and the reservation row landing, and
//     are deactivated in the same transaction that persists the reservation.
func (r *repository) GetConsumingSpans(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]ConsumingSpan, error) {
	spans, err := r.GetConsumingSpansForRooms(ctx, []uuid.UUID{roomID}, start, end)
	if err != nil {
		return nil, err
	}
	return spans[roomID], nil
}

func (r *repository) GetConsumingSpansForRooms(ctx context.Context, roomIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID][]ConsumingSpan, error) {
	if len(roomIDs) == 0 {
		return map[uuid.UUID][]ConsumingSpan{}, nil
	}

	now := time.Now()
	var all []ConsumingSpan

	var fromBookings []ConsumingSpan
	err := r.db.WithContext(ctx).
		Table("bookings").
		Select("room_id, check_in_date AS check_in, check_out_date AS check_out, quantity").
		Where("room_id IN ? AND check_in_date < ? AND check_out_date > ?", roomIDs, end, start).
		Where("status NOT IN ?", []string{"CANCELLED", "RESERVED"}).
		Scan(&fromBookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load booking spans: %w", err)
	}
	all = append(all, fromBookings...)

	var fromReservations []ConsumingSpan
	err = r.db.WithContext(ctx).
		Table("booking_reservations AS r").
		Select("b.room_id, b.check_in_date AS check_in, b.check_out_date AS check_out, b.quantity").
		Joins("JOIN bookings b ON b.id = r.booking_id").
		Where("b.room_id IN ? AND b.check_in_date < ? AND b.check_out_date > ?", roomIDs, end, start).
		Where("r.status = ? AND r.expires_at > ?", "ACTIVE", now).
		Scan(&fromReservations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation spans: %w", err)
	}
	all = append(all, fromReservations...)

	var fromLocks []ConsumingSpan
	err = r.db.WithContext(ctx).
		Table("booking_availability_locks").
		Select("room_id, check_in_date AS check_in, check_out_date AS check_out, quantity").
		Where("room_id IN ? AND check_in_date < ? AND check_out_date > ?", roomIDs, end, start).
		Where("is_active = ? AND expires_at > ?", true, now).
		Scan(&fromLocks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load availability lock spans: %w", err)
	}
	all = append(all, fromLocks...)

	result := make(map[uuid.UUID][]ConsumingSpan, len(roomIDs))
	for _, span := range all {
		result[span.RoomID] = append(result[span.RoomID], span)
	}
	return result, nil
}
