package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Create persists the booking and its reservation hold, and deactivates
	// the attempt's availability lock row, in one transaction
	Create(ctx context.Context, booking *Booking, lockID uuid.UUID) error

	GetByID(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	GetByReference(ctx context.Context, reference string) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error)

	// Guarded status transitions. Each returns the number of rows that
	// matched the precondition, so callers can tell a no-op from a win.
	ConfirmReservation(ctx context.Context, reservationID uuid.UUID, paymentRef string, now time.Time) (int64, error)
	ExtendReservation(ctx context.Context, reservationID uuid.UUID, increment time.Duration, maxExtensions int, now time.Time) (int64, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, now time.Time) (int64, error)

	// Expiry sweep support
	GetLapsedReservations(ctx context.Context, now time.Time, limit int) ([]BookingReservation, error)
	ExpireReservation(ctx context.Context, reservationID uuid.UUID, now time.Time) (int64, error)
	DeactivateStaleLocks(ctx context.Context, now time.Time) (int64, error)

	// Availability lock rows
	CreateAvailabilityLock(ctx context.Context, lock *BookingAvailabilityLock) error
	DeactivateAvailabilityLock(ctx context.Context, lockID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking, lockID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		result := tx.Model(&BookingAvailabilityLock{}).
			Where("id = ? AND is_active = ?", lockID, true).
			Update("is_active", false)
		if result.Error != nil {
			return fmt.Errorf("failed to deactivate availability lock: %w", result.Error)
		}
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Reservation").
		First(&booking, "id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	var reservation BookingReservation
	err := r.db.WithContext(ctx).
		First(&reservation, "reservation_reference = ?", reference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r.GetByID(ctx, reservation.BookingID)
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Preload("Reservation").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	return bookings, nil
}

// ConfirmReservation flips ACTIVE to CONFIRMED and the paired booking from
// RESERVED to CONFIRMED. The expiry predicate is part of the WHERE clause so
// a hold that lapsed between read and write can never be confirmed.
func (r *repository) ConfirmReservation(ctx context.Context, reservationID uuid.UUID, paymentRef string, now time.Time) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&BookingReservation{}).
			Where("id = ? AND status = ? AND expires_at > ?", reservationID, ReservationActive, now).
			Updates(map[string]interface{}{
				"status":       ReservationConfirmed,
				"confirmed_at": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to confirm reservation: %w", result.Error)
		}
		affected = result.RowsAffected
		if affected == 0 {
			return nil
		}

		var reservation BookingReservation
		if err := tx.First(&reservation, "id = ?", reservationID).Error; err != nil {
			return fmt.Errorf("failed to reload reservation: %w", err)
		}

		bookingUpdates := map[string]interface{}{
			"status":     StatusConfirmed,
			"updated_at": now,
		}
		if paymentRef != "" {
			bookingUpdates["payment_reference"] = paymentRef
		}

		result = tx.Model(&Booking{}).
			Where("id = ? AND status = ?", reservation.BookingID, StatusReserved).
			Updates(bookingUpdates)
		if result.Error != nil {
			return fmt.Errorf("failed to confirm booking: %w", result.Error)
		}
		return nil
	})
	return affected, err
}

// ExtendReservation bumps the expiry by the increment in a single guarded
// statement. Computing the new deadline from the stored expires_at keeps
// concurrent extends from collapsing onto one value read before the race.
func (r *repository) ExtendReservation(ctx context.Context, reservationID uuid.UUID, increment time.Duration, maxExtensions int, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&BookingReservation{}).
		Where("id = ? AND status = ? AND expires_at > ? AND extension_count < ?",
			reservationID, ReservationActive, now, maxExtensions).
		Updates(map[string]interface{}{
			"expires_at":      gorm.Expr("expires_at + make_interval(secs => ?)", increment.Seconds()),
			"extension_count": gorm.Expr("extension_count + 1"),
			"updated_at":      now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to extend reservation: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CancelBooking cancels the booking and its reservation hold together.
// Already-cancelled and checked-out bookings do not match.
func (r *repository) CancelBooking(ctx context.Context, bookingID uuid.UUID, now time.Time) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Booking{}).
			Where("id = ? AND status NOT IN ?", bookingID, []string{StatusCancelled, StatusCheckedOut}).
			Updates(map[string]interface{}{
				"status":     StatusCancelled,
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to cancel booking: %w", result.Error)
		}
		affected = result.RowsAffected
		if affected == 0 {
			return nil
		}

		result = tx.Model(&BookingReservation{}).
			Where("booking_id = ? AND status = ?", bookingID, ReservationActive).
			Updates(map[string]interface{}{
				"status":     ReservationCancelled,
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to cancel reservation: %w", result.Error)
		}
		return nil
	})
	return affected, err
}

func (r *repository) GetLapsedReservations(ctx context.Context, now time.Time, limit int) ([]BookingReservation, error) {
	var lapsed []BookingReservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", ReservationActive, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&lapsed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan lapsed reservations: %w", err)
	}
	return lapsed, nil
}

// ExpireReservation is the sweep's transition: ACTIVE past expiry becomes
// EXPIRED and the paired RESERVED booking becomes CANCELLED. The status
// guard makes a second sweep pass a no-op, and a confirm that won the race
// leaves nothing for the sweep to match.
func (r *repository) ExpireReservation(ctx context.Context, reservationID uuid.UUID, now time.Time) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&BookingReservation{}).
			Where("id = ? AND status = ? AND expires_at <= ?", reservationID, ReservationActive, now).
			Updates(map[string]interface{}{
				"status":     ReservationExpired,
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to expire reservation: %w", result.Error)
		}
		affected = result.RowsAffected
		if affected == 0 {
			return nil
		}

		var reservation BookingReservation
		if err := tx.First(&reservation, "id = ?", reservationID).Error; err != nil {
			return fmt.Errorf("failed to reload reservation: %w", err)
		}

		result = tx.Model(&Booking{}).
			Where("id = ? AND status = ?", reservation.BookingID, StatusReserved).
			Updates(map[string]interface{}{
				"status":     StatusCancelled,
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to cancel expired booking: %w", result.Error)
		}
		return nil
	})
	return affected, err
}

func (r *repository) DeactivateStaleLocks(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&BookingAvailabilityLock{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to deactivate stale locks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *repository) CreateAvailabilityLock(ctx context.Context, lock *BookingAvailabilityLock) error {
	if err := r.db.WithContext(ctx).Create(lock).Error; err != nil {
		return fmt.Errorf("failed to create availability lock: %w", err)
	}
	return nil
}

func (r *repository) DeactivateAvailabilityLock(ctx context.Context, lockID uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&BookingAvailabilityLock{}).
		Where("id = ?", lockID).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate availability lock: %w", err)
	}
	return nil
}
