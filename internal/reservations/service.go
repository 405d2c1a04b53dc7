package reservations

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"roomly/internal/availability"
	"roomly/internal/locks"
	"roomly/internal/notifications"
	"roomly/internal/pricing"
	"roomly/internal/shared/config"
	"roomly/internal/shared/utils/dates"
	"roomly/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Service interface {
	CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (*AvailabilityResponse, error)
	GetUnavailableRoomIds(ctx context.Context, req SearchUnavailableRequest) (*UnavailableRoomsResponse, error)

	CreateReservation(ctx context.Context, userID uuid.UUID, req CreateReservationRequest) (*ReservationResponse, error)
	ExtendReservation(ctx context.Context, userID uuid.UUID, reference string) (*ReservationResponse, error)
	ConfirmReservation(ctx context.Context, userID uuid.UUID, reference, paymentRef string) (*ReservationResponse, error)
	CancelReservation(ctx context.Context, userID uuid.UUID, reference string) error

	GetReservation(ctx context.Context, userID uuid.UUID, reference string) (*ReservationResponse, error)
	GetUserReservations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ReservationResponse, error)

	// SweepExpiredReservations reclaims lapsed holds and stale lock rows.
	// Safe to run concurrently and repeatedly.
	SweepExpiredReservations(ctx context.Context) (int, error)
}

type service struct {
	repo         Repository
	availability availability.Service
	pricing      pricing.Service
	locker       locks.RangeLocker
	producer     notifications.EventProducer
	cfg          config.BookingConfig
	validate     *validator.Validate
}

func NewService(
	repo Repository,
	availabilityService availability.Service,
	pricingService pricing.Service,
	locker locks.RangeLocker,
	producer notifications.EventProducer,
	cfg config.BookingConfig,
) Service {
	return &service{
		repo:         repo,
		availability: availabilityService,
		pricing:      pricingService,
		locker:       locker,
		producer:     producer,
		cfg:          cfg,
		validate:     validator.New(),
	}
}

func (s *service) CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (*AvailabilityResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid availability request: %w", err)
	}

	roomID, checkIn, checkOut, quantity, err := s.parseStay(req.RoomID, req.CheckIn, req.CheckOut, req.Quantity)
	if err != nil {
		return nil, err
	}

	minUnits, err := s.availability.GetMinAvailable(ctx, roomID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.CalculateStayTotal(ctx, roomID, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("failed to price stay: %w", err)
	}

	return &AvailabilityResponse{
		RoomID:        roomID.String(),
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Available:     minUnits >= quantity,
		MinUnits:      minUnits,
		PricePerNight: quote.Nights,
		TotalPrice:    quote.Total * float64(quantity),
	}, nil
}

func (s *service) GetUnavailableRoomIds(ctx context.Context, req SearchUnavailableRequest) (*UnavailableRoomsResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	checkIn, checkOut, err := s.parseRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	// empty candidate set means every active room
	candidates := make([]uuid.UUID, 0, len(req.RoomIDs))
	for _, raw := range req.RoomIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid room id %q: %w", raw, err)
		}
		candidates = append(candidates, id)
	}

	blocked, err := s.availability.ComputeBlockedRooms(ctx, candidates, checkIn, checkOut, quantity)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(blocked))
	for _, id := range blocked {
		ids = append(ids, id.String())
	}

	return &UnavailableRoomsResponse{
		CheckIn:            checkIn,
		CheckOut:           checkOut,
		Quantity:           quantity,
		UnavailableRoomIds: ids,
	}, nil
}

// CreateReservation places a timed hold. The sequence is serialized by the
// per-night date locks: acquire them, register the attempt as a lock row so
// other writers' capacity checks see it, verify capacity, price the stay,
// persist. The date locks are released on every exit path; the lock row is
// deactivated by the persisting transaction or, on failure, explicitly.
func (s *service) CreateReservation(ctx context.Context, userID uuid.UUID, req CreateReservationRequest) (*ReservationResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid reservation request: %w", err)
	}

	roomID, checkIn, checkOut, quantity, err := s.parseStay(req.RoomID, req.CheckIn, req.CheckOut, req.Quantity)
	if err != nil {
		return nil, err
	}

	maxCheckIn := dates.Normalize(time.Now()).AddDate(0, 0, s.cfg.AdvanceBookingMaxDays)
	if checkIn.After(maxCheckIn) {
		return nil, ErrRangeTooFarAhead
	}

	token, acquired := s.locker.AcquireRange(ctx, roomID, checkIn, checkOut)
	if !acquired {
		logger.GetDefault().LogLockContention(ctx, roomID.String(),
			checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"))
		return nil, ErrLockContention
	}
	defer s.locker.ReleaseRange(ctx, roomID, checkIn, checkOut, token)

	now := time.Now()
	lockRow := &BookingAvailabilityLock{
		RoomID:       roomID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Quantity:     quantity,
		LockToken:    token,
		IsActive:     true,
		ExpiresAt:    now.Add(s.cfg.LockTTL),
	}
	if err := s.repo.CreateAvailabilityLock(ctx, lockRow); err != nil {
		return nil, err
	}

	// The lock row already counts against availability, so after inserting
	// it the stay fits exactly when the minimum stays non-negative.
	minUnits, err := s.availability.ComputeMinAvailable(ctx, roomID, checkIn, checkOut)
	if err != nil {
		s.abandonLockRow(ctx, lockRow.ID)
		return nil, err
	}
	if minUnits < 0 {
		s.abandonLockRow(ctx, lockRow.ID)
		return nil, ErrCapacityExceeded
	}

	quote, err := s.pricing.CalculateStayTotal(ctx, roomID, checkIn, checkOut)
	if err != nil {
		s.abandonLockRow(ctx, lockRow.ID)
		return nil, fmt.Errorf("failed to price stay: %w", err)
	}

	reference, err := generateReservationReference()
	if err != nil {
		s.abandonLockRow(ctx, lockRow.ID)
		return nil, fmt.Errorf("failed to generate reservation reference: %w", err)
	}

	expiresAt := now.Add(s.cfg.HoldDuration)
	booking := &Booking{
		UserID:       userID,
		RoomID:       roomID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Quantity:     quantity,
		TotalPrice:   quote.Total * float64(quantity),
		Status:       StatusReserved,
		Reservation: &BookingReservation{
			ReservationReference: reference,
			Status:               ReservationActive,
			ReservedAt:           now,
			ExpiresAt:            expiresAt,
		},
	}

	if err := s.repo.Create(ctx, booking, lockRow.ID); err != nil {
		s.abandonLockRow(ctx, lockRow.ID)
		return nil, err
	}

	logger.GetDefault().LogReservationCreated(ctx, reference, roomID.String(), userID.String())
	s.publishEvent(ctx, notifications.EventReservationCreated, booking, &expiresAt)
	s.warmLedger(ctx, roomID, checkIn, checkOut)

	return toReservationResponse(booking), nil
}

// ExtendReservation pushes the hold's expiry forward by the configured
// increment. The precondition (active, unexpired, under the extension cap)
// lives in the update's WHERE clause and the new expiry is computed in the
// database from the current stored value, so two racing extends each land on
// a distinct deadline instead of both writing the same one read earlier.
// Zero rows affected is diagnosed after the fact to pick the right error.
func (s *service) ExtendReservation(ctx context.Context, userID uuid.UUID, reference string) (*ReservationResponse, error) {
	booking, err := s.ownedBooking(ctx, userID, reference)
	if err != nil {
		return nil, err
	}
	if booking.Reservation == nil {
		return nil, ErrReservationNotFound
	}

	now := time.Now()

	affected, err := s.repo.ExtendReservation(ctx, booking.Reservation.ID, s.cfg.ExtensionIncrement, s.cfg.MaxExtensions, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if !booking.Reservation.IsActive(now) {
			return nil, ErrReservationExpired
		}
		return nil, ErrReservationNotExtendable
	}

	booking, err = s.repo.GetByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, notifications.EventReservationExtended, booking, &booking.Reservation.ExpiresAt)
	return toReservationResponse(booking), nil
}

// ConfirmReservation finalizes the hold and records the payment reference.
// Confirming an already-confirmed reservation is a no-op success; confirming
// a lapsed or swept one fails.
func (s *service) ConfirmReservation(ctx context.Context, userID uuid.UUID, reference, paymentRef string) (*ReservationResponse, error) {
	booking, err := s.ownedBooking(ctx, userID, reference)
	if err != nil {
		return nil, err
	}
	if booking.Reservation == nil {
		return nil, ErrReservationNotFound
	}

	if booking.Reservation.Status == ReservationConfirmed {
		return toReservationResponse(booking), nil
	}

	now := time.Now()
	affected, err := s.repo.ConfirmReservation(ctx, booking.Reservation.ID, paymentRef, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrReservationExpired
	}

	booking, err = s.repo.GetByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	logger.GetDefault().LogReservationConfirmed(ctx, reference, booking.ID.String())
	s.publishEvent(ctx, notifications.EventReservationConfirmed, booking, nil)
	s.warmLedger(ctx, booking.RoomID, booking.CheckInDate, booking.CheckOutDate)

	return toReservationResponse(booking), nil
}

// CancelReservation cancels the booking whatever phase it is in. Cancelling
// twice is a no-op success.
func (s *service) CancelReservation(ctx context.Context, userID uuid.UUID, reference string) error {
	booking, err := s.ownedBooking(ctx, userID, reference)
	if err != nil {
		return err
	}

	if booking.IsCancelled() {
		return nil
	}

	affected, err := s.repo.CancelBooking(ctx, booking.ID, time.Now())
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("booking %s cannot be cancelled in status %s", booking.ID, booking.Status)
	}

	s.publishEvent(ctx, notifications.EventReservationCancelled, booking, nil)
	s.warmLedger(ctx, booking.RoomID, booking.CheckInDate, booking.CheckOutDate)
	return nil
}

func (s *service) GetReservation(ctx context.Context, userID uuid.UUID, reference string) (*ReservationResponse, error) {
	booking, err := s.ownedBooking(ctx, userID, reference)
	if err != nil {
		return nil, err
	}
	return toReservationResponse(booking), nil
}

func (s *service) GetUserReservations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ReservationResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	bookings, err := s.repo.GetUserBookings(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	result := make([]ReservationResponse, 0, len(bookings))
	for i := range bookings {
		result = append(result, *toReservationResponse(&bookings[i]))
	}
	return result, nil
}

func (s *service) ownedBooking(ctx context.Context, userID uuid.UUID, reference string) (*Booking, error) {
	booking, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotOwner
	}
	return booking, nil
}

func (s *service) parseStay(roomID, checkIn, checkOut string, quantity int) (uuid.UUID, time.Time, time.Time, int, error) {
	id, err := uuid.Parse(roomID)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, 0, fmt.Errorf("invalid room id: %w", err)
	}

	start, end, err := s.parseRange(checkIn, checkOut)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, 0, err
	}

	if quantity < 1 {
		quantity = 1
	}
	return id, start, end, quantity, nil
}

func (s *service) parseRange(checkIn, checkOut string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid check-in date: %w", err)
	}
	end, err := time.Parse("2006-01-02", checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid check-out date: %w", err)
	}

	start = dates.Normalize(start)
	end = dates.Normalize(end)
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return start, end, nil
}

func (s *service) abandonLockRow(ctx context.Context, lockID uuid.UUID) {
	if err := s.repo.DeactivateAvailabilityLock(ctx, lockID); err != nil {
		// the row's own expiry reclaims it if this fails
		logger.GetDefault().ErrorWithContext(ctx, "failed to release abandoned availability lock", err,
			map[string]interface{}{"lock_id": lockID.String()})
	}
}

func (s *service) publishEvent(ctx context.Context, eventType notifications.ReservationEventType, booking *Booking, expiresAt *time.Time) {
	if s.producer == nil {
		return
	}

	event := notifications.NewReservationEvent(eventType)
	event.BookingID = booking.ID
	event.RoomID = booking.RoomID
	event.UserID = booking.UserID
	event.CheckIn = booking.CheckInDate
	event.CheckOut = booking.CheckOutDate
	event.Quantity = booking.Quantity
	event.TotalPrice = booking.TotalPrice
	event.ExpiresAt = expiresAt
	if booking.Reservation != nil {
		event.ReservationReference = booking.Reservation.ReservationReference
	}

	if err := s.producer.PublishReservationEvent(ctx, event); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "failed to publish reservation event", err,
			map[string]interface{}{"type": string(eventType), "booking_id": booking.ID.String()})
	}
}

func (s *service) warmLedger(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) {
	if err := s.availability.WarmupRoomLedger(ctx, roomID, checkIn, checkOut); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "ledger warmup failed", err,
			map[string]interface{}{"room_id": roomID.String()})
	}
}

// generateReservationReference builds a human-quotable reservation code
func generateReservationReference() (string, error) {
	timestamp := time.Now().Format("20060102")

	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)
	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("RSV-%s-%s", timestamp, string(randomPart)), nil
}
