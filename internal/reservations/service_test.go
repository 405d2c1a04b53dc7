package reservations

import (
	"context"
	"testing"
	"time"

	"roomly/internal/availability"
	"roomly/internal/notifications"
	"roomly/internal/pricing"
	"roomly/internal/shared/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, booking *Booking, lockID uuid.UUID) error {
	args := m.Called(ctx, booking, lockID)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) ConfirmReservation(ctx context.Context, reservationID uuid.UUID, paymentRef string, now time.Time) (int64, error) {
	args := m.Called(ctx, reservationID, paymentRef, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ExtendReservation(ctx context.Context, reservationID uuid.UUID, increment time.Duration, maxExtensions int, now time.Time) (int64, error) {
	args := m.Called(ctx, reservationID, increment, maxExtensions, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CancelBooking(ctx context.Context, bookingID uuid.UUID, now time.Time) (int64, error) {
	args := m.Called(ctx, bookingID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetLapsedReservations(ctx context.Context, now time.Time, limit int) ([]BookingReservation, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]BookingReservation), args.Error(1)
}

func (m *MockRepository) ExpireReservation(ctx context.Context, reservationID uuid.UUID, now time.Time) (int64, error) {
	args := m.Called(ctx, reservationID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeactivateStaleLocks(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CreateAvailabilityLock(ctx context.Context, lock *BookingAvailabilityLock) error {
	args := m.Called(ctx, lock)
	lock.ID = uuid.New()
	return args.Error(0)
}

func (m *MockRepository) DeactivateAvailabilityLock(ctx context.Context, lockID uuid.UUID) error {
	args := m.Called(ctx, lockID)
	return args.Error(0)
}

type MockAvailability struct {
	mock.Mock
}

func (m *MockAvailability) GetDailyAvailability(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]availability.DayAvailability, error) {
	args := m.Called(ctx, roomID, start, end)
	return args.Get(0).([]availability.DayAvailability), args.Error(1)
}

func (m *MockAvailability) ComputeMinAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int, error) {
	args := m.Called(ctx, roomID, checkIn, checkOut)
	return args.Int(0), args.Error(1)
}

func (m *MockAvailability) ComputeBlockedRooms(ctx context.Context, roomIDs []uuid.UUID, checkIn, checkOut time.Time, quantity int) ([]uuid.UUID, error) {
	args := m.Called(ctx, roomIDs, checkIn, checkOut, quantity)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockAvailability) GetMinAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int, error) {
	args := m.Called(ctx, roomID, checkIn, checkOut)
	return args.Int(0), args.Error(1)
}

func (m *MockAvailability) TryGetMinAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int, bool) {
	args := m.Called(ctx, roomID, checkIn, checkOut)
	return args.Int(0), args.Bool(1)
}

func (m *MockAvailability) GenerateLedger(ctx context.Context, roomIDs []uuid.UUID, start, end time.Time) error {
	args := m.Called(ctx, roomIDs, start, end)
	return args.Error(0)
}

func (m *MockAvailability) WarmupRoomLedger(ctx context.Context, roomID uuid.UUID, start, end time.Time) error {
	args := m.Called(ctx, roomID, start, end)
	return args.Error(0)
}

func (m *MockAvailability) RefreshAllLedgers(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockPricing struct {
	mock.Mock
}

func (m *MockPricing) ResolvePrice(ctx context.Context, roomID uuid.UUID, date time.Time, stayNights int) (float64, error) {
	args := m.Called(ctx, roomID, date, stayNights)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockPricing) CalculateStayTotal(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (*pricing.StayQuote, error) {
	args := m.Called(ctx, roomID, checkIn, checkOut)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.StayQuote), args.Error(1)
}

func (m *MockPricing) CreateRule(ctx context.Context, req pricing.CreateRuleRequest) (*pricing.RoomPricingRule, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*pricing.RoomPricingRule), args.Error(1)
}

func (m *MockPricing) ListRules(ctx context.Context, roomID uuid.UUID) ([]pricing.RoomPricingRule, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).([]pricing.RoomPricingRule), args.Error(1)
}

func (m *MockPricing) DeactivateRule(ctx context.Context, ruleID uuid.UUID) error {
	args := m.Called(ctx, ruleID)
	return args.Error(0)
}

func (m *MockPricing) GetPriceRange(ctx context.Context, roomID uuid.UUID) (*pricing.RoomPriceCache, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(*pricing.RoomPriceCache), args.Error(1)
}

func (m *MockPricing) RebuildPriceCache(ctx context.Context, roomID uuid.UUID) (*pricing.RoomPriceCache, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(*pricing.RoomPriceCache), args.Error(1)
}

func (m *MockPricing) InvalidateRoom(ctx context.Context, roomID uuid.UUID) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

type MockRangeLocker struct {
	mock.Mock
}

func (m *MockRangeLocker) AcquireRange(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (string, bool) {
	args := m.Called(ctx, roomID, checkIn, checkOut)
	return args.String(0), args.Bool(1)
}

func (m *MockRangeLocker) ReleaseRange(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, token string) bool {
	args := m.Called(ctx, roomID, checkIn, checkOut, token)
	return args.Bool(0)
}

func (m *MockRangeLocker) ExtendRange(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, token string) bool {
	args := m.Called(ctx, roomID, checkIn, checkOut, token)
	return args.Bool(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) PublishReservationEvent(ctx context.Context, event *notifications.ReservationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockProducer) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		HoldDuration:          15 * time.Minute,
		ExtensionIncrement:    10 * time.Minute,
		MaxExtensions:         2,
		LockTTL:               30 * time.Second,
		SweepInterval:         time.Minute,
		AdvanceBookingMaxDays: 365,
	}
}

type serviceMocks struct {
	repo         *MockRepository
	availability *MockAvailability
	pricing      *MockPricing
	locker       *MockRangeLocker
	producer     *MockProducer
}

func newTestService() (Service, *serviceMocks) {
	m := &serviceMocks{
		repo:         new(MockRepository),
		availability: new(MockAvailability),
		pricing:      new(MockPricing),
		locker:       new(MockRangeLocker),
		producer:     new(MockProducer),
	}
	svc := NewService(m.repo, m.availability, m.pricing, m.locker, m.producer, testBookingConfig())
	return svc, m
}

func futureDate(daysAhead int) string {
	return time.Now().UTC().AddDate(0, 0, daysAhead).Format("2006-01-02")
}

func validCreateRequest(roomID uuid.UUID) CreateReservationRequest {
	return CreateReservationRequest{
		RoomID:   roomID.String(),
		CheckIn:  futureDate(10),
		CheckOut: futureDate(13),
		Quantity: 1,
	}
}

func TestCreateReservation_Success(t *testing.T) {
	svc, m := newTestService()
	roomID := uuid.New()
	userID := uuid.New()

	m.locker.On("AcquireRange", mock.Anything, roomID, mock.Anything, mock.Anything).Return("tok-1", true)
	m.locker.On("ReleaseRange", mock.Anything, roomID, mock.Anything, mock.Anything, "tok-1").Return(true)
	m.repo.On("CreateAvailabilityLock", mock.Anything, mock.Anything).Return(nil)
	m.availability.On("ComputeMinAvailable", mock.Anything, roomID, mock.Anything, mock.Anything).Return(2, nil)
	m.pricing.On("CalculateStayTotal", mock.Anything, roomID, mock.Anything, mock.Anything).
		Return(&pricing.StayQuote{Total: 300}, nil)
	m.repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.producer.On("PublishReservationEvent", mock.Anything, mock.Anything).Return(nil)
	m.availability.On("WarmupRoomLedger", mock.Anything, roomID, mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.CreateReservation(context.Background(), userID, validCreateRequest(roomID))

	assert.NoError(t, err)
	assert.Equal(t, StatusReserved, resp.BookingStatus)
	assert.Equal(t, ReservationActive, resp.ReservationStatus)
	assert.Equal(t, 300.0, resp.TotalPrice)
	assert.Regexp(t, `^RSV-\d{8}-[A-Z]{6}$`, resp.ReservationReference)
	assert.NotNil(t, resp.ReservedAt)
	assert.NotNil(t, resp.ExpiresAt)
	m.locker.AssertExpectations(t)
	m.repo.AssertExpectations(t)
}

func TestCreateReservation_QuantityMultipliesTotal(t *testing.T) {
	svc, m := newTestService()
	roomID := uuid.New()

	m.locker.On("AcquireRange", mock.Anything, roomID, mock.Anything, mock.Anything).Return("tok-1", true)
	m.locker.On("ReleaseRange", mock.Anything, roomID, mock.Anything, mock.Anything, "tok-1").Return(true)
	m.repo.On("CreateAvailabilityLock", mock.Anything, mock.Anything).Return(nil)
	m.availability.On("ComputeMinAvailable", mock.Anything, roomID, mock.Anything, mock.Anything).Return(0, nil)
	m.pricing.On("CalculateStayTotal", mock.Anything, roomID, mock.Anything, mock.Anything).
		Return(&pricing.StayQuote{Total: 150}, nil)
	m.repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.producer.On("PublishReservationEvent", mock.Anything, mock.Anything).Return(nil)
	m.availability.On("WarmupRoomLedger", mock.Anything, roomID, mock.Anything, mock.Anything).Return(nil)

	req := validCreateRequest(roomID)
	req.Quantity = 3

	resp, err := svc.CreateReservation(context.Background(), uuid.New(), req)

	assert.NoError(t, err)
	assert.Equal(t, 450.0, resp.TotalPrice)
}

func TestCreateReservation_LockContention(t *testing.T) {
	svc, m := newTestService()
	roomID := uuid.New()

	m.locker.On("AcquireRange", mock.Anything, roomID, mock.Anything, mock.Anything).Return("", false)

	_, err := svc.CreateReservation(context.Background(), uuid.New(), validCreateRequest(roomID))

	assert.ErrorIs(t, err, ErrLockContention)
	m.repo.AssertNotCalled(t, "CreateAvailabilityLock")
}

func TestCreateReservation_CapacityExceeded(t *testing.T) {
	svc, m := newTestService()
	roomID := uuid.New()

	m.locker.On("AcquireRange", mock.Anything, roomID, mock.Anything, mock.Anything).Return("tok-1", true)
	m.locker.On("ReleaseRange", mock.Anything, roomID, mock.Anything, mock.Anything, "tok-1").Return(true)
	m.repo.On("CreateAvailabilityLock", mock.Anything, mock.Anything).Return(nil)
	// own lock row pushes the minimum below zero
	m.availability.On("ComputeMinAvailable", mock.Anything, roomID, mock.Anything, mock.Anything).Return(-1, nil)
	m.repo.On("DeactivateAvailabilityLock", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.CreateReservation(context.Background(), uuid.New(), validCreateRequest(roomID))

	assert.ErrorIs(t, err, ErrCapacityExceeded)
	m.repo.AssertCalled(t, "DeactivateAvailabilityLock", mock.Anything, mock.Anything)
	m.locker.AssertCalled(t, "ReleaseRange", mock.Anything, roomID, mock.Anything, mock.Anything, "tok-1")
	m.repo.AssertNotCalled(t, "Create")
}

func TestCreateReservation_InvalidRange(t *testing.T) {
	svc, m := newTestService()
	roomID := uuid.New()

	req := validCreateRequest(roomID)
	req.CheckOut = req.CheckIn

	_, err := svc.CreateReservation(context.Background(), uuid.New(), req)

	assert.ErrorIs(t, err, ErrInvalidRange)
	m.locker.AssertNotCalled(t, "AcquireRange")
}

func TestCreateReservation_TooFarAhead(t *testing.T) {
	svc, _ := newTestService()
	roomID := uuid.New()

	req := validCreateRequest(roomID)
	req.CheckIn = futureDate(400)
	req.CheckOut = futureDate(403)

	_, err := svc.CreateReservation(context.Background(), uuid.New(), req)

	assert.ErrorIs(t, err, ErrRangeTooFarAhead)
}

func reservedBooking(userID uuid.UUID, expiresAt time.Time, extensions int) *Booking {
	bookingID := uuid.New()
	return &Booking{
		ID:           bookingID,
		UserID:       userID,
		RoomID:       uuid.New(),
		CheckInDate:  time.Now().UTC().AddDate(0, 0, 10),
		CheckOutDate: time.Now().UTC().AddDate(0, 0, 13),
		Quantity:     1,
		TotalPrice:   300,
		Status:       StatusReserved,
		Reservation: &BookingReservation{
			ID:                   uuid.New(),
			BookingID:            bookingID,
			ReservationReference: "RSV-20260910-ABCDEF",
			Status:               ReservationActive,
			ExpiresAt:            expiresAt,
			ExtensionCount:       extensions,
		},
	}
}

func TestExtendReservation_Success(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	booking := reservedBooking(userID, time.Now().Add(5*time.Minute), 0)

	extended := *booking
	extendedRes := *booking.Reservation
	extendedRes.ExpiresAt = booking.Reservation.ExpiresAt.Add(10 * time.Minute)
	extendedRes.ExtensionCount = 1
	extended.Reservation = &extendedRes

	m.repo.On("GetByReference", mock.Anything, booking.Reservation.ReservationReference).Return(booking, nil)
	m.repo.On("ExtendReservation", mock.Anything, booking.Reservation.ID,
		10*time.Minute, 2, mock.Anything).Return(int64(1), nil)
	m.repo.On("GetByID", mock.Anything, booking.ID).Return(&extended, nil)
	m.producer.On("PublishReservationEvent", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.ExtendReservation(context.Background(), userID, booking.Reservation.ReservationReference)

	assert.NoError(t, err)
	assert.Equal(t, 1, resp.ExtensionCount)
}

func TestExtendReservation_IncrementAppliedInStore(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	booking := reservedBooking(userID, time.Now().Add(5*time.Minute), 0)

	// the snapshot read before the update may be stale; the store receives
	// the increment, never an absolute deadline derived from that snapshot
	staleExpiry := booking.Reservation.ExpiresAt

	extended := *booking
	extendedRes := *booking.Reservation
	extendedRes.ExpiresAt = staleExpiry.Add(20 * time.Minute)
	extendedRes.ExtensionCount = 2
	extended.Reservation = &extendedRes

	m.repo.On("GetByReference", mock.Anything, booking.Reservation.ReservationReference).Return(booking, nil)
	m.repo.On("ExtendReservation", mock.Anything, booking.Reservation.ID,
		10*time.Minute, 2, mock.Anything).Return(int64(1), nil)
	m.repo.On("GetByID", mock.Anything, booking.ID).Return(&extended, nil)
	m.producer.On("PublishReservationEvent", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.ExtendReservation(context.Background(), userID, booking.Reservation.ReservationReference)

	assert.NoError(t, err)
	// the response reflects what the store holds, not the stale read plus one step
	assert.Equal(t, staleExpiry.Add(20*time.Minute), *resp.ExpiresAt)
	m.repo.AssertExpectations(t)
}

func TestExtendReservation_ExpiredHold(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	booking := reservedBooking(userID, time.Now().Add(-time.Minute), 0)

	m.repo.On("GetByReference", mock.Anything, booking.Reservation.ReservationReference).Return(booking, nil)
	m.repo.On("ExtendReservation", mock.Anything, booking.Reservation.ID,
		mock.Anything, 2, mock.Anything).Return(int64(0), nil)

	_, err := svc.ExtendReservation(context.Background(), userID, booking.Reservation.ReservationReference)

	assert.ErrorIs(t, err, ErrReservationExpired)
}

func TestExtendReservation_ExtensionCapReached(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	booking := reservedBooking(userID, time.Now().Add(5*time.Minute), 2)

	m.repo.On("GetByReference", mock.Anything, booking.Reservation.ReservationReference).Return(booking, nil)
	m.repo.On("ExtendReservation", mock.Anything, booking.Reservation.ID,
		mock.Anything, 2, mock.Anything).Return(int64(0), nil)

	_, err := svc.ExtendReservation(context.Background(), userID, booking.Reservation.ReservationReference)

	assert.ErrorIs(t, err, ErrReservationNotExtendable)
}

func TestExtendReservation_WrongOwner(t *testing.T) {
	svc, m := newTestService()
	booking := reservedBooking(uuid.New(), time.Now().Add(5*time.Minute), 0)

	m.repo.On("GetByReference", mock.Anything, booking.Reservation.ReservationReference).Return(booking, nil)

	_, err := svc.ExtendReservation(context.Background(), uuid.New(), booking.Reservation.ReservationReference)

	assert.ErrorIs(t, err, ErrNotOwner)
	m.repo.AssertNotCalled(t, "ExtendReservation")
}

func TestConfirmReservation_Success(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	booking := reservedBooking(userID, time.Now().Add(5*time.Minute), 0)

	confirmed := *booking
	confirmed.Status = StatusConfirmed
	confirmedRes := *booking.Reservation
	confirmedRes.Status = ReservationConfirmed
	confirmed.Reservation = &confirmedRes

	paymentRef := "PAY-7F3K9Q"
	confirmed.PaymentReference = &paymentRef

	m.repo.On("GetByReference", mock.Anything, booking.Reservation.ReservationReference).Return(booking, nil)
	m.repo.On("ConfirmReservation", mock.Anything, booking.Reservation.ID, paymentRef, mock.Anything).Return(int64(1), nil)
	m.repo.On("GetByID", mock.Anything, booking.ID).Return(&confirmed, nil)
	m.producer.On("PublishReservationEvent", mock.Anything, mock.Anything).Return(nil)
	m.availability.On("WarmupRoomLedger", mock.Anything, booking.RoomID, mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.ConfirmReservation(context.Background(), userID, booking.Reservation.ReservationReference, paymentRef)

	assert.NoError(t, err)
	assert.Equal(t, StatusConfirmed, resp.BookingStatus)
	assert.Equal(t, ReservationConfirmed, resp.ReservationStatus)
	assert.Equal(t, &paymentRef, resp.PaymentReference)
	m.repo.AssertCalled(t, "ConfirmReservation", mock.Anything, booking.Reservation.ID, paymentRef, mock.Anything)
}

func TestConfirmReservation_AlreadyConfirmedIsIdempotent(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	booking := reservedBooking(userID, time.Now().Add(5*time.Minute), 0)
	booking.Status = StatusConfirmed
	booking.Reservation.Status = ReservationConfirmed

	m.repo.On("GetByReference", mock.Anything, booking.Reservation.ReservationReference).Return(booking, nil)

	resp, err := svc.ConfirmReservation(context.Background(), userID, booking.Reservation.ReservationReference, "")

	assert.NoError(t, err)
	assert.Equal(t, ReservationConfirmed, resp.ReservationStatus)
	m.repo.AssertNotCalled(t, "ConfirmReservation")
}

func TestConfirmReservation_LapsedHold(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	booking := reservedBooking(userID, time.Now().Add(-time.Minute), 0)

	m.repo.On("GetByReference", mock.Anything, booking.Reservation.ReservationReference).Return(booking, nil)
	m.repo.On("ConfirmReservation", mock.Anything, booking.Reservation.ID, mock.Anything, mock.Anything).Return(int64(0), nil)

	_, err := svc.ConfirmReservation(context.Background(), userID, booking.Reservation.ReservationReference, "")

	assert.ErrorIs(t, err, ErrReservationExpired)
}

func TestCancelReservation_Idempotent(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	booking := reservedBooking(userID, time.Now().Add(5*time.Minute), 0)
	booking.Status = StatusCancelled

	m.repo.On("GetByReference", mock.Anything, booking.Reservation.ReservationReference).Return(booking, nil)

	err := svc.CancelReservation(context.Background(), userID, booking.Reservation.ReservationReference)

	assert.NoError(t, err)
	m.repo.AssertNotCalled(t, "CancelBooking")
}

func TestSweepExpiredReservations_ReclaimsLapsedHolds(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	booking := reservedBooking(userID, time.Now().Add(-time.Minute), 0)

	m.repo.On("GetLapsedReservations", mock.Anything, mock.Anything, sweepBatchSize).
		Return([]BookingReservation{*booking.Reservation}, nil)
	m.repo.On("ExpireReservation", mock.Anything, booking.Reservation.ID, mock.Anything).Return(int64(1), nil)
	m.repo.On("GetByID", mock.Anything, booking.ID).Return(booking, nil)
	m.producer.On("PublishReservationEvent", mock.Anything, mock.Anything).Return(nil)
	m.availability.On("WarmupRoomLedger", mock.Anything, booking.RoomID, mock.Anything, mock.Anything).Return(nil)
	m.repo.On("DeactivateStaleLocks", mock.Anything, mock.Anything).Return(int64(0), nil)

	swept, err := svc.SweepExpiredReservations(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, swept)
	m.repo.AssertExpectations(t)
}

func TestSweepExpiredReservations_SkipsRacedConfirms(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	booking := reservedBooking(userID, time.Now().Add(-time.Minute), 0)

	m.repo.On("GetLapsedReservations", mock.Anything, mock.Anything, sweepBatchSize).
		Return([]BookingReservation{*booking.Reservation}, nil)
	// a confirm won between the scan and the guarded update
	m.repo.On("ExpireReservation", mock.Anything, booking.Reservation.ID, mock.Anything).Return(int64(0), nil)
	m.repo.On("DeactivateStaleLocks", mock.Anything, mock.Anything).Return(int64(0), nil)

	swept, err := svc.SweepExpiredReservations(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, swept)
	m.producer.AssertNotCalled(t, "PublishReservationEvent")
}

func TestCheckAvailability_UsesLedgerFirstRead(t *testing.T) {
	svc, m := newTestService()
	roomID := uuid.New()

	m.availability.On("GetMinAvailable", mock.Anything, roomID, mock.Anything, mock.Anything).Return(2, nil)
	m.pricing.On("CalculateStayTotal", mock.Anything, roomID, mock.Anything, mock.Anything).
		Return(&pricing.StayQuote{
			Nights: []pricing.NightPrice{{Price: 100}, {Price: 100}, {Price: 120}},
			Total:  320,
		}, nil)

	resp, err := svc.CheckAvailability(context.Background(), CheckAvailabilityRequest{
		RoomID:   roomID.String(),
		CheckIn:  futureDate(5),
		CheckOut: futureDate(8),
		Quantity: 2,
	})

	assert.NoError(t, err)
	assert.True(t, resp.Available)
	assert.Equal(t, 2, resp.MinUnits)
	assert.Len(t, resp.PricePerNight, 3)
	// two units over the quoted per-unit total
	assert.Equal(t, 640.0, resp.TotalPrice)
}

func TestGetUnavailableRoomIds(t *testing.T) {
	svc, m := newTestService()
	blocked := uuid.New()

	m.availability.On("ComputeBlockedRooms", mock.Anything, []uuid.UUID{}, mock.Anything, mock.Anything, 1).
		Return([]uuid.UUID{blocked}, nil)

	resp, err := svc.GetUnavailableRoomIds(context.Background(), SearchUnavailableRequest{
		CheckIn:  futureDate(5),
		CheckOut: futureDate(8),
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{blocked.String()}, resp.UnavailableRoomIds)
}

func TestGetUnavailableRoomIds_PassesCandidateFilter(t *testing.T) {
	svc, m := newTestService()
	first := uuid.New()
	second := uuid.New()

	m.availability.On("ComputeBlockedRooms", mock.Anything, []uuid.UUID{first, second}, mock.Anything, mock.Anything, 2).
		Return([]uuid.UUID{second}, nil)

	resp, err := svc.GetUnavailableRoomIds(context.Background(), SearchUnavailableRequest{
		CheckIn:  futureDate(5),
		CheckOut: futureDate(8),
		Quantity: 2,
		RoomIDs:  []string{first.String(), second.String()},
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{second.String()}, resp.UnavailableRoomIds)
	m.availability.AssertExpectations(t)
}
