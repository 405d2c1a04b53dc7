package reservations

import (
	"time"

	"github.com/google/uuid"
)

// Booking statuses
const (
	StatusReserved   = "RESERVED"
	StatusConfirmed  = "CONFIRMED"
	StatusCheckedIn  = "CHECKED_IN"
	StatusCheckedOut = "CHECKED_OUT"
	StatusCancelled  = "CANCELLED"
	StatusNoShow     = "NO_SHOW"
)

// Reservation statuses
const (
	ReservationActive    = "ACTIVE"
	ReservationConfirmed = "CONFIRMED"
	ReservationExpired   = "EXPIRED"
	ReservationCancelled = "CANCELLED"
)

// Booking is the durable stay record. It is created in RESERVED alongside an
// ACTIVE reservation hold; confirmation moves it to CONFIRMED. While RESERVED
// it does not consume inventory itself, the paired reservation does.
type Booking struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	RoomID       uuid.UUID `gorm:"type:uuid;not null;index:idx_booking_room_dates" json:"room_id"`
	CheckInDate  time.Time `gorm:"type:date;not null;index:idx_booking_room_dates" json:"check_in_date"`
	CheckOutDate time.Time `gorm:"type:date;not null" json:"check_out_date"`
	Quantity     int       `gorm:"not null;default:1" json:"quantity"`
	TotalPrice   float64   `gorm:"not null" json:"total_price"`
	Status       string    `gorm:"not null;default:'RESERVED';index" json:"status"`
	// PaymentReference is recorded at confirmation; gateway verification
	// happens upstream
	PaymentReference *string   `json:"payment_reference,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Reservation *BookingReservation `gorm:"foreignKey:BookingID" json:"reservation,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// ConsumesInventory reports whether the booking row itself holds units. A
// RESERVED booking delegates that to its reservation so the stay is never
// counted twice.
func (b *Booking) ConsumesInventory() bool {
	return b.Status != StatusCancelled && b.Status != StatusReserved
}

// BookingReservation is the timed hold phase of a booking. It expires unless
// confirmed, and may be extended a bounded number of times.
type BookingReservation struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BookingID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"booking_id"`
	ReservationReference string     `gorm:"not null;uniqueIndex" json:"reservation_reference"`
	Status               string     `gorm:"not null;default:'ACTIVE';index:idx_reservation_sweep" json:"status"`
	ReservedAt           time.Time  `gorm:"not null" json:"reserved_at"`
	ExpiresAt            time.Time  `gorm:"not null;index:idx_reservation_sweep" json:"expires_at"`
	ExtensionCount       int        `gorm:"not null;default:0" json:"extension_count"`
	ConfirmedAt          *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (BookingReservation) TableName() string {
	return "booking_reservations"
}

// IsActive reports whether the hold still counts against inventory
func (r *BookingReservation) IsActive(now time.Time) bool {
	return r.Status == ReservationActive && r.ExpiresAt.After(now)
}

// IsLapsed reports whether the hold timed out without being confirmed. The
// sweep flips lapsed holds to EXPIRED; until then they are already invisible
// to availability reads.
func (r *BookingReservation) IsLapsed(now time.Time) bool {
	return r.Status == ReservationActive && !r.ExpiresAt.After(now)
}

// BookingAvailabilityLock bridges the gap between a create attempt's capacity
// check and its reservation row landing. It is inserted before the check so
// concurrent attempts see each other, and deactivated in the transaction that
// persists (or abandons) the attempt. Expired rows self-heal via the sweep.
type BookingAvailabilityLock struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoomID       uuid.UUID `gorm:"type:uuid;not null;index:idx_avail_lock_room" json:"room_id"`
	CheckInDate  time.Time `gorm:"type:date;not null" json:"check_in_date"`
	CheckOutDate time.Time `gorm:"type:date;not null" json:"check_out_date"`
	Quantity     int       `gorm:"not null;default:1" json:"quantity"`
	LockToken    string    `gorm:"not null" json:"lock_token"`
	IsActive     bool      `gorm:"not null;default:true;index:idx_avail_lock_room" json:"is_active"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (BookingAvailabilityLock) TableName() string {
	return "booking_availability_locks"
}

// Models returns every model of this package for migration wiring
func Models() []interface{} {
	return []interface{}{
		&Booking{},
		&BookingReservation{},
		&BookingAvailabilityLock{},
	}
}
