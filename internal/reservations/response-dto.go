package reservations

import (
	"time"

	"roomly/internal/pricing"
)

// ReservationResponse is the API shape of a booking and its hold
type ReservationResponse struct {
	BookingID            string     `json:"booking_id"`
	ReservationReference string     `json:"reservation_reference"`
	RoomID               string     `json:"room_id"`
	CheckIn              time.Time  `json:"check_in"`
	CheckOut             time.Time  `json:"check_out"`
	Quantity             int        `json:"quantity"`
	TotalPrice           float64    `json:"total_price"`
	BookingStatus        string     `json:"booking_status"`
	ReservationStatus    string     `json:"reservation_status"`
	ReservedAt           *time.Time `json:"reserved_at,omitempty"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
	ExtensionCount       int        `json:"extension_count"`
	PaymentReference     *string    `json:"payment_reference,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// AvailabilityResponse answers a stay availability query with the nightly
// prices and the quantity-adjusted stay total alongside the unit count
type AvailabilityResponse struct {
	RoomID        string               `json:"room_id"`
	CheckIn       time.Time            `json:"check_in"`
	CheckOut      time.Time            `json:"check_out"`
	Available     bool                 `json:"available"`
	MinUnits      int                  `json:"min_units"`
	PricePerNight []pricing.NightPrice `json:"price_per_night"`
	TotalPrice    float64              `json:"total_price"`
}

// UnavailableRoomsResponse lists rooms that cannot host the requested stay
type UnavailableRoomsResponse struct {
	CheckIn            time.Time `json:"check_in"`
	CheckOut           time.Time `json:"check_out"`
	Quantity           int       `json:"quantity"`
	UnavailableRoomIds []string  `json:"unavailable_room_ids"`
}

func toReservationResponse(booking *Booking) *ReservationResponse {
	resp := &ReservationResponse{
		BookingID:        booking.ID.String(),
		RoomID:           booking.RoomID.String(),
		CheckIn:          booking.CheckInDate,
		CheckOut:         booking.CheckOutDate,
		Quantity:         booking.Quantity,
		TotalPrice:       booking.TotalPrice,
		BookingStatus:    booking.Status,
		PaymentReference: booking.PaymentReference,
		CreatedAt:        booking.CreatedAt,
	}
	if booking.Reservation != nil {
		resp.ReservationReference = booking.Reservation.ReservationReference
		resp.ReservationStatus = booking.Reservation.Status
		resp.ExtensionCount = booking.Reservation.ExtensionCount
		reservedAt := booking.Reservation.ReservedAt
		resp.ReservedAt = &reservedAt
		expiresAt := booking.Reservation.ExpiresAt
		resp.ExpiresAt = &expiresAt
	}
	return resp
}
