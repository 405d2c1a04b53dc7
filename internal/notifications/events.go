package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReservationEventType enumerates the lifecycle transitions published to Kafka
type ReservationEventType string

const (
	EventReservationCreated   ReservationEventType = "reservation.created"
	EventReservationExtended  ReservationEventType = "reservation.extended"
	EventReservationConfirmed ReservationEventType = "reservation.confirmed"
	EventReservationExpired   ReservationEventType = "reservation.expired"
	EventReservationCancelled ReservationEventType = "reservation.cancelled"
)

// ReservationEvent is the wire format for reservation lifecycle messages.
// Events for the same room are keyed by room id so per-room ordering is
// preserved across partitions.
type ReservationEvent struct {
	ID                   uuid.UUID            `json:"id"`
	Type                 ReservationEventType `json:"type"`
	ReservationReference string               `json:"reservation_reference"`
	BookingID            uuid.UUID            `json:"booking_id"`
	RoomID               uuid.UUID            `json:"room_id"`
	UserID               uuid.UUID            `json:"user_id"`
	CheckIn              time.Time            `json:"check_in"`
	CheckOut             time.Time            `json:"check_out"`
	Quantity             int                  `json:"quantity"`
	TotalPrice           float64              `json:"total_price,omitempty"`
	ExpiresAt            *time.Time           `json:"expires_at,omitempty"`
	OccurredAt           time.Time            `json:"occurred_at"`
}

// NewReservationEvent stamps identity and occurrence time on an event
func NewReservationEvent(eventType ReservationEventType) *ReservationEvent {
	return &ReservationEvent{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now(),
	}
}

func (e *ReservationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// GetPartitionKey routes all events of one room to the same partition
func (e *ReservationEvent) GetPartitionKey() string {
	return e.RoomID.String()
}
