package notifications

import (
	"context"

	"roomly/pkg/logger"
)

// NewLoggingHandler returns the default event sink: each lifecycle event is
// recorded with enough identity to correlate against the booking tables.
// Guest-facing delivery (mail, push) plugs in as an alternative EventHandler.
func NewLoggingHandler() EventHandler {
	return func(ctx context.Context, event *ReservationEvent) error {
		logger.GetDefault().InfoWithContext(ctx, "reservation lifecycle event", map[string]interface{}{
			"type":       string(event.Type),
			"reference":  event.ReservationReference,
			"booking_id": event.BookingID.String(),
			"room_id":    event.RoomID.String(),
			"user_id":    event.UserID.String(),
		})
		return nil
	}
}
