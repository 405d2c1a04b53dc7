package availability

import (
	"testing"
	"time"

	"roomly/internal/rooms"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2026, time.October, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func testRoom(totalUnits int) *rooms.Room {
	return &rooms.Room{ID: uuid.New(), Name: "Deluxe King", TotalUnits: totalUnits, DefaultPrice: 120, IsActive: true}
}

func TestComputeAvailability_NoConsumption(t *testing.T) {
	room := testRoom(5)

	days := computeAvailability(room, nil, nil, day(1), day(4))

	assert.Len(t, days, 3)
	for _, d := range days {
		assert.Equal(t, 5, d.Available)
	}
}

func TestComputeAvailability_SpansStackPerNight(t *testing.T) {
	room := testRoom(5)
	spans := []ConsumingSpan{
		{RoomID: room.ID, CheckIn: day(1), CheckOut: day(3), Quantity: 2},
		{RoomID: room.ID, CheckIn: day(2), CheckOut: day(5), Quantity: 1},
	}

	days := computeAvailability(room, nil, spans, day(1), day(5))

	assert.Equal(t, 3, days[0].Available) // night 1: one span
	assert.Equal(t, 2, days[1].Available) // night 2: both spans overlap
	assert.Equal(t, 4, days[2].Available) // night 3: checkout night of first span excluded
	assert.Equal(t, 4, days[3].Available)
}

func TestComputeAvailability_CheckoutNightNotConsumed(t *testing.T) {
	room := testRoom(1)
	spans := []ConsumingSpan{
		{RoomID: room.ID, CheckIn: day(1), CheckOut: day(3), Quantity: 1},
	}

	days := computeAvailability(room, nil, spans, day(3), day(4))

	// a back-to-back stay starting on the checkout date fits
	assert.Equal(t, 1, days[0].Available)
}

func TestComputeAvailability_OverrideRaisesCeiling(t *testing.T) {
	room := testRoom(5)
	overrides := []rooms.RoomAvailabilityOverride{
		{RoomID: room.ID, Date: day(2), IsAvailable: true, AvailableCount: intPtr(8)},
	}

	days := computeAvailability(room, overrides, nil, day(1), day(3))

	assert.Equal(t, 5, days[0].Available)
	assert.Equal(t, 8, days[1].Available)
}

func TestComputeAvailability_HardBlockedDate(t *testing.T) {
	room := testRoom(5)
	overrides := []rooms.RoomAvailabilityOverride{
		{RoomID: room.ID, Date: day(2), IsAvailable: false},
	}

	days := computeAvailability(room, overrides, nil, day(1), day(3))

	assert.Equal(t, 5, days[0].Available)
	assert.Equal(t, 0, days[1].Available)
}

func TestComputeAvailability_NegativeWhenOverrideDropsBelowConsumption(t *testing.T) {
	room := testRoom(5)
	overrides := []rooms.RoomAvailabilityOverride{
		{RoomID: room.ID, Date: day(1), IsAvailable: true, AvailableCount: intPtr(2)},
	}
	spans := []ConsumingSpan{
		{RoomID: room.ID, CheckIn: day(1), CheckOut: day(2), Quantity: 3},
	}

	days := computeAvailability(room, overrides, spans, day(1), day(2))

	assert.Equal(t, -1, days[0].Available)
}

func TestComputeAvailability_StackedHoldsExhaustUnits(t *testing.T) {
	room := testRoom(3)

	// each attempt registers its own span before checking; it is admitted
	// while the minimum stays non-negative, exactly the create path's gate
	var spans []ConsumingSpan
	for i := 0; i < 3; i++ {
		spans = append(spans, ConsumingSpan{RoomID: room.ID, CheckIn: day(1), CheckOut: day(4), Quantity: 1})
		days := computeAvailability(room, nil, spans, day(1), day(4))
		assert.GreaterOrEqual(t, minAvailable(days), 0)
	}

	// the fourth hold overdraws and must be rejected
	spans = append(spans, ConsumingSpan{RoomID: room.ID, CheckIn: day(1), CheckOut: day(4), Quantity: 1})
	days := computeAvailability(room, nil, spans, day(1), day(4))
	assert.Equal(t, -1, minAvailable(days))
}

func TestMinAvailable(t *testing.T) {
	days := []DayAvailability{
		{Date: day(1), Available: 4},
		{Date: day(2), Available: 1},
		{Date: day(3), Available: 3},
	}

	assert.Equal(t, 1, minAvailable(days))
	assert.Equal(t, 0, minAvailable(nil))
}
