package availability

import (
	"time"

	"roomly/internal/rooms"
	"roomly/internal/shared/utils/dates"
)

// DayAvailability is the resolved unit count for one room-night.
type DayAvailability struct {
	Date      time.Time `json:"date"`
	Available int       `json:"available"`
}

// computeAvailability resolves available units per night of [start, end) as
// effective inventory minus consumed units. Overrides carry full authority:
// an AvailableCount above TotalUnits raises the ceiling, and the result is
// never clamped, so an override dropped below existing consumption shows up
// as a negative count rather than a silently corrected zero.
func computeAvailability(room *rooms.Room, overrides []rooms.RoomAvailabilityOverride, spans []ConsumingSpan, start, end time.Time) []DayAvailability {
	overrideByDate := make(map[time.Time]*rooms.RoomAvailabilityOverride, len(overrides))
	for i := range overrides {
		overrideByDate[dates.Normalize(overrides[i].Date)] = &overrides[i]
	}

	consumed := make(map[time.Time]int)
	for _, span := range spans {
		for _, night := range dates.InRange(span.CheckIn, span.CheckOut) {
			consumed[night] += span.Quantity
		}
	}

	nights := dates.InRange(start, end)
	result := make([]DayAvailability, 0, len(nights))
	for _, night := range nights {
		inventory := room.TotalUnits
		if ov, ok := overrideByDate[night]; ok {
			inventory = ov.EffectiveInventory(room.TotalUnits)
		}
		result = append(result, DayAvailability{
			Date:      night,
			Available: inventory - consumed[night],
		})
	}
	return result
}

// minAvailable returns the lowest nightly count across the slice. A stay fits
// only if its worst night fits.
func minAvailable(days []DayAvailability) int {
	if len(days) == 0 {
		return 0
	}
	min := days[0].Available
	for _, d := range days[1:] {
		if d.Available < min {
			min = d.Available
		}
	}
	return min
}
