package dates

import "time"

// Normalize truncates a timestamp to midnight UTC. All stay ranges and
// calendar entries are keyed by these normalized dates.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InRange returns every night of the half-open range [checkIn, checkOut) in
// ascending order. The checkout night is excluded: a guest leaving on the
// 18th does not consume the night of the 18th.
func InRange(checkIn, checkOut time.Time) []time.Time {
	start := Normalize(checkIn)
	end := Normalize(checkOut)

	var result []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		result = append(result, d)
	}
	return result
}

// Nights returns the number of nights in [checkIn, checkOut)
func Nights(checkIn, checkOut time.Time) int {
	start := Normalize(checkIn)
	end := Normalize(checkOut)
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}

// SameDay reports whether two timestamps fall on the same calendar day in UTC
func SameDay(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) share at least one night
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return Normalize(aStart).Before(Normalize(bEnd)) && Normalize(bStart).Before(Normalize(aEnd))
}
