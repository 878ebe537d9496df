package timeutil

import "time"

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the start of the day (midnight) in UTC
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddMonthsPreservingDay adds n calendar months to t keeping the
// day-of-month. When the target month is shorter than the original day
// the result clamps to the last day of that month (Jan 31 + 1 month is
// Feb 28 or 29), never rolling into the following month the way naive
// time.AddDate does. Year boundaries are handled for any n, including
// negative offsets.
func AddMonthsPreservingDay(t time.Time, n int) time.Time {
	monthIdx := int(t.Month()) - 1 + n
	year := t.Year() + monthIdx/12
	monthIdx %= 12
	if monthIdx < 0 {
		monthIdx += 12
		year--
	}
	month := time.Month(monthIdx + 1)

	day := t.Day()
	if last := DaysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
