package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsPreservingDay_SameYear(t *testing.T) {
	got := AddMonthsPreservingDay(date(2025, time.March, 15), 2)
	assert.Equal(t, date(2025, time.May, 15), got)
}

func TestAddMonthsPreservingDay_YearRollover(t *testing.T) {
	// December (index 11) + 2 lands in February of the next year
	got := AddMonthsPreservingDay(date(2025, time.December, 31), 2)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.February, got.Month())
	// February 2026 has 28 days; day-of-month 31 clamps, not rolls
	assert.Equal(t, 28, got.Day())
}

func TestAddMonthsPreservingDay_LeapFebruary(t *testing.T) {
	got := AddMonthsPreservingDay(date(2023, time.December, 31), 2)
	assert.Equal(t, date(2024, time.February, 29), got)
}

func TestAddMonthsPreservingDay_ShortMonthClamp(t *testing.T) {
	got := AddMonthsPreservingDay(date(2025, time.January, 31), 1)
	assert.Equal(t, date(2025, time.February, 28), got)

	got = AddMonthsPreservingDay(date(2025, time.March, 31), 1)
	assert.Equal(t, date(2025, time.April, 30), got)
}

func TestAddMonthsPreservingDay_DayPreservedWhenValid(t *testing.T) {
	for i := 1; i <= 12; i++ {
		got := AddMonthsPreservingDay(date(2025, time.January, 28), i)
		assert.Equal(t, 28, got.Day(), "day must survive +%d months", i)
	}
}

func TestAddMonthsPreservingDay_MultiYear(t *testing.T) {
	got := AddMonthsPreservingDay(date(2025, time.June, 10), 25)
	assert.Equal(t, date(2027, time.July, 10), got)
}

func TestAddMonthsPreservingDay_Negative(t *testing.T) {
	got := AddMonthsPreservingDay(date(2025, time.January, 15), -1)
	assert.Equal(t, date(2024, time.December, 15), got)

	got = AddMonthsPreservingDay(date(2025, time.March, 31), -1)
	assert.Equal(t, date(2025, time.February, 28), got)
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, DaysInMonth(2025, time.January))
	assert.Equal(t, 28, DaysInMonth(2025, time.February))
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 30, DaysInMonth(2025, time.November))
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2025, time.July, 4, 13, 45, 12, 999, time.UTC)
	assert.Equal(t, date(2025, time.July, 4), StartOfDay(ts))
}
