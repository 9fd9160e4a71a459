package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-core/internal/config"
)

func weekdayCalendar() config.WorkingHoursConfig {
	return config.WorkingHoursConfig{
		Days: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		Start: config.ClockTime{Hour: 9},
		End:   config.ClockTime{Hour: 17},
	}
}

func TestBusinessHoursZeroInterval(t *testing.T) {
	wh := weekdayCalendar()
	at := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC) // Monday

	assert.Equal(t, 0.0, BusinessHours(at, at, wh))
	assert.Equal(t, 0.0, BusinessHours(at, at.Add(-time.Hour), wh))
}

func TestBusinessHoursWithinOneDay(t *testing.T) {
	wh := weekdayCalendar()
	start := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	assert.Equal(t, 3.0, BusinessHours(start, end, wh))
}

func TestBusinessHoursClampsToWindow(t *testing.T) {
	wh := weekdayCalendar()
	// 07:00 to 20:00 on a Monday only counts the 09:00-17:00 window.
	start := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 2, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, 8.0, BusinessHours(start, end, wh))
}

func TestBusinessHoursEntirelyOutsideWindow(t *testing.T) {
	wh := weekdayCalendar()
	start := time.Date(2026, time.March, 2, 18, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 2, 22, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.0, BusinessHours(start, end, wh))
}

func TestBusinessHoursSkipsWeekend(t *testing.T) {
	wh := weekdayCalendar()
	// Friday 16:00 through Monday 10:00: one hour Friday, one Monday.
	start := time.Date(2026, time.March, 6, 16, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 2.0, BusinessHours(start, end, wh))
}

func TestBusinessHoursNonWorkingDayOnly(t *testing.T) {
	wh := weekdayCalendar()
	// Entirely within a Saturday.
	start := time.Date(2026, time.March, 7, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 7, 17, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.0, BusinessHours(start, end, wh))
}

func TestBusinessHoursRoundsToTwoDecimals(t *testing.T) {
	wh := weekdayCalendar()
	start := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Minute)

	assert.Equal(t, 1.67, BusinessHours(start, end, wh))
}

func TestBusinessHoursMonotonic(t *testing.T) {
	wh := weekdayCalendar()
	start := time.Date(2026, time.March, 5, 8, 0, 0, 0, time.UTC) // Thursday

	prev := 0.0
	for step := time.Hour; step <= 96*time.Hour; step += time.Hour {
		got := BusinessHours(start, start.Add(step), wh)
		assert.GreaterOrEqual(t, got, prev, "elapsed must never decrease as the interval grows")
		prev = got
	}
}

func TestBusinessHoursMultipleFullDays(t *testing.T) {
	wh := weekdayCalendar()
	// Monday 09:00 through Wednesday 17:00 = three full 8h days.
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 4, 17, 0, 0, 0, time.UTC)

	assert.Equal(t, 24.0, BusinessHours(start, end, wh))
}
