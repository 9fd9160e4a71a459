package sla

import (
	"math"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/config"
)

// BusinessHours converts the wall-clock interval [start, end) into
// elapsed working hours under the given calendar, rounded to two
// decimal places. Non-working days and before/after-hours portions
// contribute nothing. The config is assumed valid (start < end,
// at least one working day); config.Validate enforces that at load
// time.
func BusinessHours(start, end time.Time, wh config.WorkingHoursConfig) float64 {
	if !end.After(start) {
		return 0
	}

	loc := start.Location()
	end = end.In(loc)

	var minutes float64
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	for !day.After(end) {
		if wh.Days[day.Weekday()] {
			winStart := time.Date(day.Year(), day.Month(), day.Day(), wh.Start.Hour, wh.Start.Minute, 0, 0, loc)
			winEnd := time.Date(day.Year(), day.Month(), day.Day(), wh.End.Hour, wh.End.Minute, 0, 0, loc)

			ovStart := winStart
			if start.After(ovStart) {
				ovStart = start
			}
			ovEnd := winEnd
			if end.Before(ovEnd) {
				ovEnd = end
			}
			if ovEnd.After(ovStart) {
				minutes += ovEnd.Sub(ovStart).Minutes()
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	return math.Round(minutes/60*100) / 100
}
