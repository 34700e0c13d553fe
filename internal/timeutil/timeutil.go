// Package timeutil holds the calendar arithmetic shared by the expansion
// and reschedule engines. Everything here is pure and operates in a single
// explicit location so day-key math cannot drift with the process timezone.
package timeutil

import "time"

const (
	// SnapStep is the grid granularity for rendering and drag snapping.
	SnapStep = 15

	// MaxMinuteOfDay is the last valid snapped start minute (23:45).
	MaxMinuteOfDay = 23*60 + 45
)

// DayKeyLayout is the canonical layout for day-level comparisons
// (exception dates, termination dates).
const DayKeyLayout = "2006-01-02"

// DayKey formats t as a calendar-day key in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDayKey parses a YYYY-MM-DD key into midnight of that day in loc.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayKeyLayout, key, loc)
}

// DayStart truncates t to 00:00 of its calendar day, preserving location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns the Sunday 00:00 of the week containing t.
func WeekStart(t time.Time) time.Time {
	return DayStart(t).AddDate(0, 0, -int(t.Weekday()))
}

// OnDay combines the calendar day of day with the time-of-day of tod.
func OnDay(day, tod time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), 0, day.Location())
}

// MinuteOfDay returns the minutes elapsed since 00:00 of t's day.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// SnapMinutes rounds minutes to the nearest multiple of step.
// A non-positive step falls back to SnapStep.
func SnapMinutes(minutes, step int) int {
	if step <= 0 {
		step = SnapStep
	}
	half := step / 2
	if minutes < 0 {
		return -SnapMinutes(-minutes, step)
	}
	return ((minutes + half) / step) * step
}

// PixelsToMinutesOfDay converts a vertical pixel offset inside a day column
// into a snapped minute-of-day. The result is always a multiple of SnapStep
// inside [0, MaxMinuteOfDay], so a derived start can never leave its day.
func PixelsToMinutesOfDay(y, pxPerHour float64) int {
	if pxPerHour <= 0 {
		return 0
	}
	minutes := SnapMinutes(int(y/pxPerHour*60), SnapStep)
	if minutes < 0 {
		return 0
	}
	if minutes > MaxMinuteOfDay {
		return MaxMinuteOfDay
	}
	return minutes
}

// WeeksBetween returns the number of whole weeks from the week containing a
// to the week containing b. Negative when b's week precedes a's.
func WeeksBetween(a, b time.Time) int {
	wa := WeekStart(a)
	wb := WeekStart(b)
	// Round so a DST-shortened or -lengthened week still counts as one.
	days := int(wb.Sub(wa).Hours()/24 + 0.5)
	if wb.Before(wa) {
		days = -int(wa.Sub(wb).Hours()/24 + 0.5)
	}
	return days / 7
}
