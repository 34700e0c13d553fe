package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"timegrid/internal/timeutil"
)

var (
	// ErrEndNotAfterStart is returned for zero-length or inverted entries.
	ErrEndNotAfterStart = errors.New("end must be after start")

	// ErrNotRecurring is returned when a series operation targets an entry
	// without a recurrence rule.
	ErrNotRecurring = errors.New("entry has no recurrence rule")
)

// Validate rejects an entry before any write reaches the store.
func Validate(e *TimeEntry) error {
	if !e.End.After(e.Start) {
		return ErrEndNotAfterStart
	}
	if e.Recurrence == nil {
		return nil
	}
	return validateRule(e.Recurrence)
}

func validateRule(r *Recurrence) error {
	if r.Frequency != "" && r.Frequency != FrequencyWeekly {
		return fmt.Errorf("unsupported frequency %q", r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("interval must be >= 1, got %d", r.Interval)
	}
	for _, wd := range r.Weekdays {
		if wd < 0 || wd > 6 {
			return fmt.Errorf("weekday %d out of range", wd)
		}
	}
	if r.Count < 0 {
		return fmt.Errorf("count must be >= 1, got %d", r.Count)
	}
	if r.Until != "" {
		if _, err := timeutil.ParseDayKey(r.Until, time.UTC); err != nil {
			return fmt.Errorf("invalid until date %q: %w", r.Until, err)
		}
		if r.Count > 0 {
			return errors.New("rule cannot carry both until and count")
		}
	}
	return nil
}

// effectiveWeekdays resolves the rule's weekday set against the template.
// An empty set defaults to the template's own weekday (never dropped), and
// the result is ascending and de-duplicated for deterministic walks.
func effectiveWeekdays(r *Recurrence, templateStart time.Time) []int {
	if len(r.Weekdays) == 0 {
		return []int{int(templateStart.Weekday())}
	}
	seen := [7]bool{}
	out := make([]int, 0, len(r.Weekdays))
	for _, wd := range r.Weekdays {
		if wd >= 0 && wd <= 6 && !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}
	if len(out) == 0 {
		// Every configured value was out of range; clamp to the template's
		// weekday rather than silently dropping the series.
		return []int{int(templateStart.Weekday())}
	}
	sort.Ints(out)
	return out
}

// effectiveUntil resolves the rule's termination into an inclusive last-day
// key: the explicit until date, the COUNT-derived date, or "" for none.
// COUNT- and UNTIL-terminated series then share one range-intersection path.
func effectiveUntil(r *Recurrence, templateStart time.Time) string {
	if r.Until != "" {
		return r.Until
	}
	if r.Count <= 0 {
		return ""
	}
	return countUntil(r, templateStart)
}

// countUntil walks forward from the template's week in interval-week steps,
// visiting the configured weekdays in ascending order, and returns the day
// of the Count-th occurrence at or after the template's start date.
// Exception dates do not participate: COUNT fixes the series length, and
// deleting one occurrence must not shift the tail.
func countUntil(r *Recurrence, templateStart time.Time) string {
	weekdays := effectiveWeekdays(r, templateStart)
	startDay := timeutil.DayStart(templateStart)
	week := timeutil.WeekStart(templateStart)

	remaining := r.Count
	for {
		for _, wd := range weekdays {
			day := week.AddDate(0, 0, wd)
			if day.Before(startDay) {
				continue
			}
			remaining--
			if remaining == 0 {
				return timeutil.DayKey(day)
			}
		}
		week = week.AddDate(0, 0, 7*r.Interval)
	}
}
