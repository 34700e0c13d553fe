package schedule

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"timegrid/internal/logging"
	"timegrid/internal/timeutil"
)

// Expand materializes every occurrence of entries that intersects
// [rangeStart, rangeEnd] (inclusive on both ends, compared on occurrence
// start). Non-recurring entries pass through when their start is inside the
// window; recurring entries are walked week by week from their template.
//
// Expand is pure with respect to its inputs and is meant to be recomputed
// on every window or data change rather than cached. A malformed stored
// rule skips its entry with a warning instead of failing the whole batch.
// Output order is not guaranteed; callers sort for display.
func Expand(entries []TimeEntry, rangeStart, rangeEnd time.Time) []Occurrence {
	out := make([]Occurrence, 0, len(entries))
	seen := make(map[string]struct{})

	emit := func(o Occurrence) {
		// Entries fetched through overlapping queries can repeat; identity
		// is baseID + start.
		if _, dup := seen[o.Key()]; dup {
			return
		}
		seen[o.Key()] = struct{}{}
		out = append(out, o)
	}

	for i := range entries {
		e := &entries[i]
		if !e.Recurring() {
			if !e.Start.Before(rangeStart) && !e.Start.After(rangeEnd) {
				emit(occurrenceOf(e, e.Start, e.End, false))
			}
			continue
		}
		if err := validateRule(e.Recurrence); err != nil {
			logging.Get().Warn("skipping entry with malformed recurrence rule",
				zap.String("entry_id", e.ID), zap.Error(err))
			continue
		}
		expandSeries(e, rangeStart, rangeEnd, emit)
	}
	return out
}

func expandSeries(e *TimeEntry, rangeStart, rangeEnd time.Time, emit func(Occurrence)) {
	rule := e.Recurrence
	loc := e.Start.Location()
	rangeStart = rangeStart.In(loc)
	rangeEnd = rangeEnd.In(loc)

	weekdays := effectiveWeekdays(rule, e.Start)
	untilKey := effectiveUntil(rule, e.Start)
	duration := e.Duration()

	// First active week: never before the template's own week, and aligned
	// backward from the window start onto the modulo-interval week grid.
	templateWeek := timeutil.WeekStart(e.Start)
	week := templateWeek
	if rangeStart.After(e.Start) {
		ahead := timeutil.WeeksBetween(e.Start, rangeStart)
		ahead -= ahead % rule.Interval
		if ahead > 0 {
			week = templateWeek.AddDate(0, 0, 7*ahead)
		}
	}

	lastWeek := timeutil.WeekStart(rangeEnd)
	if untilKey != "" {
		if untilDay, err := timeutil.ParseDayKey(untilKey, loc); err == nil {
			if w := timeutil.WeekStart(untilDay); w.Before(lastWeek) {
				lastWeek = w
			}
		}
	}

	for ; !week.After(lastWeek); week = week.AddDate(0, 0, 7*rule.Interval) {
		for _, wd := range weekdays {
			day := week.AddDate(0, 0, wd)
			dayKey := timeutil.DayKey(day)
			if rule.HasException(dayKey) {
				continue
			}
			if untilKey != "" && dayKey > untilKey {
				continue
			}
			start := timeutil.OnDay(day, e.Start)
			if start.Before(e.Start) || start.Before(rangeStart) || start.After(rangeEnd) {
				continue
			}
			emit(occurrenceOf(e, start, start.Add(duration), true))
		}
	}
}

func occurrenceOf(e *TimeEntry, start, end time.Time, recurring bool) Occurrence {
	return Occurrence{
		BaseID:       e.ID,
		Title:        e.Title,
		OwnerID:      e.OwnerID,
		GuestIDs:     e.GuestIDs,
		Start:        start,
		End:          end,
		IsOccurrence: recurring,
	}
}

// SortByStart orders occurrences for display, breaking start-time ties by
// identity key so the order is stable across expansions.
func SortByStart(occurrences []Occurrence) {
	sort.Slice(occurrences, func(i, j int) bool {
		if !occurrences[i].Start.Equal(occurrences[j].Start) {
			return occurrences[i].Start.Before(occurrences[j].Start)
		}
		return occurrences[i].Key() < occurrences[j].Key()
	})
}
