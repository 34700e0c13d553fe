package schedule

import (
	"fmt"
	"sort"
	"time"

	"timegrid/internal/timeutil"
)

// The three series granularities all edit the base entry's stored rule;
// derived occurrences are never rewritten individually. Each transform is
// pure: it returns a new rule (or a decision) and leaves the input intact,
// so a failed persistence write leaves the series untouched.

// ExcludeDay returns a copy of the rule with dayKey added to its exception
// dates ("delete this occurrence only"). The union is idempotent.
func ExcludeDay(r *Recurrence, dayKey string) (*Recurrence, error) {
	if r == nil {
		return nil, ErrNotRecurring
	}
	if _, err := timeutil.ParseDayKey(dayKey, time.UTC); err != nil {
		return nil, fmt.Errorf("invalid day key %q: %w", dayKey, err)
	}
	out := r.Clone()
	if out.HasException(dayKey) {
		return out, nil
	}
	out.ExceptionDates = append(out.ExceptionDates, dayKey)
	sort.Strings(out.ExceptionDates)
	return out, nil
}

// TruncateResult is the outcome of a "this day forward" deletion.
type TruncateResult struct {
	// Rule is the tightened rule to persist; nil when RemovesSeries.
	Rule *Recurrence
	// RemovesSeries is set when the cut lands on or before the template's
	// own start day, leaving no valid occurrence: the caller must delete
	// the base entry instead of persisting an impossible rule.
	RemovesSeries bool
}

// TruncateFrom ends the series the day before fromDayKey. Occurrences
// strictly before that day survive; the target day and everything after it
// disappear on the next expansion. A COUNT termination is replaced by the
// new until bound.
func TruncateFrom(e *TimeEntry, fromDayKey string) (TruncateResult, error) {
	if e.Recurrence == nil {
		return TruncateResult{}, ErrNotRecurring
	}
	day, err := timeutil.ParseDayKey(fromDayKey, e.Start.Location())
	if err != nil {
		return TruncateResult{}, fmt.Errorf("invalid day key %q: %w", fromDayKey, err)
	}
	if fromDayKey <= timeutil.DayKey(e.Start) {
		return TruncateResult{RemovesSeries: true}, nil
	}
	cut := timeutil.DayKey(day.AddDate(0, 0, -1))
	out := e.Recurrence.Clone()
	// Only ever tighten: a cut past the series' existing end must not
	// resurrect occurrences by replacing a shorter COUNT/UNTIL bound.
	if existing := effectiveUntil(out, e.Start); existing != "" && existing <= cut {
		return TruncateResult{Rule: out}, nil
	}
	out.Until = cut
	out.Count = 0
	return TruncateResult{Rule: out}, nil
}
