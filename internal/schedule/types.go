// Package schedule is the domain core: the time-entry and weekly-recurrence
// model, the engine that materializes occurrences for a viewing window, and
// the transforms that edit a series at its three granularities.
package schedule

import (
	"time"

	"timegrid/internal/timeutil"
)

// FrequencyWeekly is the only recurrence frequency the model supports.
const FrequencyWeekly = "weekly"

// TimeEntry is a persisted work block. When Recurrence is set the entry is
// the template of a series and its own start/end describe the first
// occurrence; otherwise it is a single event.
type TimeEntry struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"owner_id"`
	CompanyID  string      `json:"company_id"`
	Title      string      `json:"title"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	GuestIDs   []string    `json:"guest_ids,omitempty"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
	CreatedAt  time.Time   `json:"created_at,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at,omitempty"`
}

// Recurring reports whether the entry is the template of a series.
func (e *TimeEntry) Recurring() bool {
	return e.Recurrence != nil
}

// Duration is the template duration carried onto every occurrence.
func (e *TimeEntry) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Recurrence describes a weekly-repeating series. Date-only fields (Until,
// ExceptionDates) are YYYY-MM-DD day keys so persistence can never shift
// them across a timezone boundary.
type Recurrence struct {
	Frequency string `json:"frequency"`
	// Interval is the week stride; occurrences land every Interval weeks
	// counted from the template's own week.
	Interval int `json:"interval"`
	// Weekdays are 0=Sunday..6=Saturday. Empty means "the template's own
	// weekday", resolved at expansion time.
	Weekdays []int `json:"weekdays,omitempty"`
	// Until is the inclusive last day of the series, or "" for no bound.
	Until string `json:"until,omitempty"`
	// Count terminates the series after exactly Count occurrences counted
	// from the template start in weekday order. Zero means unbounded.
	Count int `json:"count,omitempty"`
	// ExceptionDates are day keys excluded from materialization.
	ExceptionDates []string `json:"exception_dates,omitempty"`
}

// Clone returns a deep copy so mutation transforms never alias the stored
// rule's slices.
func (r *Recurrence) Clone() *Recurrence {
	if r == nil {
		return nil
	}
	out := *r
	out.Weekdays = append([]int(nil), r.Weekdays...)
	out.ExceptionDates = append([]string(nil), r.ExceptionDates...)
	return &out
}

// HasException reports whether the given day key is excluded.
func (r *Recurrence) HasException(dayKey string) bool {
	for _, d := range r.ExceptionDates {
		if d == dayKey {
			return true
		}
	}
	return false
}

// Occurrence is one materialized instance of an entry inside a viewing
// window. It is derived state: recomputed on every expansion, never stored.
type Occurrence struct {
	BaseID       string    `json:"base_id"`
	Title        string    `json:"title"`
	OwnerID      string    `json:"owner_id"`
	GuestIDs     []string  `json:"guest_ids,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	IsOccurrence bool      `json:"is_occurrence"`
}

// Key is the occurrence's identity for dedupe and UI purposes; occurrences
// have no persisted id of their own.
func (o Occurrence) Key() string {
	return o.BaseID + "|" + o.Start.Format(time.RFC3339)
}

// DayKey returns the calendar day the occurrence falls on.
func (o Occurrence) DayKey() string {
	return timeutil.DayKey(o.Start)
}
