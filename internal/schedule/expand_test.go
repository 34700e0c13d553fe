package schedule

import (
	"testing"
	"time"
)

// Monday 2024-01-01 09:00-10:00 UTC, the template used throughout.
func weeklyTemplate(rule *Recurrence) TimeEntry {
	return TimeEntry{
		ID:         "base-1",
		OwnerID:    "user-1",
		CompanyID:  "acme",
		Title:      "Standup",
		Start:      time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Recurrence: rule,
	}
}

func expandDays(t *testing.T, entries []TimeEntry, from, to time.Time) []string {
	t.Helper()
	occs := Expand(entries, from, to)
	SortByStart(occs)
	days := make([]string, 0, len(occs))
	for _, o := range occs {
		days = append(days, o.DayKey())
	}
	return days
}

func equalDays(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestExpandNonRecurringWindowMembership(t *testing.T) {
	t.Parallel()

	e := TimeEntry{
		ID:    "single",
		Start: time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC),
	}
	in := Expand([]TimeEntry{e}, e.Start.AddDate(0, 0, -1), e.Start.AddDate(0, 0, 1))
	if len(in) != 1 {
		t.Fatalf("expected the entry inside its window, got %d occurrences", len(in))
	}
	if in[0].IsOccurrence {
		t.Fatal("non-recurring entry must not be flagged as a series occurrence")
	}
	if in[0].BaseID != "single" || !in[0].Start.Equal(e.Start) || !in[0].End.Equal(e.End) {
		t.Fatalf("unexpected occurrence: %+v", in[0])
	}

	out := Expand([]TimeEntry{e}, e.Start.AddDate(0, 0, 1), e.Start.AddDate(0, 0, 2))
	if len(out) != 0 {
		t.Fatalf("expected no occurrences outside the window, got %d", len(out))
	}

	// Window boundaries are inclusive on the start.
	edge := Expand([]TimeEntry{e}, e.Start, e.Start)
	if len(edge) != 1 {
		t.Fatalf("expected boundary start to be included, got %d", len(edge))
	}
}

func TestExpandWeeklyMondayWednesday(t *testing.T) {
	t.Parallel()

	e := weeklyTemplate(&Recurrence{
		Frequency: FrequencyWeekly,
		Interval:  1,
		Weekdays:  []int{1, 3},
	})
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 17, 23, 59, 59, 0, time.UTC)

	occs := Expand([]TimeEntry{e}, from, to)
	SortByStart(occs)

	want := []string{"2024-01-01", "2024-01-03", "2024-01-08", "2024-01-10", "2024-01-15", "2024-01-17"}
	got := make([]string, 0, len(occs))
	for _, o := range occs {
		got = append(got, o.DayKey())
		if o.Start.Hour() != 9 || o.End.Hour() != 10 {
			t.Errorf("occurrence on %s not 09:00-10:00: %v-%v", o.DayKey(), o.Start, o.End)
		}
		if o.BaseID != e.ID {
			t.Errorf("occurrence on %s carries base id %q", o.DayKey(), o.BaseID)
		}
		if !o.IsOccurrence {
			t.Errorf("occurrence on %s not flagged as derived", o.DayKey())
		}
	}
	if !equalDays(got, want) {
		t.Fatalf("days = %v, want %v", got, want)
	}
}

func TestExpandExceptionRemovesExactlyOneDay(t *testing.T) {
	t.Parallel()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 17, 23, 59, 59, 0, time.UTC)

	plain := weeklyTemplate(&Recurrence{Interval: 1, Weekdays: []int{1, 3}})
	excepted := weeklyTemplate(&Recurrence{
		Interval:       1,
		Weekdays:       []int{1, 3},
		ExceptionDates: []string{"2024-01-08"},
	})

	before := expandDays(t, []TimeEntry{plain}, from, to)
	after := expandDays(t, []TimeEntry{excepted}, from, to)

	want := make([]string, 0, len(before))
	for _, d := range before {
		if d != "2024-01-08" {
			want = append(want, d)
		}
	}
	if !equalDays(after, want) {
		t.Fatalf("days with exception = %v, want %v", after, want)
	}
}

func TestExpandBiweeklyAlignment(t *testing.T) {
	t.Parallel()

	e := weeklyTemplate(&Recurrence{Interval: 2, Weekdays: []int{1}})
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	got := expandDays(t, []TimeEntry{e}, from, to)
	want := []string{"2024-01-01", "2024-01-15", "2024-01-29"}
	if !equalDays(got, want) {
		t.Fatalf("days = %v, want %v", got, want)
	}

	// A window starting mid-cycle must align backward onto the template's
	// week grid, not onto the window's own week.
	got = expandDays(t, []TimeEntry{e},
		time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC))
	if !equalDays(got, []string{"2024-01-15"}) {
		t.Fatalf("mid-cycle window days = %v, want [2024-01-15]", got)
	}
}

func TestExpandCountYieldsExactly(t *testing.T) {
	t.Parallel()

	e := weeklyTemplate(&Recurrence{Interval: 1, Weekdays: []int{1, 3}, Count: 5})
	from := e.Start
	to := e.Start.AddDate(2, 0, 0)

	got := expandDays(t, []TimeEntry{e}, from, to)
	want := []string{"2024-01-01", "2024-01-03", "2024-01-08", "2024-01-10", "2024-01-15"}
	if !equalDays(got, want) {
		t.Fatalf("days = %v, want %v", got, want)
	}
}

func TestExpandUntilInclusive(t *testing.T) {
	t.Parallel()

	e := weeklyTemplate(&Recurrence{Interval: 1, Weekdays: []int{1}, Until: "2024-01-15"})
	got := expandDays(t, []TimeEntry{e},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	want := []string{"2024-01-01", "2024-01-08", "2024-01-15"}
	if !equalDays(got, want) {
		t.Fatalf("days = %v, want %v", got, want)
	}
}

func TestExpandDefaultsWeekdayToTemplate(t *testing.T) {
	t.Parallel()

	e := weeklyTemplate(&Recurrence{Interval: 1}) // template is a Monday
	got := expandDays(t, []TimeEntry{e},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC))
	want := []string{"2024-01-01", "2024-01-08", "2024-01-15"}
	if !equalDays(got, want) {
		t.Fatalf("days = %v, want %v", got, want)
	}
}

func TestExpandNeverPrecedesTemplateStart(t *testing.T) {
	t.Parallel()

	e := weeklyTemplate(&Recurrence{Interval: 1, Weekdays: []int{1, 3}})
	// Window opens well before the template exists.
	got := expandDays(t, []TimeEntry{e},
		time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))
	want := []string{"2024-01-01", "2024-01-03"}
	if !equalDays(got, want) {
		t.Fatalf("days = %v, want %v", got, want)
	}
}

func TestExpandIdempotentAndDeduped(t *testing.T) {
	t.Parallel()

	e := weeklyTemplate(&Recurrence{Interval: 1, Weekdays: []int{1, 3}})
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 17, 23, 0, 0, 0, time.UTC)

	first := expandDays(t, []TimeEntry{e}, from, to)
	second := expandDays(t, []TimeEntry{e}, from, to)
	if !equalDays(first, second) {
		t.Fatalf("expansion not idempotent: %v vs %v", first, second)
	}

	// The same base fetched twice through overlapping queries collapses.
	doubled := expandDays(t, []TimeEntry{e, e}, from, to)
	if !equalDays(doubled, first) {
		t.Fatalf("duplicate fetch changed output: %v vs %v", doubled, first)
	}
}

func TestExpandSkipsMalformedRuleOnly(t *testing.T) {
	t.Parallel()

	broken := weeklyTemplate(&Recurrence{Interval: 0, Weekdays: []int{1}})
	broken.ID = "broken"
	ok := TimeEntry{
		ID:    "ok",
		Start: time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
	}

	occs := Expand([]TimeEntry{broken, ok},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC))
	if len(occs) != 1 || occs[0].BaseID != "ok" {
		t.Fatalf("expected only the healthy entry, got %+v", occs)
	}
}

func TestExpandWeekdaysEveryEmittedDayConfigured(t *testing.T) {
	t.Parallel()

	e := weeklyTemplate(&Recurrence{
		Interval:       1,
		Weekdays:       []int{1, 3, 5},
		ExceptionDates: []string{"2024-01-12"},
	})
	occs := Expand([]TimeEntry{e},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	for _, o := range occs {
		switch o.Start.Weekday() {
		case time.Monday, time.Wednesday, time.Friday:
		default:
			t.Errorf("occurrence on unconfigured weekday %v", o.Start.Weekday())
		}
		if e.Recurrence.HasException(o.DayKey()) {
			t.Errorf("occurrence emitted on exception day %s", o.DayKey())
		}
	}
}
