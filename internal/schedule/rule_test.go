package schedule

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		entry   TimeEntry
		wantErr bool
	}{
		{
			name:  "plain entry",
			entry: TimeEntry{Start: start, End: start.Add(time.Hour)},
		},
		{
			name:    "end equals start",
			entry:   TimeEntry{Start: start, End: start},
			wantErr: true,
		},
		{
			name:    "end before start",
			entry:   TimeEntry{Start: start, End: start.Add(-time.Minute)},
			wantErr: true,
		},
		{
			name: "weekly rule",
			entry: TimeEntry{Start: start, End: start.Add(time.Hour),
				Recurrence: &Recurrence{Frequency: FrequencyWeekly, Interval: 1, Weekdays: []int{1, 3}}},
		},
		{
			name: "unsupported frequency",
			entry: TimeEntry{Start: start, End: start.Add(time.Hour),
				Recurrence: &Recurrence{Frequency: "daily", Interval: 1}},
			wantErr: true,
		},
		{
			name: "zero interval",
			entry: TimeEntry{Start: start, End: start.Add(time.Hour),
				Recurrence: &Recurrence{Interval: 0}},
			wantErr: true,
		},
		{
			name: "weekday out of range",
			entry: TimeEntry{Start: start, End: start.Add(time.Hour),
				Recurrence: &Recurrence{Interval: 1, Weekdays: []int{7}}},
			wantErr: true,
		},
		{
			name: "until and count together",
			entry: TimeEntry{Start: start, End: start.Add(time.Hour),
				Recurrence: &Recurrence{Interval: 1, Until: "2024-02-01", Count: 3}},
			wantErr: true,
		},
		{
			name: "garbled until",
			entry: TimeEntry{Start: start, End: start.Add(time.Hour),
				Recurrence: &Recurrence{Interval: 1, Until: "02/01/2024"}},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(&tc.entry)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCountUntilWeekdayOrder(t *testing.T) {
	t.Parallel()

	// Monday template, Mon+Wed: the 5th occurrence counted in weekday
	// order lands on Monday 2024-01-15.
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	r := &Recurrence{Interval: 1, Weekdays: []int{1, 3}, Count: 5}
	if got := effectiveUntil(r, start); got != "2024-01-15" {
		t.Fatalf("effectiveUntil = %q, want 2024-01-15", got)
	}

	// A Wednesday template with Mon+Wed must not count the Monday that
	// precedes its own start.
	wedStart := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	r = &Recurrence{Interval: 1, Weekdays: []int{1, 3}, Count: 2}
	if got := effectiveUntil(r, wedStart); got != "2024-01-08" {
		t.Fatalf("effectiveUntil = %q, want 2024-01-08", got)
	}

	// Interval stretches the walk.
	r = &Recurrence{Interval: 2, Weekdays: []int{1}, Count: 3}
	if got := effectiveUntil(r, start); got != "2024-01-29" {
		t.Fatalf("effectiveUntil = %q, want 2024-01-29", got)
	}

	// Explicit until wins outright; no count means no bound.
	r = &Recurrence{Interval: 1, Until: "2024-06-01"}
	if got := effectiveUntil(r, start); got != "2024-06-01" {
		t.Fatalf("effectiveUntil = %q, want 2024-06-01", got)
	}
	r = &Recurrence{Interval: 1}
	if got := effectiveUntil(r, start); got != "" {
		t.Fatalf("effectiveUntil = %q, want empty", got)
	}
}

func TestEffectiveWeekdays(t *testing.T) {
	t.Parallel()

	mon := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	got := effectiveWeekdays(&Recurrence{Interval: 1}, mon)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("default weekdays = %v, want [1]", got)
	}

	got = effectiveWeekdays(&Recurrence{Interval: 1, Weekdays: []int{5, 1, 3, 1}}, mon)
	want := []int{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("weekdays = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("weekdays = %v, want %v", got, want)
		}
	}

	// Nothing usable clamps to the template weekday instead of dropping
	// the series.
	got = effectiveWeekdays(&Recurrence{Interval: 1, Weekdays: []int{-2, 9}}, mon)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("clamped weekdays = %v, want [1]", got)
	}
}
