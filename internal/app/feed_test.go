package app

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"timegrid/internal/schedule"
)

func TestRRuleString(t *testing.T) {
	t.Parallel()

	e := &schedule.TimeEntry{
		ID:    "base-1",
		Start: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Recurrence: &schedule.Recurrence{
			Frequency: schedule.FrequencyWeekly,
			Interval:  2,
			Weekdays:  []int{1, 3},
		},
	}
	got, err := rruleString(e)
	if err != nil {
		t.Fatalf("rruleString: %v", err)
	}
	for _, want := range []string{"FREQ=WEEKLY", "INTERVAL=2", "BYDAY=MO,WE"} {
		if !strings.Contains(got, want) {
			t.Errorf("rrule %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "DTSTART") {
		t.Errorf("rrule %q must not embed DTSTART", got)
	}

	e.Recurrence.Count = 5
	got, err = rruleString(e)
	if err != nil {
		t.Fatalf("rruleString with count: %v", err)
	}
	if !strings.Contains(got, "COUNT=5") {
		t.Errorf("rrule %q missing COUNT=5", got)
	}
}

func TestBuildFeed(t *testing.T) {
	t.Parallel()

	entries := []schedule.TimeEntry{
		{
			ID:        "single-1",
			Title:     "Client call",
			Start:     time.Date(2024, 2, 1, 13, 0, 0, 0, time.UTC),
			End:       time.Date(2024, 2, 1, 14, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:        "series-1",
			Title:     "Standup",
			Start:     time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			End:       time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
			UpdatedAt: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			Recurrence: &schedule.Recurrence{
				Interval:       1,
				Weekdays:       []int{1},
				ExceptionDates: []string{"2024-01-08"},
			},
		},
	}

	feed := buildFeed(entries, zap.NewNop())

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:single-1",
		"SUMMARY:Client call",
		"UID:series-1",
		"RRULE:FREQ=WEEKLY",
		"EXDATE:20240108T090000Z",
		"END:VCALENDAR",
	} {
		if !strings.Contains(feed, want) {
			t.Errorf("feed missing %q\n%s", want, feed)
		}
	}
}
