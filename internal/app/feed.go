package app

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gin-gonic/gin"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"timegrid/internal/schedule"
	"timegrid/internal/timeutil"
)

// byday maps the rule's Sunday-based weekday indices onto RRULE BYDAY.
var byday = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// rruleString renders a weekly rule as an RRULE value, validated through
// rrule-go so the feed never emits a string other calendars reject.
func rruleString(e *schedule.TimeEntry) (string, error) {
	r := e.Recurrence
	opt := rrule.ROption{
		Freq:     rrule.WEEKLY,
		Interval: r.Interval,
		Dtstart:  e.Start,
	}
	for _, wd := range r.Weekdays {
		if wd >= 0 && wd <= 6 {
			opt.Byweekday = append(opt.Byweekday, byday[wd])
		}
	}
	if r.Until != "" {
		day, err := timeutil.ParseDayKey(r.Until, e.Start.Location())
		if err != nil {
			return "", fmt.Errorf("invalid until date %q: %w", r.Until, err)
		}
		// Inclusive day bound: UNTIL is the last instant of that day.
		opt.Until = day.AddDate(0, 0, 1).Add(-time.Second)
	}
	if r.Count > 0 {
		opt.Count = r.Count
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("failed to build rrule: %w", err)
	}
	// RRuleString omits DTSTART, which the VEVENT carries on its own.
	return rule.OrigOptions.RRuleString(), nil
}

// buildFeed renders a user's entries as an iCalendar document. Exception
// dates become EXDATEs at the template's time of day.
func buildFeed(entries []schedule.TimeEntry, log *zap.Logger) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//timegrid//calendar feed//EN")

	for i := range entries {
		e := &entries[i]
		ev := cal.AddEvent(e.ID)
		ev.SetDtStampTime(e.UpdatedAt)
		ev.SetStartAt(e.Start)
		ev.SetEndAt(e.End)
		ev.SetSummary(e.Title)

		if !e.Recurring() {
			continue
		}
		rr, err := rruleString(e)
		if err != nil {
			// Leave the template as a plain event rather than dropping it.
			log.Warn("skipping rrule for entry in feed",
				zap.String("entry_id", e.ID), zap.Error(err))
			continue
		}
		ev.AddRrule(rr)
		for _, dayKey := range e.Recurrence.ExceptionDates {
			day, err := timeutil.ParseDayKey(dayKey, e.Start.Location())
			if err != nil {
				continue
			}
			exAt := timeutil.OnDay(day, e.Start)
			ev.AddExdate(exAt.UTC().Format("20060102T150405Z"))
		}
	}
	return cal.Serialize()
}

// GET /api/feed/:user — iCalendar export of one user's entries, suitable
// for subscription from external calendar apps.
func (a *App) FeedHandler(c *gin.Context) {
	userID := strings.TrimSuffix(c.Param("user"), ".ics")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user required"})
		return
	}

	entries, err := a.ListOwnerEntries(c.Request.Context(), userID)
	if err != nil {
		a.Log.Error("failed to list entries for feed", zap.String("user", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.String(http.StatusOK, buildFeed(entries, a.Log))
}
