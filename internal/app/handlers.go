package app

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timegrid/internal/schedule"
)

func (p *recurrencePayload) toRule() *schedule.Recurrence {
	if p == nil {
		return nil
	}
	freq := p.Frequency
	if freq == "" {
		freq = schedule.FrequencyWeekly
	}
	return &schedule.Recurrence{
		Frequency:      freq,
		Interval:       p.Interval,
		Weekdays:       p.Weekdays,
		Until:          p.Until,
		Count:          p.Count,
		ExceptionDates: p.ExceptionDates,
	}
}

// loadOwnedEntry fetches an entry and enforces that the current user logged
// it; series mutations and edits are owner-only.
func (a *App) loadOwnedEntry(c *gin.Context, id string) (*schedule.TimeEntry, bool) {
	e, err := a.GetTimeEntry(c.Request.Context(), id)
	if errors.Is(err, ErrEntryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if e.OwnerID != currentUser(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "entry belongs to another user"})
		return nil, false
	}
	return e, true
}

// POST /api/entries
func (a *App) CreateEntryHandler(c *gin.Context) {
	var req createEntryReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
		return
	}

	entry := schedule.TimeEntry{
		OwnerID:    currentUser(c),
		CompanyID:  req.CompanyID,
		Title:      req.Title,
		Start:      start,
		End:        end,
		GuestIDs:   req.GuestIDs,
		Recurrence: req.Recurrence.toRule(),
	}
	if err := schedule.Validate(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.InsertTimeEntry(c.Request.Context(), &entry); err != nil {
		a.Log.Error("failed to insert time entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// parseWindow reads the from/to query bounds. The window is inclusive on
// both ends, so from == to queries a single instant.
func parseWindow(c *gin.Context) (from, to time.Time, ok bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return time.Time{}, time.Time{}, false
	}
	to, err = time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return time.Time{}, time.Time{}, false
	}
	if from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// GET /api/entries?company=...&owners=a,b&from=ISO&to=ISO
//
// Fetches the company's stored entries and materializes the occurrences
// intersecting the window. Occurrences are recomputed on every call; the
// server holds no cached expansion.
func (a *App) GetWindowHandler(c *gin.Context) {
	companyID := c.Query("company")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company required"})
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	var owners []string
	if raw := c.Query("owners"); raw != "" {
		owners = strings.Split(raw, ",")
	}

	entries, err := a.ListCompanyEntries(c.Request.Context(), companyID, owners)
	if err != nil {
		a.Log.Error("failed to list entries", zap.String("company", companyID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	occurrences := schedule.Expand(entries, from, to)
	schedule.SortByStart(occurrences)
	c.JSON(http.StatusOK, gin.H{
		"occurrences": occurrences,
		"count":       len(occurrences),
	})
}

// PUT /api/entries/:id
//
// Edits the base entry. For a series this re-times every remaining
// occurrence at once; there are no per-occurrence overrides.
func (a *App) UpdateEntryHandler(c *gin.Context) {
	var req updateEntryReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, ok := a.loadOwnedEntry(c, c.Param("id"))
	if !ok {
		return
	}

	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Start != nil {
		start, err := time.Parse(time.RFC3339, *req.Start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
			return
		}
		e.Start = start
	}
	if req.End != nil {
		end, err := time.Parse(time.RFC3339, *req.End)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
			return
		}
		e.End = end
	}
	if req.GuestIDs != nil {
		e.GuestIDs = *req.GuestIDs
	}
	if req.ClearRecurrence {
		e.Recurrence = nil
	} else if req.Recurrence != nil {
		e.Recurrence = req.Recurrence.toRule()
	}

	if err := schedule.Validate(e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.UpdateTimeEntry(c.Request.Context(), e); err != nil {
		a.Log.Error("failed to update time entry", zap.String("entry_id", e.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, e)
}

// DELETE /api/entries/:id — whole-series (or single-event) deletion.
func (a *App) DeleteEntryHandler(c *gin.Context) {
	e, ok := a.loadOwnedEntry(c, c.Param("id"))
	if !ok {
		return
	}
	if err := a.DeleteTimeEntry(c.Request.Context(), e.ID); err != nil {
		a.Log.Error("failed to delete time entry", zap.String("entry_id", e.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DELETE /api/entries/:id/occurrences/:day — "delete this occurrence only":
// the day joins the rule's exception dates, nothing else moves.
func (a *App) DeleteOccurrenceHandler(c *gin.Context) {
	e, ok := a.loadOwnedEntry(c, c.Param("id"))
	if !ok {
		return
	}
	patched, err := schedule.ExcludeDay(e.Recurrence, c.Param("day"))
	if errors.Is(err, schedule.ErrNotRecurring) {
		c.JSON(http.StatusConflict, gin.H{"error": "entry is not a recurring series"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.SetRecurrence(c.Request.Context(), e.ID, patched); err != nil {
		a.Log.Error("failed to store exception date", zap.String("entry_id", e.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	e.Recurrence = patched
	c.JSON(http.StatusOK, e)
}

// POST /api/entries/:id/truncate — "delete this day forward". A cut on the
// template's own start day removes the whole series; the response says so.
func (a *App) TruncateSeriesHandler(c *gin.Context) {
	var req truncateReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, ok := a.loadOwnedEntry(c, c.Param("id"))
	if !ok {
		return
	}
	res, err := schedule.TruncateFrom(e, req.From)
	if errors.Is(err, schedule.ErrNotRecurring) {
		c.JSON(http.StatusConflict, gin.H{"error": "entry is not a recurring series"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if res.RemovesSeries {
		if err := a.DeleteTimeEntry(c.Request.Context(), e.ID); err != nil {
			a.Log.Error("failed to delete truncated series", zap.String("entry_id", e.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "series_removed": true})
		return
	}

	if err := a.SetRecurrence(c.Request.Context(), e.ID, res.Rule); err != nil {
		a.Log.Error("failed to truncate series", zap.String("entry_id", e.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	e.Recurrence = res.Rule
	c.JSON(http.StatusOK, e)
}
