package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"timegrid/internal/drag"
)

// The drag endpoints drive the reschedule state machine:
// Idle -> Dragging (start), Dragging (move), Dragging -> Committing | Idle
// (release), Dragging -> Idle (cancel). The session is held server-side,
// one per user, and the preview candidate is never written to the entry
// store until release.

func defaultGeometry(g drag.Geometry) drag.Geometry {
	if g.PxPerHour <= 0 {
		g.PxPerHour = 48
	}
	return g
}

// POST /api/drag
func (a *App) StartDragHandler(c *gin.Context) {
	var req dragStartReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Mode != drag.ModeDay && req.Mode != drag.ModeWeek {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be day or week"})
		return
	}
	ctx := c.Request.Context()

	entry, err := a.GetTimeEntry(ctx, req.EntryID)
	if errors.Is(err, ErrEntryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	session, err := drag.Begin(uuid.NewString(), entry, currentUser(c), req.PointerID,
		req.Mode, defaultGeometry(req.Geometry), req.X, req.Y, time.Now())
	if errors.Is(err, drag.ErrNotDraggable) || errors.Is(err, drag.ErrNotOwner) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, drag.ErrBadGeometry) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := a.Drags.Begin(ctx, session); err != nil {
		if errors.Is(err, drag.ErrSessionActive) {
			// Second pointer-down while dragging: ignored until release.
			c.JSON(http.StatusConflict, gin.H{"error": "a drag is already in progress"})
			return
		}
		a.Log.Error("failed to store drag session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, session)
}

// PUT /api/drag/move — recomputes the live preview. The candidate in the
// response is display state only; nothing is persisted here.
func (a *App) MoveDragHandler(c *gin.Context) {
	var req dragMoveReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	session, err := a.Drags.Get(ctx, currentUser(c))
	if errors.Is(err, drag.ErrNoSession) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active drag"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := session.Move(req.PointerID, req.X, req.Y); err != nil {
		// Motion from any other pointer is ignored, not an error state.
		c.JSON(http.StatusOK, session)
		return
	}
	if err := a.Drags.Update(ctx, session); err != nil {
		a.Log.Error("failed to update drag session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

// POST /api/drag/release — pointer-up. Below the click threshold the
// session just ends; past it, one absolute (start, end) update goes to the
// entry's base id and the caller re-fetches the window, in that order.
func (a *App) ReleaseDragHandler(c *gin.Context) {
	var req dragReleaseReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	user := currentUser(c)

	session, err := a.Drags.Get(ctx, user)
	if errors.Is(err, drag.ErrNoSession) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active drag"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	start, end, commit, err := session.Release(req.PointerID)
	if err != nil {
		// Release from a different pointer leaves the drag alive.
		c.JSON(http.StatusConflict, gin.H{"error": "release from inactive pointer"})
		return
	}

	if !commit {
		// A click, not a drag: discard the preview, write nothing.
		if err := a.Drags.End(ctx, user); err != nil {
			a.Log.Error("failed to end drag session", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"committed": false})
		return
	}

	if err := a.UpdateEntryTimes(ctx, session.EntryID, user, start, end); err != nil {
		// Failed commit: the preview is discarded and nothing persisted.
		if endErr := a.Drags.End(ctx, user); endErr != nil {
			a.Log.Error("failed to end drag session", zap.Error(endErr))
		}
		if errors.Is(err, ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		a.Log.Error("failed to commit drag", zap.String("entry_id", session.EntryID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := a.Drags.End(ctx, user); err != nil {
		a.Log.Error("failed to end drag session", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"committed": true,
		"entry_id":  session.EntryID,
		"start":     start,
		"end":       end,
	})
}

// DELETE /api/drag — pointer-cancel: the preview disappears, no write.
func (a *App) CancelDragHandler(c *gin.Context) {
	if err := a.Drags.End(c.Request.Context(), currentUser(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
