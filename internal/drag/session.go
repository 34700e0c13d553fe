// Package drag implements the interactive reschedule engine: an ephemeral
// pointer-driven session that turns grid coordinates into a snapped
// candidate (start, end) for the dragged entry. The candidate is a preview
// only; nothing is persisted until release, and only then through the
// entry's base id.
package drag

import (
	"errors"
	"time"

	"timegrid/internal/schedule"
	"timegrid/internal/timeutil"
)

// Mode selects the grid the drag happens over.
type Mode string

const (
	// ModeDay is a single fixed day column; only vertical motion matters.
	ModeDay Mode = "day"
	// ModeWeek adds seven equal day columns; horizontal motion picks the day.
	ModeWeek Mode = "week"
)

// MinDuration is the floor for a dragged entry's captured duration.
const MinDuration = 15 * time.Minute

var (
	// ErrNotDraggable rejects drags on series templates; occurrences of a
	// recurring entry are not individually draggable.
	ErrNotDraggable = errors.New("recurring entries cannot be dragged")

	// ErrNotOwner rejects drags on entries the current user did not log.
	ErrNotOwner = errors.New("only the owner can drag an entry")

	// ErrWrongPointer flags events from a pointer other than the one that
	// started the session; they are ignored until release.
	ErrWrongPointer = errors.New("event from inactive pointer")

	// ErrBadGeometry rejects a week-mode drag without a column width; the
	// horizontal axis would have no day mapping.
	ErrBadGeometry = errors.New("week mode requires a positive column width")
)

// Geometry describes the grid the pointer moves over, in pixels.
type Geometry struct {
	PxPerHour   float64 `json:"px_per_hour"`
	ColumnWidth float64 `json:"column_width"`
	// ThresholdPx separates a click from a drag; movement under it never
	// produces a candidate or a commit.
	ThresholdPx float64 `json:"threshold_px"`
}

func (g Geometry) threshold() float64 {
	if g.ThresholdPx <= 0 {
		return 4
	}
	return g.ThresholdPx
}

// Session is the state of one in-progress drag. It exists from pointer-down
// to pointer-up/cancel and is never authoritative: the entry list only
// changes when a commit's write lands and the window is re-fetched.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EntryID   string    `json:"entry_id"`
	PointerID int64     `json:"pointer_id"`
	Mode      Mode      `json:"mode"`
	Geometry  Geometry  `json:"geometry"`
	StartedAt time.Time `json:"started_at"`

	// AnchorDay is the day under column 0: the entry's own day in day
	// mode, the Sunday of its week in week mode.
	AnchorDay time.Time `json:"anchor_day"`

	// EntryStart and Duration seed the preview; duration never shrinks
	// below MinDuration.
	EntryStart time.Time     `json:"entry_start"`
	Duration   time.Duration `json:"duration"`

	// Origin coordinates of the pointer-down, and the pointer's vertical
	// offset inside the entry block so the grabbed point tracks the
	// cursor instead of the entry's top edge.
	OriginX     float64 `json:"origin_x"`
	OriginY     float64 `json:"origin_y"`
	GrabOffsetY float64 `json:"grab_offset_y"`

	// Moved is latched once motion exceeds the threshold.
	Moved bool `json:"moved"`

	// The live preview candidate; zero until Moved.
	CandidateStart time.Time `json:"candidate_start,omitempty"`
	CandidateEnd   time.Time `json:"candidate_end,omitempty"`
}

// Begin starts a session for a pointer-down at (x, y) over the given entry.
// The draggability gate: no recurrence rule, and the entry belongs to the
// dragging user.
func Begin(id string, e *schedule.TimeEntry, userID string, pointerID int64, mode Mode, geom Geometry, x, y float64, now time.Time) (*Session, error) {
	if e.Recurring() {
		return nil, ErrNotDraggable
	}
	if e.OwnerID != userID {
		return nil, ErrNotOwner
	}
	if mode == ModeWeek && geom.ColumnWidth <= 0 {
		return nil, ErrBadGeometry
	}

	duration := e.Duration()
	if duration < MinDuration {
		duration = MinDuration
	}

	anchor := timeutil.DayStart(e.Start)
	if mode == ModeWeek {
		anchor = timeutil.WeekStart(e.Start)
	}

	entryTop := float64(timeutil.MinuteOfDay(e.Start)) / 60 * geom.PxPerHour

	return &Session{
		ID:          id,
		UserID:      userID,
		EntryID:     e.ID,
		PointerID:   pointerID,
		Mode:        mode,
		Geometry:    geom,
		StartedAt:   now,
		AnchorDay:   anchor,
		EntryStart:  e.Start,
		Duration:    duration,
		OriginX:     x,
		OriginY:     y,
		GrabOffsetY: y - entryTop,
	}, nil
}

// Move feeds a pointer-move into the session and recomputes the preview
// candidate. Motion under the click threshold is ignored; once exceeded the
// session stays in the dragging state for good.
func (s *Session) Move(pointerID int64, x, y float64) error {
	if pointerID != s.PointerID {
		return ErrWrongPointer
	}
	if !s.Moved {
		dx := x - s.OriginX
		dy := y - s.OriginY
		if dx < 0 {
			dx = -dx
		}
		if dy < 0 {
			dy = -dy
		}
		if dx < s.Geometry.threshold() && dy < s.Geometry.threshold() {
			return nil
		}
		s.Moved = true
	}

	day := s.AnchorDay
	if s.Mode == ModeWeek {
		// Begin guarantees a positive column width in week mode.
		col := int(x / s.Geometry.ColumnWidth)
		if col < 0 {
			col = 0
		}
		if col > 6 {
			col = 6
		}
		day = s.AnchorDay.AddDate(0, 0, col)
	}

	minutes := timeutil.PixelsToMinutesOfDay(y-s.GrabOffsetY, s.Geometry.PxPerHour)
	s.CandidateStart = day.Add(time.Duration(minutes) * time.Minute)
	s.CandidateEnd = s.CandidateStart.Add(s.Duration)
	return nil
}

// Release ends the session on pointer-up. It returns the candidate to
// commit, or ok=false for a plain click (threshold never exceeded), in
// which case nothing may be written.
func (s *Session) Release(pointerID int64) (start, end time.Time, ok bool, err error) {
	if pointerID != s.PointerID {
		return time.Time{}, time.Time{}, false, ErrWrongPointer
	}
	if !s.Moved || s.CandidateStart.IsZero() {
		return time.Time{}, time.Time{}, false, nil
	}
	return s.CandidateStart, s.CandidateEnd, true, nil
}
