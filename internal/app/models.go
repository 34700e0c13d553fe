package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"timegrid/internal/config"
	"timegrid/internal/drag"
)

// App wires the handlers to their collaborators: the entry store, the drag
// session store, and configuration.
type App struct {
	DB    *pgxpool.Pool
	Drags drag.Store
	Cfg   *config.Config
	Log   *zap.Logger
}

type createEntryReq struct {
	CompanyID  string             `json:"company_id" binding:"required"`
	Title      string             `json:"title"`
	Start      string             `json:"start" binding:"required"` // RFC3339
	End        string             `json:"end" binding:"required"`   // RFC3339
	GuestIDs   []string           `json:"guest_ids"`
	Recurrence *recurrencePayload `json:"recurrence"`
}

type updateEntryReq struct {
	Title      *string            `json:"title"`
	Start      *string            `json:"start"` // RFC3339
	End        *string            `json:"end"`   // RFC3339
	GuestIDs   *[]string          `json:"guest_ids"`
	Recurrence *recurrencePayload `json:"recurrence"`
	// ClearRecurrence converts a series back into a single event.
	ClearRecurrence bool `json:"clear_recurrence"`
}

// recurrencePayload mirrors schedule.Recurrence on the wire.
type recurrencePayload struct {
	Frequency      string   `json:"frequency"`
	Interval       int      `json:"interval"`
	Weekdays       []int    `json:"weekdays"`
	Until          string   `json:"until"`
	Count          int      `json:"count"`
	ExceptionDates []string `json:"exception_dates"`
}

type truncateReq struct {
	// From is the first day, YYYY-MM-DD, that must no longer materialize.
	From string `json:"from" binding:"required"`
}

type dragStartReq struct {
	EntryID   string        `json:"entry_id" binding:"required"`
	PointerID int64         `json:"pointer_id"`
	Mode      drag.Mode     `json:"mode" binding:"required"`
	Geometry  drag.Geometry `json:"geometry"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
}

type dragMoveReq struct {
	PointerID int64   `json:"pointer_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type dragReleaseReq struct {
	PointerID int64 `json:"pointer_id"`
}
