package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"timegrid/internal/schedule"
)

// ErrEntryNotFound maps pgx.ErrNoRows for the handlers.
var ErrEntryNotFound = errors.New("time entry not found")

const createTimeEntriesTable = `
CREATE TABLE IF NOT EXISTS time_entries (
    id          UUID PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    company_id  TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    start_at    TIMESTAMPTZ NOT NULL,
    end_at      TIMESTAMPTZ NOT NULL,
    guest_ids   TEXT[] NOT NULL DEFAULT '{}',
    recurrence  JSONB,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS time_entries_company_idx ON time_entries (company_id);
CREATE INDEX IF NOT EXISTS time_entries_owner_idx ON time_entries (owner_id);`

// Migrate creates the schema on startup.
func (a *App) Migrate(ctx context.Context) error {
	if _, err := a.DB.Exec(ctx, createTimeEntriesTable); err != nil {
		return fmt.Errorf("failed to migrate time_entries: %w", err)
	}
	return nil
}

// marshalRecurrence renders the rule for the jsonb column; nil stays NULL.
// Day-key fields are plain strings inside the document, so no timestamp
// encoding can shift them across a timezone boundary.
func marshalRecurrence(r *schedule.Recurrence) (any, error) {
	if r == nil {
		return nil, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recurrence: %w", err)
	}
	return data, nil
}

func unmarshalRecurrence(data []byte) (*schedule.Recurrence, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var r schedule.Recurrence
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse stored recurrence: %w", err)
	}
	return &r, nil
}

func (a *App) InsertTimeEntry(ctx context.Context, e *schedule.TimeEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	rec, err := marshalRecurrence(e.Recurrence)
	if err != nil {
		return err
	}

	q := `INSERT INTO time_entries
	      (id, owner_id, company_id, title, start_at, end_at, guest_ids, recurrence, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err = a.DB.Exec(ctx, q,
		e.ID, e.OwnerID, e.CompanyID, e.Title, e.Start, e.End, e.GuestIDs, rec, now, now)
	return err
}

func scanEntry(rows pgx.Rows) (schedule.TimeEntry, error) {
	var (
		e       schedule.TimeEntry
		recJSON []byte
	)
	err := rows.Scan(&e.ID, &e.OwnerID, &e.CompanyID, &e.Title, &e.Start, &e.End,
		&e.GuestIDs, &recJSON, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.Recurrence, err = unmarshalRecurrence(recJSON)
	return e, err
}

func (a *App) GetTimeEntry(ctx context.Context, id string) (*schedule.TimeEntry, error) {
	q := `SELECT id, owner_id, company_id, title, start_at, end_at, guest_ids, recurrence, created_at, updated_at
	      FROM time_entries WHERE id=$1`
	var (
		e       schedule.TimeEntry
		recJSON []byte
	)
	err := a.DB.QueryRow(ctx, q, id).Scan(
		&e.ID, &e.OwnerID, &e.CompanyID, &e.Title, &e.Start, &e.End,
		&e.GuestIDs, &recJSON, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	if e.Recurrence, err = unmarshalRecurrence(recJSON); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListCompanyEntries returns every entry visible to a company, optionally
// narrowed to a set of owners. No date predicate: the store cannot express
// the recurrence-aware range check, so the expansion engine does all date
// filtering.
func (a *App) ListCompanyEntries(ctx context.Context, companyID string, ownerIDs []string) ([]schedule.TimeEntry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(ownerIDs) > 0 {
		q := `SELECT id, owner_id, company_id, title, start_at, end_at, guest_ids, recurrence, created_at, updated_at
		      FROM time_entries WHERE company_id=$1 AND owner_id = ANY($2) ORDER BY start_at`
		rows, err = a.DB.Query(ctx, q, companyID, ownerIDs)
	} else {
		q := `SELECT id, owner_id, company_id, title, start_at, end_at, guest_ids, recurrence, created_at, updated_at
		      FROM time_entries WHERE company_id=$1 ORDER BY start_at`
		rows, err = a.DB.Query(ctx, q, companyID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListOwnerEntries backs the ICS feed: everything one user has logged.
func (a *App) ListOwnerEntries(ctx context.Context, ownerID string) ([]schedule.TimeEntry, error) {
	q := `SELECT id, owner_id, company_id, title, start_at, end_at, guest_ids, recurrence, created_at, updated_at
	      FROM time_entries WHERE owner_id=$1 ORDER BY start_at`
	rows, err := a.DB.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateTimeEntry rewrites the base entry's editable fields. Because
// occurrences are derived, this re-times every remaining occurrence of a
// series in one write.
func (a *App) UpdateTimeEntry(ctx context.Context, e *schedule.TimeEntry) error {
	rec, err := marshalRecurrence(e.Recurrence)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	q := `UPDATE time_entries
	      SET title=$1, start_at=$2, end_at=$3, guest_ids=$4, recurrence=$5, updated_at=$6
	      WHERE id=$7`
	res, err := a.DB.Exec(ctx, q, e.Title, e.Start, e.End, e.GuestIDs, rec, now, e.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	e.UpdatedAt = now
	return nil
}

// UpdateEntryTimes is the drag-commit write: one absolute (start, end)
// update against the base id, gated on ownership.
func (a *App) UpdateEntryTimes(ctx context.Context, id, ownerID string, start, end time.Time) error {
	q := `UPDATE time_entries SET start_at=$1, end_at=$2, updated_at=$3
	      WHERE id=$4 AND owner_id=$5`
	res, err := a.DB.Exec(ctx, q, start, end, time.Now().UTC(), id, ownerID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// SetRecurrence persists a transformed rule in a single-document update, so
// a failed write leaves the stored series untouched.
func (a *App) SetRecurrence(ctx context.Context, id string, r *schedule.Recurrence) error {
	rec, err := marshalRecurrence(r)
	if err != nil {
		return err
	}
	q := `UPDATE time_entries SET recurrence=$1, updated_at=$2 WHERE id=$3`
	res, err := a.DB.Exec(ctx, q, rec, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (a *App) DeleteTimeEntry(ctx context.Context, id string) error {
	res, err := a.DB.Exec(ctx, `DELETE FROM time_entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
