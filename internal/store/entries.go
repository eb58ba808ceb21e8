package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avolkovs/tallybook/internal/dbx"
	"github.com/avolkovs/tallybook/internal/models"
	"github.com/google/uuid"
)

type entryRepo struct {
	db dbx.DBTX
}

func (r *entryRepo) getAll(ctx context.Context) ([]models.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, project_id, entry_date, hours, amount, description, paid_on, updated_at
		FROM time_entries ORDER BY entry_date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select time entries: %w", err)
	}
	defer rows.Close()

	var result []models.TimeEntry
	for rows.Next() {
		var e models.TimeEntry
		var date, updated string
		var paid sql.NullString
		if err := rows.Scan(&e.ID, &e.ClientID, &e.ProjectID, &date,
			&e.Hours, &e.Amount, &e.Description, &paid, &updated); err != nil {
			return nil, err
		}
		if e.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("time entry %s: bad date: %w", e.ID, err)
		}
		if e.PaidOn, err = parseDatePtr(paid); err != nil {
			return nil, fmt.Errorf("time entry %s: bad paid_on: %w", e.ID, err)
		}
		if e.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, fmt.Errorf("time entry %s: bad updated_at: %w", e.ID, err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *entryRepo) upsert(ctx context.Context, e models.TimeEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, client_id, project_id, entry_date, hours, amount, description, paid_on, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			project_id = excluded.project_id,
			entry_date = excluded.entry_date,
			hours = excluded.hours,
			amount = excluded.amount,
			description = excluded.description,
			paid_on = excluded.paid_on,
			updated_at = excluded.updated_at`,
		e.ID, e.ClientID, e.ProjectID, fmtDate(e.Date),
		e.Hours, e.Amount, e.Description, fmtDatePtr(e.PaidOn), fmtTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert time entry: %w", err)
	}
	return nil
}

func (r *entryRepo) delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	return nil
}

func (r *entryRepo) replaceAll(ctx context.Context, entries []models.TimeEntry) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_entries`); err != nil {
		return fmt.Errorf("failed to clear time entries: %w", err)
	}
	for _, e := range entries {
		if err := r.upsert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Entries lists all time entries ordered by date.
func (s *Store) Entries(ctx context.Context) ([]models.TimeEntry, error) {
	return (&entryRepo{db: s.db}).getAll(ctx)
}

// SaveEntry inserts or updates a time entry, assigning an id and bumping
// UpdatedAt as needed.
func (s *Store) SaveEntry(ctx context.Context, e *models.TimeEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.UpdatedAt = now()
	if err := (&entryRepo{db: s.db}).upsert(ctx, *e); err != nil {
		return err
	}
	s.notify()
	return nil
}

// DeleteEntry removes a time entry outright (no tombstone).
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	if err := (&entryRepo{db: s.db}).delete(ctx, id); err != nil {
		return err
	}
	s.notify()
	return nil
}
