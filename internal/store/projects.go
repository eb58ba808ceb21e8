package store

import (
	"context"
	"fmt"

	"github.com/avolkovs/tallybook/internal/dbx"
	"github.com/avolkovs/tallybook/internal/models"
	"github.com/google/uuid"
)

type projectRepo struct {
	db dbx.DBTX
}

func (r *projectRepo) getAll(ctx context.Context) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, client_id, name, active, updated_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select projects: %w", err)
	}
	defer rows.Close()

	var result []models.Project
	for rows.Next() {
		var p models.Project
		var updated string
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Active, &updated); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, fmt.Errorf("project %s: bad updated_at: %w", p.ID, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *projectRepo) upsert(ctx context.Context, p models.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, client_id, name, active, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			name = excluded.name,
			active = excluded.active,
			updated_at = excluded.updated_at`,
		p.ID, p.ClientID, p.Name, p.Active, fmtTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}
	return nil
}

func (r *projectRepo) delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (r *projectRepo) replaceAll(ctx context.Context, projects []models.Project) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		return fmt.Errorf("failed to clear projects: %w", err)
	}
	for _, p := range projects {
		if err := r.upsert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Projects lists all projects ordered by name.
func (s *Store) Projects(ctx context.Context) ([]models.Project, error) {
	return (&projectRepo{db: s.db}).getAll(ctx)
}

// SaveProject inserts or updates a project, assigning an id and bumping
// UpdatedAt as needed.
func (s *Store) SaveProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.UpdatedAt = now()
	if err := (&projectRepo{db: s.db}).upsert(ctx, *p); err != nil {
		return err
	}
	s.notify()
	return nil
}

// DeleteProject removes a project outright (no tombstone).
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if err := (&projectRepo{db: s.db}).delete(ctx, id); err != nil {
		return err
	}
	s.notify()
	return nil
}
