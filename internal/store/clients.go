package store

import (
	"context"
	"fmt"

	"github.com/avolkovs/tallybook/internal/dbx"
	"github.com/avolkovs/tallybook/internal/models"
	"github.com/google/uuid"
)

type clientRepo struct {
	db dbx.DBTX
}

func (r *clientRepo) getAll(ctx context.Context) ([]models.Client, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, currency, rate, rate_kind, requires_invoice, active, email, address, updated_at
		FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select clients: %w", err)
	}
	defer rows.Close()

	var result []models.Client
	for rows.Next() {
		var c models.Client
		var kind, updated string
		if err := rows.Scan(&c.ID, &c.Name, &c.Currency, &c.Rate, &kind,
			&c.RequiresInvoice, &c.Active, &c.Email, &c.Address, &updated); err != nil {
			return nil, err
		}
		c.RateKind = models.RateKind(kind)
		if c.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, fmt.Errorf("client %s: bad updated_at: %w", c.ID, err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *clientRepo) upsert(ctx context.Context, c models.Client) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, currency, rate, rate_kind, requires_invoice, active, email, address, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency,
			rate = excluded.rate,
			rate_kind = excluded.rate_kind,
			requires_invoice = excluded.requires_invoice,
			active = excluded.active,
			email = excluded.email,
			address = excluded.address,
			updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Currency, c.Rate, string(c.RateKind),
		c.RequiresInvoice, c.Active, c.Email, c.Address, fmtTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert client: %w", err)
	}
	return nil
}

func (r *clientRepo) delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

func (r *clientRepo) replaceAll(ctx context.Context, clients []models.Client) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM clients`); err != nil {
		return fmt.Errorf("failed to clear clients: %w", err)
	}
	for _, c := range clients {
		if err := r.upsert(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Clients lists all clients ordered by name.
func (s *Store) Clients(ctx context.Context) ([]models.Client, error) {
	return (&clientRepo{db: s.db}).getAll(ctx)
}

// SaveClient inserts or updates a client. A missing id gets a fresh UUID
// and UpdatedAt is bumped to the mutation time.
func (s *Store) SaveClient(ctx context.Context, c *models.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.UpdatedAt = now()
	if err := (&clientRepo{db: s.db}).upsert(ctx, *c); err != nil {
		return err
	}
	s.notify()
	return nil
}

// DeleteClient removes a client outright. No tombstone is written, so the
// deletion does not propagate through merge (known gap, see the sync
// package docs).
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	if err := (&clientRepo{db: s.db}).delete(ctx, id); err != nil {
		return err
	}
	s.notify()
	return nil
}
