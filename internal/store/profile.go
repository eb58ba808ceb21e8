package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkovs/tallybook/internal/dbx"
	"github.com/avolkovs/tallybook/internal/models"
)

type profileRepo struct {
	db dbx.DBTX
}

// get returns the profile singleton; a store that has never saved one
// yields the zero profile.
func (r *profileRepo) get(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	var updated string
	err := r.db.QueryRowContext(ctx, `
		SELECT name, company, email, address, tax_id, bank_details, updated_at
		FROM profile WHERE id = 1`).
		Scan(&p.Name, &p.Company, &p.Email, &p.Address, &p.TaxID, &p.BankDetails, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, nil
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to select profile: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return models.Profile{}, fmt.Errorf("profile: bad updated_at: %w", err)
	}
	return p, nil
}

func (r *profileRepo) save(ctx context.Context, p models.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profile (id, name, company, email, address, tax_id, bank_details, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			company = excluded.company,
			email = excluded.email,
			address = excluded.address,
			tax_id = excluded.tax_id,
			bank_details = excluded.bank_details,
			updated_at = excluded.updated_at`,
		p.Name, p.Company, p.Email, p.Address, p.TaxID, p.BankDetails, fmtTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Profile returns the operator's profile singleton.
func (s *Store) Profile(ctx context.Context) (models.Profile, error) {
	return (&profileRepo{db: s.db}).get(ctx)
}

// SaveProfile updates the profile singleton, bumping UpdatedAt.
func (s *Store) SaveProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = now()
	if err := (&profileRepo{db: s.db}).save(ctx, *p); err != nil {
		return err
	}
	s.notify()
	return nil
}
