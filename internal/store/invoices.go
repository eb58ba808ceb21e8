package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/avolkovs/tallybook/internal/dbx"
	"github.com/avolkovs/tallybook/internal/models"
	"github.com/google/uuid"
)

type invoiceRepo struct {
	db dbx.DBTX
}

func (r *invoiceRepo) getAll(ctx context.Context) ([]models.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, number, entry_ids, currency, rate, total, issued_on, status, updated_at
		FROM invoices ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("failed to select invoices: %w", err)
	}
	defer rows.Close()

	var result []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		var ids, issued, status, updated string
		if err := rows.Scan(&inv.ID, &inv.ClientID, &inv.Number, &ids,
			&inv.Currency, &inv.Rate, &inv.Total, &issued, &status, &updated); err != nil {
			return nil, err
		}
		inv.EntryIDs = splitIDs(ids)
		inv.Status = models.InvoiceStatus(status)
		if inv.IssuedOn, err = parseDate(issued); err != nil {
			return nil, fmt.Errorf("invoice %s: bad issued_on: %w", inv.ID, err)
		}
		if inv.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, fmt.Errorf("invoice %s: bad updated_at: %w", inv.ID, err)
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}

func (r *invoiceRepo) upsert(ctx context.Context, inv models.Invoice) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (id, client_id, number, entry_ids, currency, rate, total, issued_on, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			number = excluded.number,
			entry_ids = excluded.entry_ids,
			currency = excluded.currency,
			rate = excluded.rate,
			total = excluded.total,
			issued_on = excluded.issued_on,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		inv.ID, inv.ClientID, inv.Number, joinIDs(inv.EntryIDs), inv.Currency,
		inv.Rate, inv.Total, fmtDate(inv.IssuedOn), string(inv.Status), fmtTime(inv.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepo) delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepo) replaceAll(ctx context.Context, invoices []models.Invoice) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM invoices`); err != nil {
		return fmt.Errorf("failed to clear invoices: %w", err)
	}
	for _, inv := range invoices {
		if err := r.upsert(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

// Invoices lists all invoices ordered by number.
func (s *Store) Invoices(ctx context.Context) ([]models.Invoice, error) {
	return (&invoiceRepo{db: s.db}).getAll(ctx)
}

// SaveInvoice inserts or updates an invoice, assigning an id and bumping
// UpdatedAt as needed.
func (s *Store) SaveInvoice(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	inv.UpdatedAt = now()
	if err := (&invoiceRepo{db: s.db}).upsert(ctx, *inv); err != nil {
		return err
	}
	s.notify()
	return nil
}

// DeleteInvoice removes an invoice outright (no tombstone).
func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	if err := (&invoiceRepo{db: s.db}).delete(ctx, id); err != nil {
		return err
	}
	s.notify()
	return nil
}

// NextInvoiceNumber returns the next sequential invoice number for the given
// year, derived from the highest existing number with that year prefix.
func (s *Store) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	invoices, err := s.Invoices(ctx)
	if err != nil {
		return "", err
	}
	prefix := strconv.Itoa(year) + "-"
	max := 0
	for _, inv := range invoices {
		if !strings.HasPrefix(inv.Number, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(inv.Number, prefix)); err == nil && n > max {
			max = n
		}
	}
	return models.InvoiceNumber(year, max+1), nil
}
