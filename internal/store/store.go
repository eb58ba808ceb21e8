// Package store is the local Entity Store: synchronous CRUD over the record
// collections backed by SQLite, plus the small key/value metadata table that
// carries the sync engine's local state (document id, last sync time).
//
// Writes are immediate from the caller's perspective. After every local
// mutation the store fires the change hook (see SetOnChange) so the sync
// orchestrator can debounce a push. ReplaceAll deliberately does not fire
// the hook: it is used by pull and by the post-merge write-back, neither of
// which should re-trigger a push of its own.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/avolkovs/tallybook/internal/dbx"
	"github.com/avolkovs/tallybook/internal/models"
)

// Store provides CRUD over all record collections.
type Store struct {
	db       *sql.DB
	onChange func()
}

// New wraps an already-migrated database handle. Most callers want Open.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SetOnChange registers fn to run after every local write. Only one hook is
// kept; passing nil removes it.
func (s *Store) SetOnChange(fn func()) {
	s.onChange = fn
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Snapshot reads the full record set in one transaction.
func (s *Store) Snapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	err := dbx.WithTx(ctx, s.db, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if snap.Clients, err = (&clientRepo{db: tx}).getAll(ctx); err != nil {
			return err
		}
		if snap.Projects, err = (&projectRepo{db: tx}).getAll(ctx); err != nil {
			return err
		}
		if snap.Entries, err = (&entryRepo{db: tx}).getAll(ctx); err != nil {
			return err
		}
		if snap.Invoices, err = (&invoiceRepo{db: tx}).getAll(ctx); err != nil {
			return err
		}
		if snap.Profile, err = (&profileRepo{db: tx}).get(ctx); err != nil {
			return err
		}
		return nil
	})
	return snap, err
}

// ReplaceAll overwrites every collection and the profile with the given
// snapshot inside one transaction. Used by pull (full replace) and by the
// post-merge write-back. Record timestamps are stored as given, never
// bumped, and the change hook is not fired.
func (s *Store) ReplaceAll(ctx context.Context, snap models.Snapshot) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := (&clientRepo{db: tx}).replaceAll(ctx, snap.Clients); err != nil {
			return err
		}
		if err := (&projectRepo{db: tx}).replaceAll(ctx, snap.Projects); err != nil {
			return err
		}
		if err := (&entryRepo{db: tx}).replaceAll(ctx, snap.Entries); err != nil {
			return err
		}
		if err := (&invoiceRepo{db: tx}).replaceAll(ctx, snap.Invoices); err != nil {
			return err
		}
		return (&profileRepo{db: tx}).save(ctx, snap.Profile)
	})
}

// now returns the wall clock in UTC; record timestamps are always UTC.
func now() time.Time {
	return time.Now().UTC()
}
