package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avolkovs/tallybook/internal/dbx"
)

// Metadata keys persisted locally for the sync engine. Document id and last
// sync time travel together: both are cleared on disconnect.
const (
	metaDocumentID   = "document_id"
	metaLastSyncTime = "last_sync_time"
)

type metadataRepo struct {
	db dbx.DBTX
}

func (r *metadataRepo) get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *metadataRepo) set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *metadataRepo) delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

// DocumentID returns the configured remote document id, or "" when no
// document has been linked yet.
func (s *Store) DocumentID(ctx context.Context) (string, error) {
	return (&metadataRepo{db: s.db}).get(ctx, metaDocumentID)
}

// SetDocumentID records the remote document id.
func (s *Store) SetDocumentID(ctx context.Context, id string) error {
	return (&metadataRepo{db: s.db}).set(ctx, metaDocumentID, id)
}

// LastSyncTime returns the time of the last successful push or pull, or nil
// if this device has never synced (or has disconnected since).
func (s *Store) LastSyncTime(ctx context.Context) (*time.Time, error) {
	raw, err := (&metadataRepo{db: s.db}).get(ctx, metaLastSyncTime)
	if err != nil || raw == "" {
		return nil, err
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, fmt.Errorf("bad last sync time: %w", err)
	}
	return &t, nil
}

// SetLastSyncTime records the time of a successful push or pull.
func (s *Store) SetLastSyncTime(ctx context.Context, t time.Time) error {
	return (&metadataRepo{db: s.db}).set(ctx, metaLastSyncTime, fmtTime(t))
}

// ClearSyncState removes the document id and the last sync time together,
// as disconnect requires.
func (s *Store) ClearSyncState(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := &metadataRepo{db: tx}
		if err := r.delete(ctx, metaDocumentID); err != nil {
			return err
		}
		return r.delete(ctx, metaLastSyncTime)
	})
}
