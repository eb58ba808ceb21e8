package sheet

import (
	"context"
	"time"
)

// Handle identifies a remote tabular document.
type Handle string

// Table names inside the remote document: one per record collection, plus
// the Meta table holding the lastModified marker.
const (
	TableClients  = "Clients"
	TableProjects = "Projects"
	TableEntries  = "TimeEntries"
	TableInvoices = "Invoices"
	TableProfile  = "Profile"
	TableMeta     = "Meta"
)

// EntityTables lists the tables rewritten on every push, in write order.
var EntityTables = []string{TableClients, TableProjects, TableEntries, TableInvoices, TableProfile}

// MetaKeyLastModified is the Meta table row key carrying the timestamp of
// the last successful push from any device.
const MetaKeyLastModified = "lastModified"

// Gateway is the request layer over the remote tabular document service.
// Every call can fail with one of the sentinel errors in this package; no
// failure is swallowed except where a method documents otherwise.
type Gateway interface {
	// FindDocument looks up a document by name, returning ErrNotFound when
	// no document with that name exists.
	FindDocument(ctx context.Context, name string) (Handle, error)

	// CreateDocument creates a new, empty document with the given name.
	CreateDocument(ctx context.Context, name string) (Handle, error)

	// EnsureTables creates any of the named tables that do not yet exist.
	// Existing tables and their contents are left untouched.
	EnsureTables(ctx context.Context, h Handle, names []string) error

	// ClearTable removes all rows from a table. A table that does not yet
	// exist is a no-op, not an error.
	ClearTable(ctx context.Context, h Handle, name string) error

	// WriteTables clears and rewrites the given tables. It is all-or-nothing
	// from the caller's perspective: any error means the whole write must be
	// treated as failed, never as partially applied.
	WriteTables(ctx context.Context, h Handle, tables map[string][][]string) error

	// ReadTables returns the named tables as header row + data rows. A table
	// that does not exist comes back as an empty slice.
	ReadTables(ctx context.Context, h Handle, names []string) (map[string][][]string, error)

	// ReadMetadata returns the remote lastModified marker, or nil when the
	// Meta table or the marker row is absent (a document written by an older
	// protocol version).
	ReadMetadata(ctx context.Context, h Handle) (*time.Time, error)

	// WriteMetadata rewrites the Meta table with the given lastModified.
	WriteMetadata(ctx context.Context, h Handle, t time.Time) error
}
