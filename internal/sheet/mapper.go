// Package sheet converts between in-memory records and the row/column shape
// of the remote tabular document, and defines the gateway contract for
// talking to the document service.
//
// The mapper is tolerant of column supersets and subsets: columns are
// located by header name, never by position, and absent optional columns
// default to neutral values. That tolerance is what lets the schema grow
// new optional fields without breaking documents written by older versions,
// until they are next rewritten in full.
package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avolkovs/tallybook/internal/models"
)

const dateLayout = "2006-01-02"

var (
	clientHeader  = []string{"id", "name", "currency", "rate", "rate_kind", "requires_invoice", "active", "email", "address", "updated_at"}
	projectHeader = []string{"id", "client_id", "name", "active", "updated_at"}
	entryHeader   = []string{"id", "client_id", "project_id", "date", "hours", "amount", "description", "paid_on", "updated_at"}
	invoiceHeader = []string{"id", "client_id", "number", "entry_ids", "currency", "rate", "total", "issued_on", "status", "updated_at"}
	profileHeader = []string{"name", "company", "email", "address", "tax_id", "bank_details", "updated_at"}
	metaHeader    = []string{"Key", "Value"}
)

// rowReader resolves cells by header name. Missing columns and short rows
// read as the empty string.
type rowReader struct {
	idx map[string]int
}

func newRowReader(header []string) *rowReader {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return &rowReader{idx: idx}
}

func (r *rowReader) str(row []string, col string) string {
	i, ok := r.idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (r *rowReader) float(row []string, col string) (float64, error) {
	s := r.str(row, col)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func (r *rowReader) boolean(row []string, col string) bool {
	s := r.str(row, col)
	return s == "true" || s == "1"
}

func (r *rowReader) timestamp(row []string, col string) (time.Time, error) {
	s := r.str(row, col)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func (r *rowReader) date(row []string, col string) (time.Time, error) {
	s := r.str(row, col)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func (r *rowReader) datePtr(row []string, col string) (*time.Time, error) {
	s := r.str(row, col)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func fmtBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fmtTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func fmtDate(t time.Time) string {
	return t.Format(dateLayout)
}

func fmtDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmtDate(*t)
}

// ClientsToRows renders clients as a header row plus one row per record,
// always emitting the full current column set.
func ClientsToRows(clients []models.Client) [][]string {
	rows := [][]string{clientHeader}
	for _, c := range clients {
		rows = append(rows, []string{
			c.ID, c.Name, c.Currency, fmtFloat(c.Rate), string(c.RateKind),
			fmtBool(c.RequiresInvoice), fmtBool(c.Active), c.Email, c.Address,
			fmtTimestamp(c.UpdatedAt),
		})
	}
	return rows
}

// ClientsFromRows parses a client table. Rows without an id are skipped.
func ClientsFromRows(rows [][]string) ([]models.Client, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	r := newRowReader(rows[0])
	var result []models.Client
	for n, row := range rows[1:] {
		id := r.str(row, "id")
		if id == "" {
			continue
		}
		c := models.Client{
			ID:              id,
			Name:            r.str(row, "name"),
			Currency:        r.str(row, "currency"),
			RateKind:        models.RateKind(r.str(row, "rate_kind")),
			RequiresInvoice: r.boolean(row, "requires_invoice"),
			Active:          r.boolean(row, "active"),
			Email:           r.str(row, "email"),
			Address:         r.str(row, "address"),
		}
		var err error
		if c.Rate, err = r.float(row, "rate"); err != nil {
			return nil, fmt.Errorf("clients row %d: bad rate: %w", n+1, err)
		}
		if c.UpdatedAt, err = r.timestamp(row, "updated_at"); err != nil {
			return nil, fmt.Errorf("clients row %d: bad updated_at: %w", n+1, err)
		}
		result = append(result, c)
	}
	return result, nil
}

// ProjectsToRows renders projects as header row + data rows.
func ProjectsToRows(projects []models.Project) [][]string {
	rows := [][]string{projectHeader}
	for _, p := range projects {
		rows = append(rows, []string{
			p.ID, p.ClientID, p.Name, fmtBool(p.Active), fmtTimestamp(p.UpdatedAt),
		})
	}
	return rows
}

// ProjectsFromRows parses a project table.
func ProjectsFromRows(rows [][]string) ([]models.Project, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	r := newRowReader(rows[0])
	var result []models.Project
	for n, row := range rows[1:] {
		id := r.str(row, "id")
		if id == "" {
			continue
		}
		p := models.Project{
			ID:       id,
			ClientID: r.str(row, "client_id"),
			Name:     r.str(row, "name"),
			Active:   r.boolean(row, "active"),
		}
		var err error
		if p.UpdatedAt, err = r.timestamp(row, "updated_at"); err != nil {
			return nil, fmt.Errorf("projects row %d: bad updated_at: %w", n+1, err)
		}
		result = append(result, p)
	}
	return result, nil
}

// EntriesToRows renders time entries as header row + data rows.
func EntriesToRows(entries []models.TimeEntry) [][]string {
	rows := [][]string{entryHeader}
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID, e.ClientID, e.ProjectID, fmtDate(e.Date), fmtFloat(e.Hours),
			fmtFloat(e.Amount), e.Description, fmtDatePtr(e.PaidOn),
			fmtTimestamp(e.UpdatedAt),
		})
	}
	return rows
}

// EntriesFromRows parses a time entry table.
func EntriesFromRows(rows [][]string) ([]models.TimeEntry, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	r := newRowReader(rows[0])
	var result []models.TimeEntry
	for n, row := range rows[1:] {
		id := r.str(row, "id")
		if id == "" {
			continue
		}
		e := models.TimeEntry{
			ID:          id,
			ClientID:    r.str(row, "client_id"),
			ProjectID:   r.str(row, "project_id"),
			Description: r.str(row, "description"),
		}
		var err error
		if e.Date, err = r.date(row, "date"); err != nil {
			return nil, fmt.Errorf("time entries row %d: bad date: %w", n+1, err)
		}
		if e.Hours, err = r.float(row, "hours"); err != nil {
			return nil, fmt.Errorf("time entries row %d: bad hours: %w", n+1, err)
		}
		if e.Amount, err = r.float(row, "amount"); err != nil {
			return nil, fmt.Errorf("time entries row %d: bad amount: %w", n+1, err)
		}
		if e.PaidOn, err = r.datePtr(row, "paid_on"); err != nil {
			return nil, fmt.Errorf("time entries row %d: bad paid_on: %w", n+1, err)
		}
		if e.UpdatedAt, err = r.timestamp(row, "updated_at"); err != nil {
			return nil, fmt.Errorf("time entries row %d: bad updated_at: %w", n+1, err)
		}
		result = append(result, e)
	}
	return result, nil
}

// InvoicesToRows renders invoices as header row + data rows. Entry id lists
// are semicolon-joined into a single cell, never spliced.
func InvoicesToRows(invoices []models.Invoice) [][]string {
	rows := [][]string{invoiceHeader}
	for _, inv := range invoices {
		rows = append(rows, []string{
			inv.ID, inv.ClientID, inv.Number, strings.Join(inv.EntryIDs, ";"),
			inv.Currency, fmtFloat(inv.Rate), fmtFloat(inv.Total),
			fmtDate(inv.IssuedOn), string(inv.Status), fmtTimestamp(inv.UpdatedAt),
		})
	}
	return rows
}

// InvoicesFromRows parses an invoice table.
func InvoicesFromRows(rows [][]string) ([]models.Invoice, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	r := newRowReader(rows[0])
	var result []models.Invoice
	for n, row := range rows[1:] {
		id := r.str(row, "id")
		if id == "" {
			continue
		}
		inv := models.Invoice{
			ID:       id,
			ClientID: r.str(row, "client_id"),
			Number:   r.str(row, "number"),
			Currency: r.str(row, "currency"),
			Status:   models.InvoiceStatus(r.str(row, "status")),
		}
		if ids := r.str(row, "entry_ids"); ids != "" {
			inv.EntryIDs = strings.Split(ids, ";")
		}
		var err error
		if inv.Rate, err = r.float(row, "rate"); err != nil {
			return nil, fmt.Errorf("invoices row %d: bad rate: %w", n+1, err)
		}
		if inv.Total, err = r.float(row, "total"); err != nil {
			return nil, fmt.Errorf("invoices row %d: bad total: %w", n+1, err)
		}
		if inv.IssuedOn, err = r.date(row, "issued_on"); err != nil {
			return nil, fmt.Errorf("invoices row %d: bad issued_on: %w", n+1, err)
		}
		if inv.UpdatedAt, err = r.timestamp(row, "updated_at"); err != nil {
			return nil, fmt.Errorf("invoices row %d: bad updated_at: %w", n+1, err)
		}
		result = append(result, inv)
	}
	return result, nil
}

// ProfileToRows renders the profile singleton as a one-row table.
func ProfileToRows(p models.Profile) [][]string {
	return [][]string{
		profileHeader,
		{p.Name, p.Company, p.Email, p.Address, p.TaxID, p.BankDetails, fmtTimestamp(p.UpdatedAt)},
	}
}

// ProfileFromRows parses the profile table; an empty table yields the zero
// profile.
func ProfileFromRows(rows [][]string) (models.Profile, error) {
	if len(rows) < 2 {
		return models.Profile{}, nil
	}
	r := newRowReader(rows[0])
	row := rows[1]
	p := models.Profile{
		Name:        r.str(row, "name"),
		Company:     r.str(row, "company"),
		Email:       r.str(row, "email"),
		Address:     r.str(row, "address"),
		TaxID:       r.str(row, "tax_id"),
		BankDetails: r.str(row, "bank_details"),
	}
	var err error
	if p.UpdatedAt, err = r.timestamp(row, "updated_at"); err != nil {
		return models.Profile{}, fmt.Errorf("profile: bad updated_at: %w", err)
	}
	return p, nil
}

// SnapshotToTables renders a full snapshot as the entity tables keyed by
// table name.
func SnapshotToTables(s models.Snapshot) map[string][][]string {
	return map[string][][]string{
		TableClients:  ClientsToRows(s.Clients),
		TableProjects: ProjectsToRows(s.Projects),
		TableEntries:  EntriesToRows(s.Entries),
		TableInvoices: InvoicesToRows(s.Invoices),
		TableProfile:  ProfileToRows(s.Profile),
	}
}

// TablesToSnapshot parses the entity tables back into a snapshot. Missing
// tables read as empty collections.
func TablesToSnapshot(tables map[string][][]string) (models.Snapshot, error) {
	var (
		snap models.Snapshot
		err  error
	)
	if snap.Clients, err = ClientsFromRows(tables[TableClients]); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Projects, err = ProjectsFromRows(tables[TableProjects]); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Entries, err = EntriesFromRows(tables[TableEntries]); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Invoices, err = InvoicesFromRows(tables[TableInvoices]); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Profile, err = ProfileFromRows(tables[TableProfile]); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// MetaToRows renders the Meta table carrying the lastModified marker.
func MetaToRows(lastModified time.Time) [][]string {
	return [][]string{
		metaHeader,
		{MetaKeyLastModified, fmtTimestamp(lastModified)},
	}
}

// MetaFromRows extracts the lastModified marker from a Meta table, or nil
// when the table or the row is absent.
func MetaFromRows(rows [][]string) (*time.Time, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	r := newRowReader(rows[0])
	for _, row := range rows[1:] {
		if r.str(row, "Key") != MetaKeyLastModified {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, r.str(row, "Value"))
		if err != nil {
			return nil, fmt.Errorf("bad %s value: %w", MetaKeyLastModified, err)
		}
		return &t, nil
	}
	return nil, nil
}
