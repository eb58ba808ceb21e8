package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avolkovs/tallybook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDBSeq atomic.Int64

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	st, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSaveClient_AssignsIDAndFiresChangeHook(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	changes := 0
	st.SetOnChange(func() { changes++ })

	c := models.Client{Name: "Acme", Currency: "EUR", Rate: 95, RateKind: models.RateHourly, Active: true}
	require.NoError(t, st.SaveClient(ctx, &c))

	assert.NotEmpty(t, c.ID)
	assert.False(t, c.UpdatedAt.IsZero())
	assert.Equal(t, 1, changes)

	clients, err := st.Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme", clients[0].Name)
	assert.Equal(t, models.RateHourly, clients[0].RateKind)
}

func TestClients_UpdateAndDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	c := models.Client{Name: "Acme", Currency: "EUR", Rate: 95, RateKind: models.RateHourly, Active: true}
	require.NoError(t, st.SaveClient(ctx, &c))

	firstUpdated := c.UpdatedAt
	c.Rate = 110
	require.NoError(t, st.SaveClient(ctx, &c))
	assert.False(t, c.UpdatedAt.Before(firstUpdated))

	clients, err := st.Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, 110.0, clients[0].Rate)

	require.NoError(t, st.DeleteClient(ctx, c.ID))
	clients, err = st.Clients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestClients_OrderedByName(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		c := models.Client{Name: name}
		require.NoError(t, st.SaveClient(ctx, &c))
	}

	clients, err := st.Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 3)
	assert.Equal(t, "Alpha", clients[0].Name)
	assert.Equal(t, "Mid", clients[1].Name)
	assert.Equal(t, "Zeta", clients[2].Name)
}

func TestProjects_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := models.Project{ClientID: "c1", Name: "Migration", Active: true}
	require.NoError(t, st.SaveProject(ctx, &p))
	require.NotEmpty(t, p.ID)

	projects, err := st.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Migration", projects[0].Name)
	assert.Equal(t, "c1", projects[0].ClientID)
	assert.True(t, projects[0].Active)

	require.NoError(t, st.DeleteProject(ctx, p.ID))
	projects, err = st.Projects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestEntries_PaidOnRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	e := models.TimeEntry{
		ClientID:    "c1",
		Date:        time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Hours:       6.5,
		Description: "api work",
	}
	require.NoError(t, st.SaveEntry(ctx, &e))

	entries, err := st.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].PaidOn)
	assert.Equal(t, 6.5, entries[0].Hours)
	assert.True(t, entries[0].Date.Equal(e.Date))

	paid := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	e.PaidOn = &paid
	require.NoError(t, st.SaveEntry(ctx, &e))

	entries, err = st.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].PaidOn)
	assert.True(t, entries[0].PaidOn.Equal(paid))
}

func TestInvoices_EntryIDsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	inv := models.Invoice{
		ClientID: "c1",
		Number:   "2026-001",
		EntryIDs: []string{"e1", "e2", "e3"},
		Currency: "EUR",
		Rate:     95,
		Total:    617.5,
		IssuedOn: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Status:   models.InvoiceDraft,
	}
	require.NoError(t, st.SaveInvoice(ctx, &inv))

	invoices, err := st.Invoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, []string{"e1", "e2", "e3"}, invoices[0].EntryIDs)
	assert.Equal(t, models.InvoiceDraft, invoices[0].Status)
	assert.Equal(t, 617.5, invoices[0].Total)
}

func TestInvoices_NoEntries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	inv := models.Invoice{ClientID: "c1", Number: "2026-001", Status: models.InvoiceDraft}
	require.NoError(t, st.SaveInvoice(ctx, &inv))

	invoices, err := st.Invoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Empty(t, invoices[0].EntryIDs)
}

func TestNextInvoiceNumber(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	n, err := st.NextInvoiceNumber(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, "2026-001", n)

	inv := models.Invoice{ClientID: "c1", Number: "2026-002", Status: models.InvoiceSent}
	require.NoError(t, st.SaveInvoice(ctx, &inv))
	other := models.Invoice{ClientID: "c1", Number: "2025-017", Status: models.InvoicePaid}
	require.NoError(t, st.SaveInvoice(ctx, &other))

	n, err = st.NextInvoiceNumber(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, "2026-003", n)

	n, err = st.NextInvoiceNumber(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, "2025-018", n)
}

func TestProfile_EmptyThenSaved(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p, err := st.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Profile{}, p)

	p.Name = "Jane Doe"
	p.Company = "Doe Consulting"
	require.NoError(t, st.SaveProfile(ctx, &p))

	got, err := st.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "Doe Consulting", got.Company)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestReplaceAll_KeepsTimestampsAndStaysQuiet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	changes := 0
	st.SetOnChange(func() { changes++ })

	at := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	snap := models.Snapshot{
		Clients:  []models.Client{{ID: "c1", Name: "Acme", UpdatedAt: at}},
		Projects: []models.Project{{ID: "p1", ClientID: "c1", Name: "Migration", UpdatedAt: at}},
		Entries:  []models.TimeEntry{{ID: "e1", ClientID: "c1", Date: at, Hours: 2, UpdatedAt: at}},
		Invoices: []models.Invoice{{ID: "i1", ClientID: "c1", Number: "2026-001", IssuedOn: at, Status: models.InvoiceDraft, UpdatedAt: at}},
		Profile:  models.Profile{Name: "Jane", UpdatedAt: at},
	}
	require.NoError(t, st.ReplaceAll(ctx, snap))

	// ReplaceAll serves pull and the post-merge write-back; it must not
	// re-trigger the push debounce.
	assert.Equal(t, 0, changes)

	got, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got.Clients, 1)
	assert.True(t, got.Clients[0].UpdatedAt.Equal(at))
	assert.Equal(t, "Jane", got.Profile.Name)

	// A second ReplaceAll overwrites, never appends.
	require.NoError(t, st.ReplaceAll(ctx, models.Snapshot{
		Clients: []models.Client{{ID: "c2", Name: "Globex", UpdatedAt: at}},
	}))
	got, err = st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got.Clients, 1)
	assert.Equal(t, "c2", got.Clients[0].ID)
	assert.Empty(t, got.Projects)
	assert.Empty(t, got.Entries)
	assert.Empty(t, got.Invoices)
}

func TestMetadata_SyncState(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	docID, err := st.DocumentID(ctx)
	require.NoError(t, err)
	assert.Empty(t, docID)

	lastSync, err := st.LastSyncTime(ctx)
	require.NoError(t, err)
	assert.Nil(t, lastSync)

	require.NoError(t, st.SetDocumentID(ctx, "doc-42"))
	at := time.Date(2026, 2, 1, 12, 0, 0, 123456789, time.UTC)
	require.NoError(t, st.SetLastSyncTime(ctx, at))

	docID, err = st.DocumentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doc-42", docID)

	lastSync, err = st.LastSyncTime(ctx)
	require.NoError(t, err)
	require.NotNil(t, lastSync)
	assert.True(t, lastSync.Equal(at))

	require.NoError(t, st.ClearSyncState(ctx))

	docID, err = st.DocumentID(ctx)
	require.NoError(t, err)
	assert.Empty(t, docID)
	lastSync, err = st.LastSyncTime(ctx)
	require.NoError(t, err)
	assert.Nil(t, lastSync)
}
