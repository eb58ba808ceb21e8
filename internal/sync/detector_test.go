package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/avolkovs/tallybook/internal/models"
	"github.com/avolkovs/tallybook/internal/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_NeverSynced(t *testing.T) {
	st := newTestStore(t)
	gw := newFakeGateway()
	d := NewDetector(st, gw)

	res, err := d.Check(context.Background(), "doc")

	require.NoError(t, err)
	assert.False(t, res.Conflict)
	// The remote must not even be consulted on the first sync.
	assert.Equal(t, 0, gw.metaReadCalls)
}

func TestDetector_LegacyDocumentWithoutMarker(t *testing.T) {
	st := newTestStore(t)
	gw := newFakeGateway()
	d := NewDetector(st, gw)

	require.NoError(t, st.SetLastSyncTime(context.Background(), ts("2026-01-01T10:00:00Z")))

	res, err := d.Check(context.Background(), "doc")

	require.NoError(t, err)
	assert.False(t, res.Conflict)
}

func TestDetector_MarkerNotNewer(t *testing.T) {
	st := newTestStore(t)
	gw := newFakeGateway()
	d := NewDetector(st, gw)

	at := ts("2026-01-01T10:00:00Z")
	require.NoError(t, st.SetLastSyncTime(context.Background(), at))
	gw.meta = &at

	res, err := d.Check(context.Background(), "doc")

	require.NoError(t, err)
	assert.False(t, res.Conflict)
}

func TestDetector_MarkerNewerFetchesRemote(t *testing.T) {
	st := newTestStore(t)
	gw := newFakeGateway()
	d := NewDetector(st, gw)

	require.NoError(t, st.SetLastSyncTime(context.Background(), ts("2026-01-01T10:00:00Z")))
	newer := ts("2026-01-01T11:00:00Z")
	gw.meta = &newer

	remote := models.Snapshot{
		Clients: []models.Client{{ID: "c1", Name: "Acme", UpdatedAt: newer}},
	}
	for name, rows := range sheet.SnapshotToTables(remote) {
		gw.tables[name] = rows
	}

	res, err := d.Check(context.Background(), "doc")

	require.NoError(t, err)
	require.True(t, res.Conflict)
	require.NotNil(t, res.Remote)
	require.Len(t, res.Remote.Clients, 1)
	assert.Equal(t, "Acme", res.Remote.Clients[0].Name)
}

func TestDetector_MarkerReadFailureIsAnError(t *testing.T) {
	st := newTestStore(t)
	gw := newFakeGateway()
	d := NewDetector(st, gw)

	require.NoError(t, st.SetLastSyncTime(context.Background(), ts("2026-01-01T10:00:00Z")))
	gw.metaErr = sheet.ErrUnavailable

	_, err := d.Check(context.Background(), "doc")

	require.Error(t, err)
	assert.True(t, errors.Is(err, sheet.ErrUnavailable))
}

func TestDetector_RemoteSnapshotReadFailure(t *testing.T) {
	st := newTestStore(t)
	gw := newFakeGateway()
	d := NewDetector(st, gw)

	require.NoError(t, st.SetLastSyncTime(context.Background(), ts("2026-01-01T10:00:00Z")))
	newer := ts("2026-01-02T10:00:00Z")
	gw.meta = &newer
	gw.readErr = sheet.ErrUnavailable

	_, err := d.Check(context.Background(), "doc")

	require.ErrorIs(t, err, sheet.ErrUnavailable)
}
