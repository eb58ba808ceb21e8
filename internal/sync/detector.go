package sync

import (
	"context"
	"fmt"

	"github.com/avolkovs/tallybook/internal/models"
	"github.com/avolkovs/tallybook/internal/sheet"
	"github.com/avolkovs/tallybook/internal/store"
)

// CheckResult is the outcome of a conflict check. Remote is populated only
// when Conflict is true.
type CheckResult struct {
	Conflict bool
	Remote   *models.Snapshot
}

// Detector decides whether the remote document has changed since this
// device last synced.
type Detector struct {
	store *store.Store
	gw    sheet.Gateway
}

func NewDetector(st *store.Store, gw sheet.Gateway) *Detector {
	return &Detector{store: st, gw: gw}
}

// Check compares the local last-sync time against the remote lastModified
// marker.
//
// No local last-sync time means this is the first sync ever, or the first
// since a disconnect: there is nothing meaningful to diff against, so no
// conflict. A missing remote marker means the document predates the marker
// protocol; proceeding without a conflict keeps old documents usable.
//
// Any remote read failure is returned as an error, never folded into "no
// conflict": a push must not overwrite the document just because the marker
// could not be read.
func (d *Detector) Check(ctx context.Context, h sheet.Handle) (CheckResult, error) {
	lastSync, err := d.store.LastSyncTime(ctx)
	if err != nil {
		return CheckResult{}, err
	}
	if lastSync == nil {
		return CheckResult{}, nil
	}

	lastModified, err := d.gw.ReadMetadata(ctx, h)
	if err != nil {
		return CheckResult{}, fmt.Errorf("reading remote sync marker: %w", err)
	}
	if lastModified == nil || !lastModified.After(*lastSync) {
		return CheckResult{}, nil
	}

	// Another device pushed since we last synced. Fetch the full remote
	// snapshot for merging.
	tables, err := d.gw.ReadTables(ctx, h, sheet.EntityTables)
	if err != nil {
		return CheckResult{}, fmt.Errorf("reading remote snapshot: %w", err)
	}
	remote, err := sheet.TablesToSnapshot(tables)
	if err != nil {
		return CheckResult{}, fmt.Errorf("parsing remote snapshot: %w", err)
	}
	return CheckResult{Conflict: true, Remote: &remote}, nil
}
