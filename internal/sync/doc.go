// Package sync keeps the local store and the remote tabular document
// eventually consistent without a central server or locking authority.
//
// # Overview
//
// The package provides:
//  1. A conflict detector comparing this device's last successful sync time
//     against the remote lastModified marker (see Detector).
//  2. A merge engine reconciling two snapshots with per-record
//     last-write-wins, ties favoring the device performing the merge
//     (see Merge).
//  3. An orchestrator owning the sync state machine: debounced automatic
//     pushes, single-flight serialization, connect/pull/push/disconnect
//     (see Orchestrator).
//
// # Known gap: deletions do not propagate
//
// Records are hard-deleted locally with no tombstone, and the merge is a
// union over ids. A record deleted on device A after device B last pulled
// it reappears after B's next push. Fixing this needs soft deletes carrying
// their own updated-at, folded into the same last-write-wins rule.
package sync
