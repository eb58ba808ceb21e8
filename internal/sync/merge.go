package sync

import (
	"time"

	"github.com/avolkovs/tallybook/internal/models"
)

// Merge reconciles a local and a remote snapshot into one. Each collection
// is merged independently: the result is the union of ids from both sides
// (merge never deletes), and where an id exists on both,
// the local record wins when its UpdatedAt is greater than or equal to the
// remote one. Ties deliberately favor local: the device performing the
// merge is the one whose data is about to be written back.
//
// The profile is exempt: the merged snapshot always carries the local
// profile.
//
// Resolution is at whole-record granularity. Field-level merging would need
// per-field change tracking out of proportion with how rarely two devices
// edit the same record in the same window.
func Merge(local, remote models.Snapshot) models.Snapshot {
	return models.Snapshot{
		Clients: mergeByID(local.Clients, remote.Clients,
			func(c models.Client) string { return c.ID },
			func(c models.Client) time.Time { return c.UpdatedAt }),
		Projects: mergeByID(local.Projects, remote.Projects,
			func(p models.Project) string { return p.ID },
			func(p models.Project) time.Time { return p.UpdatedAt }),
		Entries: mergeByID(local.Entries, remote.Entries,
			func(e models.TimeEntry) string { return e.ID },
			func(e models.TimeEntry) time.Time { return e.UpdatedAt }),
		Invoices: mergeByID(local.Invoices, remote.Invoices,
			func(i models.Invoice) string { return i.ID },
			func(i models.Invoice) time.Time { return i.UpdatedAt }),
		Profile: local.Profile,
	}
}

// mergeByID seeds the result from the remote collection, then overlays each
// local record whose UpdatedAt is >= the remote one. Output order is remote
// order first, then local-only records in local order, so merges are
// deterministic.
func mergeByID[T any](local, remote []T, id func(T) string, updatedAt func(T) time.Time) []T {
	index := make(map[string]int, len(remote))
	result := make([]T, 0, len(remote)+len(local))

	for _, r := range remote {
		index[id(r)] = len(result)
		result = append(result, r)
	}

	for _, l := range local {
		pos, ok := index[id(l)]
		if !ok {
			result = append(result, l)
			continue
		}
		if !updatedAt(l).Before(updatedAt(result[pos])) {
			result[pos] = l
		}
	}

	return result
}
