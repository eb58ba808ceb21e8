package sync

import "time"

// State is the orchestrator's externally visible state.
type State string

const (
	// StateIdle means no sync activity; also the resting state after a
	// recovered error. There is no separate "offline" state: connectivity
	// failures show up as StateError.
	StateIdle State = "idle"
	// StatePushing means a push is writing to the remote document.
	StatePushing State = "pushing"
	// StatePulling means a pull is replacing the local store.
	StatePulling State = "pulling"
	// StateConflict is a transient sub-state of a push while remote changes
	// are being merged; it always resolves to idle or error.
	StateConflict State = "conflict"
	// StateError means the last operation failed; the next successful push
	// or pull clears it.
	StateError State = "error"
)

// Status is the single shared value observers read. It is mutated only by
// the orchestrator.
type Status struct {
	State     State
	Message   string
	Connected bool
	LastSync  *time.Time
}
