package sheet

import "errors"

// Sentinel errors for the remote document layer. Callers match them with
// errors.Is; the sync orchestrator uses the distinction to decide between
// "retry later" and "ask the user to reconnect".
var (
	ErrUnavailable  = errors.New("document service unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)
