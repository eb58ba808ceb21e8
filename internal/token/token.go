// Package token manages the credential used against the remote document
// service. Acquisition is interactive (the user supplies an access key) and
// must therefore only ever run from an explicit user action; push relies on
// a token already being held and fails with guidance to reconnect instead
// of prompting.
package token

import (
	"context"
	"errors"
	"time"
)

// ErrNoToken is returned when an operation needs a credential and none is
// held or the held one has expired.
var ErrNoToken = errors.New("no valid access token")

// AcquireTimeout bounds the whole interactive acquisition, including the
// time the user spends typing. After it, Acquire fails with a
// user-actionable error instead of hanging forever.
const AcquireTimeout = 2 * time.Minute

// Token is a bearer credential with its expiry.
type Token struct {
	AccessToken string
	Expiry      time.Time
}

// Provider acquires, holds and revokes the credential.
type Provider interface {
	// Acquire obtains a fresh token, interacting with the user if needed.
	Acquire(ctx context.Context) (Token, error)

	// AccessToken returns the held token string, or ErrNoToken when none is
	// held or it has expired.
	AccessToken() (string, error)

	// Valid reports whether a usable token is currently held.
	Valid() bool

	// Revoke drops the held token, best-effort revoking it remotely.
	Revoke()
}
