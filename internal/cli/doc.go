// Package cli is the interactive terminal frontend: a small REPL over the
// local store plus the sync commands (connect, disconnect, push, pull).
// All record operations work offline; sync commands need the remote
// document service.
package cli
