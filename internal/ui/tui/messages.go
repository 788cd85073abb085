// Package tui provides a Bubble Tea-based terminal UI for watching a
// provisioning run.
package tui

import "github.com/stackpilot/stackpilot/internal/state"

// StateMsg carries the latest persisted run state.
type StateMsg struct {
	State    *state.RunState
	NotFound bool
	FetchErr string
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }
