// Package rollback maintains the LIFO stack of compensating shell commands
// recorded during provisioning and executes them on failure.
//
// Compensations are data, not code: plain command strings stored verbatim,
// pushed immediately after the resource they undo was created — never
// before — and executed most-recent-first through the same runner that
// created the resource. Rollback is best-effort, not transactional.
package rollback

import (
	"context"
	"time"

	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/ui"
)

// compensationTimeout bounds each compensation command. Deleting remote
// resources is a network round trip, so this is generous.
const compensationTimeout = 2 * time.Minute

// Manager holds compensations for not-yet-confirmed-safe side effects.
type Manager struct {
	runner runner.Runner
	sink   ui.Sink
	stack  []string
}

// NewManager returns an empty rollback manager.
func NewManager(r runner.Runner, sink ui.Sink) *Manager {
	return &Manager{runner: r, sink: sink}
}

// Restore seeds the stack from persisted state, oldest first.
func (m *Manager) Restore(stack []string) {
	m.stack = append([]string(nil), stack...)
}

// Push records a compensation for a resource that was just created.
func (m *Manager) Push(cmd string) {
	m.stack = append(m.stack, cmd)
}

// Stack returns a copy of the recorded compensations, oldest first.
func (m *Manager) Stack() []string {
	return append([]string(nil), m.stack...)
}

// Len reports the number of pending compensations.
func (m *Manager) Len() int {
	return len(m.stack)
}

// Run executes all compensations in reverse order of creation, logging
// each outcome and continuing through the rest even when one fails. The
// stack is empty afterwards; failures are reported to the operator but
// never raised.
func (m *Manager) Run(ctx context.Context) {
	if len(m.stack) == 0 {
		return
	}

	m.sink.Warn("rolling back provisioned resources")
	for i := len(m.stack) - 1; i >= 0; i-- {
		cmd := m.stack[i]
		res := m.runner.Run(ctx, runner.Command{
			Line:    cmd,
			Timeout: compensationTimeout,
		})
		if res.OK {
			m.sink.Success("rolled back: " + cmd)
		} else {
			m.sink.Warn("rollback step failed (continuing): " + cmd)
		}
	}
	m.stack = nil
}
