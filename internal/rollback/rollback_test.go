package rollback

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/ui"
)

// recordingRunner captures executed command lines.
type recordingRunner struct {
	lines  []string
	failOn map[string]bool
}

func (r *recordingRunner) Run(_ context.Context, cmd runner.Command) runner.Result {
	r.lines = append(r.lines, cmd.Line)
	if r.failOn[cmd.Line] {
		return runner.Result{OK: false, Output: "boom"}
	}
	return runner.Result{OK: true}
}

func newTestManager(rr *recordingRunner) (*Manager, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewManager(rr, ui.NewPlainSink(&buf)), &buf
}

func TestRunExecutesInReverseOrder(t *testing.T) {
	rr := &recordingRunner{}
	m, _ := newTestManager(rr)

	m.Push("gh repo delete me/demo --yes")
	m.Push("vercel project rm demo --yes")

	m.Run(context.Background())

	require.Len(t, rr.lines, 2)
	assert.Equal(t, "vercel project rm demo --yes", rr.lines[0])
	assert.Equal(t, "gh repo delete me/demo --yes", rr.lines[1])
}

func TestRunContinuesPastFailures(t *testing.T) {
	rr := &recordingRunner{failOn: map[string]bool{"vercel project rm demo --yes": true}}
	m, buf := newTestManager(rr)

	m.Push("gh repo delete me/demo --yes")
	m.Push("vercel project rm demo --yes")

	m.Run(context.Background())

	// The failing compensation does not stop the remaining ones.
	require.Len(t, rr.lines, 2)
	assert.Contains(t, buf.String(), "rollback step failed")
	assert.Contains(t, buf.String(), "rolled back: gh repo delete me/demo --yes")
}

func TestRunEmptiesStack(t *testing.T) {
	rr := &recordingRunner{failOn: map[string]bool{"a": true}}
	m, _ := newTestManager(rr)

	m.Push("a")
	m.Push("b")
	m.Run(context.Background())

	assert.Zero(t, m.Len())
	assert.Empty(t, m.Stack())
}

func TestRunWithEmptyStackIsSilent(t *testing.T) {
	rr := &recordingRunner{}
	m, buf := newTestManager(rr)

	m.Run(context.Background())

	assert.Empty(t, rr.lines)
	assert.Empty(t, strings.TrimSpace(buf.String()))
}

func TestRestoreSeedsPersistedStack(t *testing.T) {
	rr := &recordingRunner{}
	m, _ := newTestManager(rr)

	m.Restore([]string{"first", "second"})
	m.Push("third")

	m.Run(context.Background())

	assert.Equal(t, []string{"third", "second", "first"}, rr.lines)
}
