package tui

import (
	"strings"
	"testing"

	"github.com/stackpilot/stackpilot/internal/state"
)

func runState(phase state.Phase, status state.Status) *state.RunState {
	return &state.RunState{
		Status:       status,
		CurrentPhase: phase,
		Config:       state.ProjectConfig{Name: "demo"},
	}
}

func TestPhaseIndex(t *testing.T) {
	if got := phaseIndex(state.PhaseEnvCheck); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := phaseIndex(state.PhaseDeploy); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if got := phaseIndex(state.Phase("bogus")); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
}

func TestModelQuitsOnComplete(t *testing.T) {
	m := NewWatchModel("demo", nil)
	updated, cmd := m.Update(StateMsg{State: runState(state.PhaseDeploy, state.StatusComplete)})

	got := updated.(Model)
	if !got.Done {
		t.Error("expected Done after complete state")
	}
	if cmd == nil {
		t.Error("expected a quit command")
	}
}

func TestModelQuitsOnFailed(t *testing.T) {
	m := NewWatchModel("demo", nil)
	updated, cmd := m.Update(StateMsg{State: runState(state.PhaseProvision, state.StatusFailed)})

	got := updated.(Model)
	if got.Done {
		t.Error("failed run must not read as done")
	}
	if cmd == nil {
		t.Error("expected a quit command")
	}
}

func TestModelKeepsPollingWhileInProgress(t *testing.T) {
	m := NewWatchModel("demo", func() (*state.RunState, error) {
		return runState(state.PhaseScaffold, state.StatusInProgress), nil
	})
	updated, cmd := m.Update(StateMsg{State: runState(state.PhaseScaffold, state.StatusInProgress)})

	got := updated.(Model)
	if got.Done {
		t.Error("in-progress run must not read as done")
	}
	if cmd != nil {
		t.Error("state message alone should not schedule commands")
	}

	_, cmd = got.Update(TickMsg{})
	if cmd == nil {
		t.Error("tick should schedule the next poll")
	}
}

func TestViewShowsPhaseChecklist(t *testing.T) {
	m := NewWatchModel("demo", nil)
	m.State = runState(state.PhaseProvision, state.StatusInProgress)

	out := m.View()
	if !strings.Contains(out, "Environment Check") {
		t.Error("expected phase names in view")
	}
	if !strings.Contains(out, checkMark) {
		t.Error("expected completed phases marked")
	}
	if !strings.Contains(out, spinner) {
		t.Error("expected active phase marked")
	}
}

func TestViewNotFound(t *testing.T) {
	m := NewWatchModel("", nil)
	m.NotFound = true

	out := m.View()
	if !strings.Contains(out, "stackpilot setup") {
		t.Error("expected setup hint for missing run")
	}
}

func TestViewShowsResources(t *testing.T) {
	m := NewWatchModel("demo", nil)
	st := runState(state.PhaseDeploy, state.StatusInProgress)
	st.Resources.RepoFullName = state.StrPtr("octocat/demo")
	st.Resources.VercelProjectID = state.StrPtr("prj_abc")
	m.State = st

	out := m.View()
	if !strings.Contains(out, "octocat/demo") {
		t.Error("expected repository in view")
	}
	if !strings.Contains(out, "prj_abc") {
		t.Error("expected hosting project in view")
	}
}

func TestViewPausedStatus(t *testing.T) {
	m := NewWatchModel("demo", nil)
	m.State = runState(state.PhaseAuth, state.StatusPausedAtAuth)

	out := m.View()
	if !strings.Contains(out, "Paused") {
		t.Error("expected paused status in header")
	}
	if !strings.Contains(out, warnMark) {
		t.Error("expected paused phase marked")
	}
}
