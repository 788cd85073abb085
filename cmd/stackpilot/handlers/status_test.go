package handlers

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackpilot/stackpilot/internal/state"
	"github.com/stackpilot/stackpilot/internal/ui/tui"
)

func TestStatus_NoRun(t *testing.T) {
	saveAndRestoreFactories(t)
	useWorkspace(t)

	require.NoError(t, Status(context.Background(), false, false))
}

func TestStatus_TextAndJSON(t *testing.T) {
	saveAndRestoreFactories(t)
	dir := useWorkspace(t)

	store := state.NewStore(dir)
	_, err := store.EnsureInitialized(state.ProjectConfig{Name: "demo"})
	require.NoError(t, err)
	phase := state.PhaseProvision
	_, err = store.Patch(state.Patch{
		CurrentPhase: &phase,
		Resources:    &state.Resources{RepoFullName: state.StrPtr("octocat/demo")},
	})
	require.NoError(t, err)

	require.NoError(t, Status(context.Background(), false, false))
	require.NoError(t, Status(context.Background(), true, false))
}

func TestStatus_CorruptStateSuggestsReset(t *testing.T) {
	saveAndRestoreFactories(t)
	dir := useWorkspace(t)

	store := state.NewStore(dir)
	_, err := store.EnsureInitialized(state.ProjectConfig{Name: "demo"})
	require.NoError(t, err)
	require.NoError(t, writeCorruptState(store))

	err = Status(context.Background(), false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stackpilot reset")
}

func TestStatus_WatchStartsDashboard(t *testing.T) {
	saveAndRestoreFactories(t)
	dir := useWorkspace(t)

	_, err := state.NewStore(dir).EnsureInitialized(state.ProjectConfig{Name: "demo"})
	require.NoError(t, err)

	var models []tea.Model
	captureWatchModel(&models)

	require.NoError(t, Status(context.Background(), false, true))
	require.Len(t, models, 1)

	m, ok := models[0].(tui.Model)
	require.True(t, ok)
	assert.Equal(t, "demo", m.ProjectName)
}
