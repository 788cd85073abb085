package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/state"
)

func TestSetup_NameArgument(t *testing.T) {
	saveAndRestoreFactories(t)
	dir := useWorkspace(t)
	quietFactories()
	eng := installFakeEngine()

	require.NoError(t, Setup(context.Background(), "my-app", "", ""))

	assert.Equal(t, dir, eng.dir)
	assert.Equal(t, "my-app", eng.cfg.Name)
	assert.Equal(t, config.FrontendNextJS, eng.cfg.Frontend, "defaults applied")
	assert.Equal(t, 1, eng.runs)
}

func TestSetup_WorkspaceConfigFile(t *testing.T) {
	saveAndRestoreFactories(t)
	dir := useWorkspace(t)
	quietFactories()
	eng := installFakeEngine()
	writeWorkspaceConfig(t, dir, "name: from-yaml\n")

	require.NoError(t, Setup(context.Background(), "", "", ""))

	assert.Equal(t, "from-yaml", eng.cfg.Name)
}

func TestSetup_ArgumentOverridesConfigFile(t *testing.T) {
	saveAndRestoreFactories(t)
	dir := useWorkspace(t)
	quietFactories()
	eng := installFakeEngine()
	writeWorkspaceConfig(t, dir, "name: from-yaml\n")

	require.NoError(t, Setup(context.Background(), "from-arg", "", ""))

	assert.Equal(t, "from-arg", eng.cfg.Name)
}

func TestSetup_ResumeUsesRecordedIdentity(t *testing.T) {
	saveAndRestoreFactories(t)
	dir := useWorkspace(t)
	quietFactories()
	eng := installFakeEngine()

	_, err := state.NewStore(dir).EnsureInitialized(state.ProjectConfig{Name: "recorded"})
	require.NoError(t, err)

	require.NoError(t, Setup(context.Background(), "", "", ""))

	assert.Equal(t, "recorded", eng.cfg.Name)
}

func TestSetup_MissingNameFails(t *testing.T) {
	saveAndRestoreFactories(t)
	useWorkspace(t)
	quietFactories()
	eng := installFakeEngine()

	err := Setup(context.Background(), "", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project name required")
	assert.Equal(t, 0, eng.runs)
}

func TestSetup_InvalidNameFails(t *testing.T) {
	saveAndRestoreFactories(t)
	useWorkspace(t)
	quietFactories()
	eng := installFakeEngine()

	err := Setup(context.Background(), "Bad_Name", "", "")
	require.Error(t, err)
	assert.Equal(t, 0, eng.runs)
}

func TestSetup_ThreadsExtraPath(t *testing.T) {
	saveAndRestoreFactories(t)
	useWorkspace(t)
	quietFactories()
	eng := installFakeEngine()

	require.NoError(t, Setup(context.Background(), "my-app", "", "/opt/tools/bin"))

	assert.Equal(t, "/opt/tools/bin", eng.extraPath)
}

func TestSetup_ExplicitConfigPath(t *testing.T) {
	saveAndRestoreFactories(t)
	useWorkspace(t)
	quietFactories()
	eng := installFakeEngine()
	loadConfigFile = func(path string) (*config.Config, error) {
		assert.Equal(t, "prod.yaml", path)
		return &config.Config{
			Name:     "prod-app",
			Frontend: config.FrontendNextJS,
			Backend:  config.BackendSupabase,
		}, nil
	}

	require.NoError(t, Setup(context.Background(), "", "prod.yaml", ""))

	assert.Equal(t, "prod-app", eng.cfg.Name)
}
