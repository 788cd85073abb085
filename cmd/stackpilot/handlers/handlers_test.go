package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/prereq"
	"github.com/stackpilot/stackpilot/internal/state"
	"github.com/stackpilot/stackpilot/internal/ui"
)

// saveAndRestoreFactories snapshots every factory variable and restores
// it when the test finishes.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origWorkingDir := workingDir
	origLoadConfig := loadConfigFile
	origNewSink := newSink
	origNewPrompter := newPrompter
	origNewEngine := newEngine
	origRunWatch := runWatchProgram
	origCheckPrereqs := checkDefaultPrereqs
	origConfirmReset := confirmReset
	t.Cleanup(func() {
		workingDir = origWorkingDir
		loadConfigFile = origLoadConfig
		newSink = origNewSink
		newPrompter = origNewPrompter
		newEngine = origNewEngine
		runWatchProgram = origRunWatch
		checkDefaultPrereqs = origCheckPrereqs
		confirmReset = origConfirmReset
	})
}

// useWorkspace points the handlers at a fresh temp workspace.
func useWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	workingDir = func() (string, error) { return dir, nil }
	return dir
}

// quietFactories silences the operator channel in tests.
func quietFactories() {
	newSink = func() ui.Sink { return ui.NewPlainSink(os.Stdout) }
	newPrompter = func() ui.Prompter { return ui.NewFormPrompter() }
}

func writeWorkspaceConfig(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, config.DefaultConfigFilename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fakeEngine records the configuration the handler built.
type fakeEngine struct {
	dir       string
	cfg       config.Config
	extraPath string
	runs      int
	runErr    error
}

func (e *fakeEngine) Run(context.Context) error {
	e.runs++
	return e.runErr
}

func installFakeEngine() *fakeEngine {
	eng := &fakeEngine{}
	newEngine = func(dir string, cfg config.Config, _ ui.Sink, _ ui.Prompter, extraPath string) pipelineRunner {
		eng.dir = dir
		eng.cfg = cfg
		eng.extraPath = extraPath
		return eng
	}
	return eng
}

// watch seam fake
func captureWatchModel(models *[]tea.Model) {
	runWatchProgram = func(m tea.Model) error {
		*models = append(*models, m)
		return nil
	}
}

func writeCorruptState(store *state.Store) error {
	return os.WriteFile(store.Path(), []byte("{not json"), 0o600)
}

// prereq seam fake
func stubPrereqs(results *prereq.CheckResults) {
	checkDefaultPrereqs = func(context.Context, string) *prereq.CheckResults {
		return results
	}
}
