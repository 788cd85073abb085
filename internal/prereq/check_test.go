package prereq

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/ui"
)

func TestCheckFindsPresentTool(t *testing.T) {
	// "sh" exists on every platform these tests run on.
	tools := []Tool{{Name: "sh", Required: true}}

	results := Check(context.Background(), tools, "")

	require.Len(t, results.Results, 1)
	assert.True(t, results.Results[0].Found)
	assert.NotEmpty(t, results.Results[0].Path)
	assert.Empty(t, results.Missing)
	assert.False(t, results.HasErrors())
	assert.NoError(t, results.Error())
}

func TestCheckReportsMissingRequiredTool(t *testing.T) {
	tools := []Tool{{
		Name:       "definitely-not-a-real-tool-xyz",
		Required:   true,
		InstallURL: "https://example.com/install",
	}}

	results := Check(context.Background(), tools, "")

	require.Len(t, results.Missing, 1)
	assert.True(t, results.HasErrors())
	err := results.Error()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definitely-not-a-real-tool-xyz")
	assert.Contains(t, err.Error(), "https://example.com/install")
}

func TestCheckMissingOptionalToolIsNotAnError(t *testing.T) {
	tools := []Tool{{Name: "definitely-not-a-real-tool-xyz", Required: false}}

	results := Check(context.Background(), tools, "")

	require.Len(t, results.Missing, 1)
	assert.False(t, results.HasErrors())
	assert.NoError(t, results.Error())
}

func TestCheckConsultsExtraPathFirst(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix-only fixture")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "freshly-installed-tool")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	tools := []Tool{{Name: "freshly-installed-tool", Required: true}}
	results := Check(context.Background(), tools, dir)

	require.Len(t, results.Results, 1)
	assert.True(t, results.Results[0].Found)
	assert.Equal(t, bin, results.Results[0].Path)
}

func TestDefaultToolsOrder(t *testing.T) {
	tools := DefaultTools()

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}

	// Dependency order: npm before vercel, which installs through it.
	assert.Equal(t, []string{"git", "node", "npm", "gh", "vercel"}, names)
	for _, tool := range tools {
		assert.True(t, tool.Required, "%s should be required", tool.Name)
		assert.NotEmpty(t, tool.InstallURL)
	}
}

// installRunner records install command lines.
type installRunner struct {
	lines []string
	ok    bool
}

func (r *installRunner) Run(_ context.Context, cmd runner.Command) runner.Result {
	r.lines = append(r.lines, cmd.Line)
	return runner.Result{OK: r.ok}
}

func TestAutoInstallRunsInstallCommands(t *testing.T) {
	var buf bytes.Buffer
	ir := &installRunner{ok: true}

	missing := []Tool{
		{Name: "git", InstallURL: "https://git-scm.com"},
		{Name: "vercel", InstallCmd: "npm install -g vercel"},
	}
	AutoInstall(context.Background(), ir, missing, ui.NewPlainSink(&buf), "")

	// Manual-only tools are skipped with a pointer to instructions.
	require.Len(t, ir.lines, 1)
	assert.Equal(t, "npm install -g vercel", ir.lines[0])
	assert.Contains(t, buf.String(), "git must be installed manually")
	assert.Contains(t, buf.String(), "installed vercel")
}

func TestAutoInstallFailureIsBestEffort(t *testing.T) {
	var buf bytes.Buffer
	ir := &installRunner{ok: false}

	missing := []Tool{{Name: "vercel", InstallCmd: "npm install -g vercel"}}
	AutoInstall(context.Background(), ir, missing, ui.NewPlainSink(&buf), "")

	assert.Contains(t, buf.String(), "could not install vercel")
}
