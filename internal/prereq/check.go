// Package prereq checks for required client tools and attempts best-effort
// auto-installation of the ones that can be installed unattended.
package prereq

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/ui"
	"github.com/stackpilot/stackpilot/internal/util/async"
)

// installTimeout bounds one auto-install attempt.
const installTimeout = 5 * time.Minute

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string

	// InstallCmd is a best-effort unattended install command. Empty when
	// the tool can only be installed manually.
	InstallCmd string
}

// DefaultTools returns the tools the pipeline needs, in dependency order:
// installers earlier in the list are prerequisites of later entries
// (vercel installs through npm, which ships with node).
func DefaultTools() []Tool {
	return []Tool{
		{
			Name:        "git",
			Required:    true,
			Description: "Required for version control and pushing the scaffolded project",
			InstallURL:  "https://git-scm.com/downloads",
		},
		{
			Name:        "node",
			Required:    true,
			Description: "Required for running the frontend toolchain",
			InstallURL:  "https://nodejs.org/en/download",
		},
		{
			Name:        "npm",
			Required:    true,
			Description: "Required for dependency installation and CLI installs",
			InstallURL:  "https://nodejs.org/en/download",
		},
		{
			Name:        "gh",
			Required:    true,
			Description: "Required for creating and managing the GitHub repository",
			InstallURL:  "https://cli.github.com/",
		},
		{
			Name:        "vercel",
			Required:    true,
			Description: "Required for hosting project management and deployment",
			InstallURL:  "https://vercel.com/docs/cli",
			InstallCmd:  "npm install -g vercel",
		},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// Check verifies that the specified tools are available. The per-tool
// lookups run as a concurrent group. extraPath is an additional search
// directory consulted before PATH, so a tool installed earlier in this run
// is discoverable without mutating the process environment.
func Check(ctx context.Context, tools []Tool, extraPath string) *CheckResults {
	results := &CheckResults{Results: make([]CheckResult, len(tools))}

	tasks := make([]async.Task, len(tools))
	for i, tool := range tools {
		tasks[i] = async.Task{
			Name: tool.Name,
			Func: func(context.Context) error {
				result := CheckResult{Tool: tool}
				if path, ok := lookTool(tool.Name, extraPath); ok {
					result.Found = true
					result.Path = path
					result.Version = toolVersion(path)
				}
				results.Results[i] = result
				return nil
			},
		}
	}
	async.RunGroup(ctx, tasks)

	for _, res := range results.Results {
		if !res.Found {
			results.Missing = append(results.Missing, res.Tool)
		}
	}
	return results
}

// CheckDefault checks the default required tools.
func CheckDefault(ctx context.Context, extraPath string) *CheckResults {
	return Check(ctx, DefaultTools(), extraPath)
}

// AutoInstall attempts to install the missing tools that carry an install
// command, in the fixed dependency order of the missing slice. Failures
// are reported and skipped; the caller re-checks afterwards.
func AutoInstall(ctx context.Context, r runner.Runner, missing []Tool, sink ui.Sink, extraPath string) {
	for _, tool := range missing {
		if tool.InstallCmd == "" {
			sink.Warn(fmt.Sprintf("%s must be installed manually: %s", tool.Name, tool.InstallURL))
			continue
		}
		sink.Info(fmt.Sprintf("installing %s (%s)", tool.Name, tool.InstallCmd))
		res := r.Run(ctx, runner.Command{
			Line:      tool.InstallCmd,
			Timeout:   installTimeout,
			ExtraPath: extraPath,
		})
		if res.OK {
			sink.Success("installed " + tool.Name)
		} else {
			sink.Warn(fmt.Sprintf("could not install %s: %s", tool.Name, res.Output))
		}
	}
}

// lookTool resolves a binary, consulting extraPath before PATH.
func lookTool(name, extraPath string) (string, bool) {
	if extraPath != "" {
		candidate := filepath.Join(extraPath, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return path, true
}

// toolVersion attempts to get the version of a tool, best effort.
func toolVersion(path string) string {
	versionFlags := []string{"--version", "version", "-v"}

	for _, flag := range versionFlags {
		// #nosec G204 - path comes from trusted Tool definitions, not user input
		cmd := exec.Command(path, flag)
		output, err := cmd.Output()
		if err == nil {
			lines := strings.Split(string(output), "\n")
			if len(lines) > 0 {
				return strings.TrimSpace(lines[0])
			}
		}
	}
	return ""
}
