// Package deploy pushes the linked project to production hosting.
package deploy

import (
	"context"
	"strings"
	"time"

	"github.com/stackpilot/stackpilot/internal/runner"
)

const deployTimeout = 10 * time.Minute

// Deployer performs a production deployment and reports the raw output
// for downstream analysis.
type Deployer interface {
	Deploy(ctx context.Context) (ok bool, lines []string)
}

// CLIDeployer deploys through the vercel CLI.
type CLIDeployer struct {
	runner runner.Runner
	dir    string
}

// New returns a deployer operating in dir.
func New(r runner.Runner, dir string) *CLIDeployer {
	return &CLIDeployer{runner: r, dir: dir}
}

// Deploy runs a production deployment. The output lines are returned
// unfiltered in both outcomes so the caller can extract URLs on success
// and classify failures otherwise.
func (d *CLIDeployer) Deploy(ctx context.Context) (bool, []string) {
	res := d.runner.Run(ctx, runner.Command{
		Bin:     "vercel",
		Args:    []string{"deploy", "--prod", "--yes"},
		Dir:     d.dir,
		Timeout: deployTimeout,
	})
	return res.OK, splitLines(res.Output)
}

func splitLines(out string) []string {
	out = strings.ReplaceAll(out, "\r\n", "\n")
	out = strings.Trim(out, "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}
