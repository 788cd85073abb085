// Package scaffold materializes the project skeleton and installs its
// dependencies by shelling out to the frontend toolchain.
package scaffold

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/ui"
)

const (
	scaffoldTimeout = 10 * time.Minute
	installTimeout  = 10 * time.Minute
)

// Scaffolder creates the project skeleton and installs dependencies.
type Scaffolder interface {
	Scaffold(ctx context.Context, name string) error
	InstallDependencies(ctx context.Context) error
}

// NextScaffolder scaffolds a Next.js app wired for Supabase.
type NextScaffolder struct {
	runner runner.Runner
	sink   ui.Sink
	dir    string
}

// New returns a scaffolder operating in dir.
func New(r runner.Runner, sink ui.Sink, dir string) *NextScaffolder {
	return &NextScaffolder{runner: r, sink: sink, dir: dir}
}

// Scaffold generates the project skeleton. An existing package.json means
// a prior run already scaffolded; re-runs skip the generator.
func (s *NextScaffolder) Scaffold(ctx context.Context, name string) error {
	if _, err := os.Stat(filepath.Join(s.dir, "package.json")); err == nil {
		s.sink.Info("project already scaffolded, skipping generator")
		return nil
	}

	s.sink.Info("scaffolding Next.js project " + name)
	res := s.runner.Run(ctx, runner.Command{
		Bin: "npx",
		Args: []string{
			"create-next-app@latest", ".",
			"--typescript", "--eslint", "--app", "--use-npm", "--yes",
		},
		Dir:     s.dir,
		Timeout: scaffoldTimeout,
	})
	if !res.OK {
		return fmt.Errorf("scaffolding failed: %s", res.Output)
	}
	return nil
}

// InstallDependencies installs the project dependencies plus the Supabase
// client library.
func (s *NextScaffolder) InstallDependencies(ctx context.Context) error {
	res := s.runner.Run(ctx, runner.Command{
		Bin:     "npm",
		Args:    []string{"install"},
		Dir:     s.dir,
		Timeout: installTimeout,
	})
	if !res.OK {
		return fmt.Errorf("dependency installation failed: %s", res.Output)
	}

	res = s.runner.Run(ctx, runner.Command{
		Bin:     "npm",
		Args:    []string{"install", "@supabase/supabase-js"},
		Dir:     s.dir,
		Timeout: installTimeout,
	})
	if !res.OK {
		return fmt.Errorf("supabase client installation failed: %s", res.Output)
	}
	return nil
}
