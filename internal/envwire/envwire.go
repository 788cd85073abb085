// Package envwire propagates backend credentials into the local env file
// and the hosting platform's environment store.
package envwire

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
	envFileName = ".env.local"
	wireTimeout = 2 * time.Minute
)

// Values carries the credentials to propagate.
type Values struct {
	SupabaseURL     string
	SupabaseAnonKey string
}

// Wirer propagates credentials to every place the app reads them from.
type Wirer interface {
	Wire(ctx context.Context, v Values) error
}

// CLIWirer writes the local env file and pushes variables through the
// vercel CLI.
type CLIWirer struct {
	runner runner.Runner
	sink   ui.Sink
	dir    string
}

// New returns a wirer operating in dir.
func New(r runner.Runner, sink ui.Sink, dir string) *CLIWirer {
	return &CLIWirer{runner: r, sink: sink, dir: dir}
}

// Wire writes .env.local and registers both variables for the production
// environment. The local file is rewritten wholesale so re-runs converge.
func (w *CLIWirer) Wire(ctx context.Context, v Values) error {
	content := fmt.Sprintf("NEXT_PUBLIC_SUPABASE_URL=%s\nNEXT_PUBLIC_SUPABASE_ANON_KEY=%s\n",
		v.SupabaseURL, v.SupabaseAnonKey)
	if err := os.WriteFile(filepath.Join(w.dir, envFileName), []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", envFileName, err)
	}
	w.sink.Success("wrote " + envFileName)

	vars := []struct{ name, value string }{
		{"NEXT_PUBLIC_SUPABASE_URL", v.SupabaseURL},
		{"NEXT_PUBLIC_SUPABASE_ANON_KEY", v.SupabaseAnonKey},
	}
	for _, ev := range vars {
		if err := w.pushVar(ctx, ev.name, ev.value); err != nil {
			return err
		}
	}
	return nil
}

// pushVar registers a single variable. vercel env add reads the value from
// stdin, so the line pipes it through printf. An existing variable is
// removed first so re-runs replace rather than fail.
func (w *CLIWirer) pushVar(ctx context.Context, name, value string) error {
	w.runner.Run(ctx, runner.Command{
		Bin:     "vercel",
		Args:    []string{"env", "rm", name, "production", "--yes"},
		Dir:     w.dir,
		Timeout: wireTimeout,
	})

	line := runner.CommandLine("printf", "%s", value) +
		" | " + runner.CommandLine("vercel", "env", "add", name, "production")
	res := w.runner.Run(ctx, runner.Command{Line: line, Dir: w.dir, Timeout: wireTimeout})
	if !res.OK {
		return fmt.Errorf("registering %s: %s", name, res.Output)
	}
	w.sink.Success("registered " + name)
	return nil
}
