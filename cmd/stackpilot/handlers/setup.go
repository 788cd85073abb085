// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/orchestrator"
	"github.com/stackpilot/stackpilot/internal/state"
	"github.com/stackpilot/stackpilot/internal/ui"
)

// pipelineRunner interface for testing - matches orchestrator.Engine.
type pipelineRunner interface {
	Run(ctx context.Context) error
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// workingDir resolves the workspace directory.
	workingDir = os.Getwd

	// loadConfigFile loads config from file (for testing injection).
	loadConfigFile = config.Load

	// newSink creates the operator-facing progress sink.
	newSink = func() ui.Sink { return ui.NewConsoleSink() }

	// newPrompter creates the interactive prompter.
	newPrompter = func() ui.Prompter { return ui.NewFormPrompter() }

	// newEngine creates the phase orchestrator.
	newEngine = func(dir string, cfg config.Config, sink ui.Sink, prompter ui.Prompter, extraPath string) pipelineRunner {
		eng := orchestrator.New(dir, cfg, sink, prompter)
		eng.SetExtraPath(extraPath)
		return eng
	}
)

// Setup runs the provisioning pipeline for the current workspace.
//
// The project identity comes from, in order of precedence: the name
// argument, an explicit --config file, stackpilot.yaml in the workspace,
// or the identity recorded by a previous run. Invocation is resume: a
// run paused or interrupted earlier continues from its recorded phase.
// extraPath is an additional directory consulted before PATH for tool
// lookups, so tools installed during the run are found without mutating
// the process environment.
func Setup(ctx context.Context, name, configPath, extraPath string) error {
	dir, err := workingDir()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	cfg, err := resolveConfig(dir, name, configPath)
	if err != nil {
		return err
	}

	return newEngine(dir, *cfg, newSink(), newPrompter(), extraPath).Run(ctx)
}

// resolveConfig determines the project configuration for this run.
func resolveConfig(dir, name, configPath string) (*config.Config, error) {
	var cfg *config.Config

	switch {
	case configPath != "":
		loaded, err := loadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		defaultPath := config.DefaultConfigPath(dir)
		if _, err := os.Stat(defaultPath); err == nil {
			loaded, err := loadConfigFile(defaultPath)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		} else {
			cfg = &config.Config{Name: name}
		}
	}

	if name != "" {
		cfg.Name = name
	}
	if cfg.Name == "" {
		// A previous run already recorded the identity.
		if st, err := state.NewStore(dir).Read(); err == nil && st.Config.Name != "" {
			cfg.Name = st.Config.Name
		}
	}
	if cfg.Name == "" {
		return nil, errors.New("project name required: pass it as an argument or create " + filepath.Base(config.DefaultConfigPath(dir)))
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
