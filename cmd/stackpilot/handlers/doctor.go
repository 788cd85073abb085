package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/stackpilot/stackpilot/internal/prereq"
	"github.com/stackpilot/stackpilot/internal/state"
)

// checkDefaultPrereqs runs the tool-presence checks (for testing injection).
var checkDefaultPrereqs = prereq.CheckDefault

// doctorReport is the JSON shape of `doctor --json`.
type doctorReport struct {
	Tools []toolReport `json:"tools"`
	Run   runReport    `json:"run"`
}

type toolReport struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Found    bool   `json:"found"`
	Version  string `json:"version,omitempty"`
}

type runReport struct {
	Present      bool         `json:"present"`
	Corrupt      bool         `json:"corrupt,omitempty"`
	Status       state.Status `json:"status,omitempty"`
	CurrentPhase state.Phase  `json:"current_phase,omitempty"`
}

// Doctor checks the required CLI tools and inspects the persisted run
// state. It returns an error when required tools are missing, so the
// exit code is useful in scripts.
func Doctor(ctx context.Context, jsonOut bool) error {
	dir, err := workingDir()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	results := checkDefaultPrereqs(ctx, "")
	run := inspectRun(dir)

	if jsonOut {
		if err := printDoctorJSON(results, run); err != nil {
			return err
		}
		return results.Error()
	}

	printDoctorText(results, run)
	return results.Error()
}

func inspectRun(dir string) runReport {
	st, err := state.NewStore(dir).Read()
	switch {
	case errors.Is(err, state.ErrNotFound):
		return runReport{}
	case err != nil:
		return runReport{Present: true, Corrupt: true}
	default:
		return runReport{Present: true, Status: st.Status, CurrentPhase: st.CurrentPhase}
	}
}

func printDoctorJSON(results *prereq.CheckResults, run runReport) error {
	report := doctorReport{Run: run}
	for _, r := range results.Results {
		report.Tools = append(report.Tools, toolReport{
			Name:     r.Tool.Name,
			Required: r.Tool.Required,
			Found:    r.Found,
			Version:  r.Version,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printDoctorText(results *prereq.CheckResults, run runReport) {
	fmt.Println("Tools:")
	for _, r := range results.Results {
		switch {
		case r.Found:
			fmt.Printf("  [OK] %s %s\n", r.Tool.Name, r.Version)
		case r.Tool.Required:
			fmt.Printf("  [!!] %s missing (install: %s)\n", r.Tool.Name, r.Tool.InstallURL)
		default:
			fmt.Printf("  [??] %s missing (optional)\n", r.Tool.Name)
		}
	}

	fmt.Println("\nRun state:")
	switch {
	case run.Corrupt:
		fmt.Println("  [!!] state file is corrupt, run 'stackpilot reset'")
	case !run.Present:
		fmt.Println("  [  ] no run in this workspace")
	default:
		fmt.Printf("  [OK] %s at %s\n", run.Status, run.CurrentPhase)
	}
}
