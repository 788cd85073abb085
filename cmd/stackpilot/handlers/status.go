package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackpilot/stackpilot/internal/state"
	"github.com/stackpilot/stackpilot/internal/ui/tui"
)

// runWatchProgram starts the live dashboard (for testing injection).
var runWatchProgram = func(m tea.Model) error {
	_, err := tea.NewProgram(m).Run()
	return err
}

// statusReport is the JSON shape of `status --json`.
type statusReport struct {
	Project       string          `json:"project"`
	RunID         string          `json:"run_id"`
	Status        state.Status    `json:"status"`
	CurrentPhase  state.Phase     `json:"current_phase"`
	Resources     state.Resources `json:"resources"`
	RollbackDepth int             `json:"rollback_depth"`
}

// phaseNames maps each phase to its display label, in forward order.
var phaseNames = []struct {
	Phase state.Phase
	Label string
}{
	{state.PhaseEnvCheck, "Environment Check"},
	{state.PhaseAuth, "Authentication"},
	{state.PhaseScaffold, "Scaffold"},
	{state.PhaseProvision, "Provision"},
	{state.PhaseEnvWiring, "Environment Wiring"},
	{state.PhaseDeploy, "Deploy"},
}

// Status reports the persisted run state of the current workspace.
func Status(_ context.Context, jsonOut, watch bool) error {
	dir, err := workingDir()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	store := state.NewStore(dir)

	if watch {
		name := ""
		if st, err := store.Read(); err == nil {
			name = st.Config.Name
		}
		return runWatchProgram(tui.NewWatchModel(name, store.Read))
	}

	st, err := store.Read()
	switch {
	case errors.Is(err, state.ErrNotFound):
		fmt.Println("no run in this workspace, run 'stackpilot setup' to start one")
		return nil
	case err != nil:
		var pe *state.ParseError
		if errors.As(err, &pe) {
			return fmt.Errorf("state file is corrupt: %w\nRun 'stackpilot reset' to start over", err)
		}
		return err
	}

	if jsonOut {
		return printStatusJSON(st)
	}
	printStatusText(st)
	return nil
}

func printStatusJSON(st *state.RunState) error {
	report := statusReport{
		Project:       st.Config.Name,
		RunID:         st.RunID,
		Status:        st.Status,
		CurrentPhase:  st.CurrentPhase,
		Resources:     st.Resources,
		RollbackDepth: len(st.RollbackStack),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printStatusText(st *state.RunState) {
	fmt.Printf("stackpilot: %s (%s)\n\n", st.Config.Name, st.Status)

	current := -1
	for i, p := range phaseNames {
		if p.Phase == st.CurrentPhase {
			current = i
			break
		}
	}
	for i, p := range phaseNames {
		mark := "[  ]"
		switch {
		case i < current || (i == current && st.Status == state.StatusComplete):
			mark = "[OK]"
		case i == current && st.Status == state.StatusFailed:
			mark = "[!!]"
		case i == current && st.Status == state.StatusPausedAtAuth:
			mark = "[??]"
		case i == current:
			mark = "[..]"
		}
		fmt.Printf("  %s %s\n", mark, p.Label)
	}

	if st.Resources.RepoFullName != nil {
		fmt.Printf("\n  Repository:      %s\n", *st.Resources.RepoFullName)
	}
	if st.Resources.VercelProjectID != nil {
		fmt.Printf("  Hosting project: %s\n", *st.Resources.VercelProjectID)
	}
	if st.Resources.SupabaseRef != nil {
		fmt.Printf("  Backend ref:     %s\n", *st.Resources.SupabaseRef)
	}

	switch st.Status {
	case state.StatusPausedAtAuth:
		fmt.Println("\nrun 'stackpilot setup' to resume")
	case state.StatusFailed:
		fmt.Println("\nrun 'stackpilot reset' to start over")
	}
}
