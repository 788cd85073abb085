package commands

import (
	"github.com/spf13/cobra"

	"github.com/stackpilot/stackpilot/cmd/stackpilot/handlers"
)

// Doctor returns the command that diagnoses the local environment.
func Doctor() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose local tooling and the persisted run state",
		Long: `Diagnose local tooling and the persisted run state.

Checks that the required CLI tools (git, node, npm, gh, vercel) are
installed, and inspects the state file of the current workspace for a
resumable run.

Example:
  stackpilot doctor`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output diagnosis as JSON")

	return cmd
}
