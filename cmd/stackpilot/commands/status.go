package commands

import (
	"github.com/spf13/cobra"

	"github.com/stackpilot/stackpilot/cmd/stackpilot/handlers"
)

// Status returns the command that reports the current run state.
func Status() *cobra.Command {
	var (
		jsonOut bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the current provisioning run",
		Long: `Show the state of the current provisioning run.

Reads the persisted run state from the current workspace and prints the
phase checklist, provisioned resources, and overall status.

Examples:
  # One-shot status
  stackpilot status

  # Machine-readable output
  stackpilot status --json

  # Live dashboard that refreshes until the run completes
  stackpilot status --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), jsonOut, watch)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output status as JSON")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Watch the run in a live dashboard")

	return cmd
}
