package commands

import (
	"github.com/spf13/cobra"

	"github.com/stackpilot/stackpilot/cmd/stackpilot/handlers"
)

// Reset returns the command that wipes the persisted run.
func Reset() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the persisted run state and stored secrets",
		Long: `Delete the persisted run state and stored secrets.

Reset removes the .stackpilot directory of the current workspace: the
state file and every stored secret slot. Remote resources are NOT
touched; delete those through their platforms if needed.

The next setup invocation starts a fresh run from the first phase.

Example:
  stackpilot reset --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Reset(cmd.Context(), force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}
