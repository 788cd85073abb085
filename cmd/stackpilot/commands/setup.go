package commands

import (
	"github.com/spf13/cobra"

	"github.com/stackpilot/stackpilot/cmd/stackpilot/handlers"
)

// Setup returns the command that drives the provisioning pipeline.
//
// Setup is resumable: progress is persisted after every phase, and
// re-running the command continues from the recorded phase instead of
// starting over.
//
// Optional flags:
//
//	--config, -c: Path to project configuration YAML file (default: auto-detect stackpilot.yaml)
func Setup() *cobra.Command {
	var (
		configPath string
		extraPath  string
	)

	cmd := &cobra.Command{
		Use:   "setup [project-name]",
		Short: "Provision and deploy the project end to end",
		Long: `Provision and deploy the project end to end.

Setup runs six phases in order: environment check, authentication,
scaffold, provision, environment wiring, deploy. Progress is saved after
each phase, so if a phase pauses for input or fails, re-running setup
resumes exactly where it stopped.

The project name comes from the first argument, or from stackpilot.yaml
in the current directory when no argument is given.

Examples:
  # Provision a project named my-app
  stackpilot setup my-app

  # Resume a paused or interrupted run
  stackpilot setup

  # Use an explicit configuration file
  stackpilot setup -c production.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return handlers.Setup(cmd.Context(), name, configPath, extraPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: stackpilot.yaml)")
	cmd.Flags().StringVar(&extraPath, "extra-path", "", "Directory consulted before PATH when locating tools")

	return cmd
}
