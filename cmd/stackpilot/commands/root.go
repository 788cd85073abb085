// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the stackpilot CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stackpilot",
		Short: "Provision and deploy a full-stack app on GitHub, Vercel and Supabase",
	}

	// Core commands
	cmd.AddCommand(Setup())
	cmd.AddCommand(Status())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Reset())

	// Utility commands
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
