// Package main is the entry point for the stackpilot CLI.
//
// stackpilot takes a bare project name to a deployed full-stack
// application: it verifies local tooling, authenticates against GitHub,
// Vercel and Supabase, scaffolds a Next.js project, provisions remote
// resources, wires environment configuration, and deploys. Progress is
// persisted after every phase, so re-running setup resumes where the
// previous invocation stopped.
//
// Commands: setup, status, doctor, reset, version, completion.
//
// For detailed usage information, run:
//
//	stackpilot --help
package main

import (
	"fmt"
	"os"

	"github.com/stackpilot/stackpilot/cmd/stackpilot/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
