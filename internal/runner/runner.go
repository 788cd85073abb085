// Package runner executes external commands with timeouts and captured output.
//
// All process execution in stackpilot goes through this package: structured
// invocations (a binary plus arguments) and prebuilt shell command lines
// (rollback compensations) share the same execution path. The runner never
// retries; retry policy belongs to callers.
package runner

import (
	"context"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// DefaultTimeout applies when a Command does not set one.
const DefaultTimeout = 60 * time.Second

// Command describes a single external process invocation.
type Command struct {
	// Bin is the program to run. Ignored when Line is set.
	Bin string

	// Args are the program arguments. Arguments containing shell
	// metacharacters are quoted before execution.
	Args []string

	// Line is a prebuilt shell command line, executed verbatim.
	// Used for rollback compensations, which are stored as strings.
	Line string

	// Dir is the working directory. Empty means the process default.
	Dir string

	// Timeout bounds the process lifetime. Zero means DefaultTimeout.
	Timeout time.Duration

	// ExtraPath is prepended to PATH for this invocation only, so a
	// freshly installed tool is discoverable without mutating the
	// process environment.
	ExtraPath string
}

// Result is the outcome of a command execution.
type Result struct {
	// OK is false if the process exited non-zero, was killed by the
	// timeout, or failed to start.
	OK bool

	// Output is stdout and stderr combined and trimmed.
	Output string
}

// Runner executes commands. Implemented by Exec; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// Exec runs commands through the system shell.
type Exec struct{}

// New returns a shell-backed runner.
func New() *Exec {
	return &Exec{}
}

// Run executes the command and captures its combined output.
// Exactly one child process is spawned per call.
func (e *Exec) Run(ctx context.Context, cmd Command) Result {
	line := cmd.Line
	if line == "" {
		line = CommandLine(cmd.Bin, cmd.Args...)
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 - command lines are composed from quoted arguments or
	// compensation strings this tool recorded itself
	proc := exec.CommandContext(runCtx, "/bin/sh", "-c", line)
	proc.Dir = cmd.Dir
	if cmd.ExtraPath != "" {
		proc.Env = envWithPath(os.Environ(), cmd.ExtraPath)
	}

	// CombinedOutput blocks on the output pipe even after the context
	// kills the shell; WaitDelay closes the pipe so descendants cannot
	// hold the call past the timeout.
	proc.WaitDelay = time.Second

	out, err := proc.CombinedOutput()
	return Result{
		OK:     err == nil,
		Output: strings.TrimSpace(string(out)),
	}
}

// plainArg matches arguments that need no quoting.
var plainArg = regexp.MustCompile(`^[A-Za-z0-9._:/@-]+$`)

// quoteEscaper neutralizes the characters the shell still interprets
// inside double quotes.
var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)

// CommandLine composes a shell command line from a program and arguments.
// Arguments containing characters outside [A-Za-z0-9._:/@-] are wrapped in
// double quotes with quotes, backslashes, backticks and dollar signs
// escaped, so spaces and metacharacters are passed literally rather than
// reinterpreted by the shell.
func CommandLine(bin string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(bin))
	for _, a := range args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s != "" && plainArg.MatchString(s) {
		return s
	}
	return `"` + quoteEscaper.Replace(s) + `"`
}

// envWithPath returns env with dir prepended to the PATH entry.
func envWithPath(env []string, dir string) []string {
	out := make([]string, 0, len(env))
	found := false
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			out = append(out, "PATH="+dir+string(os.PathListSeparator)+strings.TrimPrefix(kv, "PATH="))
			found = true
			continue
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "PATH="+dir)
	}
	return out
}
