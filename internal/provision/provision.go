// Package provision creates the run's remote resources: a GitHub
// repository and a Vercel hosting project.
//
// Creation is idempotent — every resource is inspected before it is
// created, and an existing resource is reused without registering a
// compensation, since reuse is not a creation this run owns. Each
// successful creation pushes its exact deletion command onto the rollback
// stack immediately afterwards, so the stack never holds a compensation
// for a resource that does not exist yet.
package provision

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/stackpilot/stackpilot/internal/rollback"
	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/ui"
)

// Inspection calls are local or a single cheap API round trip; creation
// calls reach remote services and may upload content, so they get
// materially longer timeouts.
const (
	inspectTimeout = 30 * time.Second
	createTimeout  = 3 * time.Minute
)

// vercelProjectIDPattern extracts the project identifier from CLI output.
var vercelProjectIDPattern = regexp.MustCompile(`prj_[A-Za-z0-9]+`)

// Result is the outcome of one provisioning attempt.
type Result struct {
	OK bool

	// RepoFullName is "owner/name" of the GitHub repository. Empty on
	// failure.
	RepoFullName string

	// VercelProjectID identifies the hosting project. Empty on failure.
	VercelProjectID string

	// Stack is the rollback stack after the attempt: the registered
	// compensations on success, empty after a failure drained it.
	Stack []string
}

// Provisioner performs the two-resource creation sequence.
type Provisioner struct {
	runner runner.Runner
	rb     *rollback.Manager
	sink   ui.Sink
	dir    string
}

// New returns a provisioner operating in the given project directory.
func New(r runner.Runner, rb *rollback.Manager, sink ui.Sink, dir string) *Provisioner {
	return &Provisioner{runner: r, rb: rb, sink: sink, dir: dir}
}

// Ensure creates the repository and hosting project for name, reusing
// whatever already exists. prior is the rollback stack persisted by an
// earlier attempt; its compensations are restored first so resources
// created before an interruption are still undone if this attempt fails.
// Any unrecoverable error aborts the attempt and rolls back everything
// registered so far.
func (p *Provisioner) Ensure(ctx context.Context, name string, prior []string) Result {
	p.rb.Restore(prior)

	repoFullName, err := p.ensureRepository(ctx, name)
	if err != nil {
		return p.fail(ctx, err)
	}

	projectID, err := p.ensureHostingProject(ctx, name)
	if err != nil {
		return p.fail(ctx, err)
	}

	return Result{
		OK:              true,
		RepoFullName:    repoFullName,
		VercelProjectID: projectID,
		Stack:           p.rb.Stack(),
	}
}

func (p *Provisioner) fail(ctx context.Context, err error) Result {
	p.sink.Error(err.Error())
	p.rb.Run(ctx)
	return Result{Stack: p.rb.Stack()}
}

// ensureRepository makes sure a local git repository exists, resolves the
// acting identity and creates (or reuses) the remote repository.
func (p *Provisioner) ensureRepository(ctx context.Context, name string) (string, error) {
	if res := p.inspect(ctx, "git", "rev-parse", "--is-inside-work-tree"); !res.OK {
		p.sink.Info("initializing git repository")
		if res := p.inspect(ctx, "git", "init"); !res.OK {
			return "", fmt.Errorf("git init failed: %s", res.Output)
		}
	}
	if res := p.inspect(ctx, "git", "branch", "-M", "main"); !res.OK {
		p.sink.Warn("could not set default branch: " + res.Output)
	}

	login := p.inspect(ctx, "gh", "api", "user", "-q", ".login")
	if !login.OK {
		return "", fmt.Errorf("could not resolve GitHub identity: %s", login.Output)
	}
	fullName := strings.TrimSpace(login.Output) + "/" + name

	if res := p.inspect(ctx, "gh", "repo", "view", fullName); res.OK {
		p.sink.Info("repository " + fullName + " already exists, reusing it")
	} else {
		if res := p.create(ctx, "gh", "repo", "create", fullName, "--private"); !res.OK {
			return "", fmt.Errorf("repository creation failed: %s", res.Output)
		}
		p.rb.Push(runner.CommandLine("gh", "repo", "delete", fullName, "--yes"))
		p.sink.Success("created repository " + fullName)
	}

	p.initialCommitAndPush(ctx, fullName)
	return fullName, nil
}

// initialCommitAndPush stages, commits and pushes the working tree.
// Every step is best-effort: a dirty or empty tree must not abort
// provisioning, so failures only warn.
func (p *Provisioner) initialCommitAndPush(ctx context.Context, fullName string) {
	if res := p.inspect(ctx, "git", "add", "-A"); !res.OK {
		p.sink.Warn("git add failed: " + res.Output)
	}
	if res := p.inspect(ctx, "git", "commit", "-m", "Initial commit"); !res.OK {
		p.sink.Warn("nothing to commit or commit failed: " + res.Output)
	}
	if res := p.inspect(ctx, "git", "remote", "get-url", "origin"); !res.OK {
		remote := "https://github.com/" + fullName + ".git"
		if res := p.inspect(ctx, "git", "remote", "add", "origin", remote); !res.OK {
			p.sink.Warn("could not add remote: " + res.Output)
		}
	}
	if res := p.create(ctx, "git", "push", "-u", "origin", "main"); !res.OK {
		p.sink.Warn("initial push failed: " + res.Output)
	}
}

// ensureHostingProject inspects, creates if absent and links the hosting
// project. "Already exists" on create and "already linked" on link are
// treated as success.
func (p *Provisioner) ensureHostingProject(ctx context.Context, name string) (string, error) {
	inspected := p.inspect(ctx, "vercel", "project", "inspect", name)
	if inspected.OK {
		p.sink.Info("hosting project " + name + " already exists, reusing it")
	} else {
		created := p.create(ctx, "vercel", "project", "add", name)
		switch {
		case created.OK:
			p.rb.Push(runner.CommandLine("vercel", "project", "rm", name, "--yes"))
			p.sink.Success("created hosting project " + name)
		case strings.Contains(strings.ToLower(created.Output), "already exists"):
			p.sink.Info("hosting project " + name + " already exists, reusing it")
		default:
			return "", fmt.Errorf("hosting project creation failed: %s", created.Output)
		}
	}

	linked := p.create(ctx, "vercel", "link", "--yes", "--project", name)
	if !linked.OK && !strings.Contains(strings.ToLower(linked.Output), "already linked") {
		return "", fmt.Errorf("could not link project directory: %s", linked.Output)
	}

	if id := vercelProjectIDPattern.FindString(inspected.Output); id != "" {
		return id, nil
	}
	if again := p.inspect(ctx, "vercel", "project", "inspect", name); again.OK {
		if id := vercelProjectIDPattern.FindString(again.Output); id != "" {
			return id, nil
		}
	}
	// The CLI does not always print the internal identifier; the project
	// name addresses the same resource in every later call.
	return name, nil
}

func (p *Provisioner) inspect(ctx context.Context, bin string, args ...string) runner.Result {
	return p.runner.Run(ctx, runner.Command{Bin: bin, Args: args, Dir: p.dir, Timeout: inspectTimeout})
}

func (p *Provisioner) create(ctx context.Context, bin string, args ...string) runner.Result {
	return p.runner.Run(ctx, runner.Command{Bin: bin, Args: args, Dir: p.dir, Timeout: createTimeout})
}
