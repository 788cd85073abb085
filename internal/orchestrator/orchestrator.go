// Package orchestrator sequences the six provisioning phases, persists
// progress after each, and resumes from the recorded phase on every
// invocation.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/deploy"
	"github.com/stackpilot/stackpilot/internal/deploylog"
	"github.com/stackpilot/stackpilot/internal/envwire"
	"github.com/stackpilot/stackpilot/internal/prereq"
	"github.com/stackpilot/stackpilot/internal/provision"
	"github.com/stackpilot/stackpilot/internal/rollback"
	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/scaffold"
	"github.com/stackpilot/stackpilot/internal/secrets"
	"github.com/stackpilot/stackpilot/internal/state"
	"github.com/stackpilot/stackpilot/internal/ui"
	"github.com/stackpilot/stackpilot/internal/verify"
)

// Test seams for the tool-presence collaborators.
var (
	checkTools  = prereq.Check
	autoInstall = prereq.AutoInstall
)

// Verifier is the slice of the credential verifier the engine uses.
type Verifier interface {
	ProjectEndpoint(ctx context.Context, baseURL, anonKey string) verify.Result
	SupabaseToken(ctx context.Context, token string) verify.Result
	All(ctx context.Context, vercelToken, projectURL, anonKey string) verify.AllResults
}

// Provisioner creates the remote repository and hosting project. The
// second argument carries the rollback stack persisted by an earlier
// attempt.
type Provisioner interface {
	Ensure(ctx context.Context, name string, prior []string) provision.Result
}

// Engine drives one provisioning run against one workspace.
type Engine struct {
	store    *state.Store
	secrets  *secrets.Store
	runner   runner.Runner
	sink     ui.Sink
	prompter ui.Prompter

	verifier    Verifier
	provisioner Provisioner
	scaffolder  scaffold.Scaffolder
	wirer       envwire.Wirer
	deployer    deploy.Deployer

	cfg       config.Config
	extraPath string
}

// New wires an engine with production collaborators for dir.
func New(dir string, cfg config.Config, sink ui.Sink, prompter ui.Prompter) *Engine {
	r := runner.New()
	e := &Engine{
		store:       state.NewStore(dir),
		secrets:     secrets.NewStore(dir),
		runner:      r,
		sink:        sink,
		prompter:    prompter,
		verifier:    verify.New(r),
		provisioner: provision.New(r, rollback.NewManager(r, sink), sink, dir),
		scaffolder:  scaffold.New(r, sink, dir),
		wirer:       envwire.New(r, sink, dir),
		deployer:    deploy.New(r, dir),
		cfg:         cfg,
	}
	e.store.SetWarnFunc(func(format string, args ...any) {
		sink.Warn(fmt.Sprintf(format, args...))
	})
	return e
}

// SetExtraPath adds a directory consulted before PATH during tool lookup
// and auto-install.
func (e *Engine) SetExtraPath(p string) { e.extraPath = p }

// control tells the run loop what to do after a phase handler returns.
type control int

const (
	// continueRun re-dispatches on the freshly persisted phase.
	continueRun control = iota
	// stopRun ends this invocation; a later invocation resumes.
	stopRun
)

// Run reads the current phase and executes handlers forward until the run
// completes, pauses for operator input, or fails. Invocation is resume:
// there is no separate resume path. Phase failures become state
// transitions plus diagnostics; only state persistence problems surface
// as errors.
func (e *Engine) Run(ctx context.Context) error {
	st, err := e.store.EnsureInitialized(state.ProjectConfig{
		Name:     e.cfg.Name,
		Frontend: e.cfg.Frontend,
		Backend:  e.cfg.Backend,
	})
	if err != nil {
		return err
	}
	if st.Status == state.StatusFailed {
		e.sink.Error("the previous run failed during provisioning")
		e.sink.Info("run stackpilot reset to clear it, then re-run setup")
		return nil
	}
	if st.CurrentPhase != state.PhaseEnvCheck {
		e.sink.Info(fmt.Sprintf("resuming run %s at %s", st.RunID, st.CurrentPhase))
	}

	for {
		var ctl control
		var herr error

		switch st.CurrentPhase {
		case state.PhaseEnvCheck:
			ctl, herr = e.phaseEnvCheck(ctx)
		case state.PhaseAuth:
			ctl, herr = e.phaseAuth(ctx, st)
		case state.PhaseScaffold:
			ctl, herr = e.phaseScaffold(ctx, st)
		case state.PhaseProvision:
			ctl, herr = e.phaseProvision(ctx, st)
		case state.PhaseEnvWiring:
			ctl, herr = e.phaseEnvWiring(ctx, st)
		case state.PhaseDeploy:
			if st.Status == state.StatusComplete {
				e.sink.Success("run already complete, nothing to do")
				return nil
			}
			ctl, herr = e.phaseDeploy(ctx, st)
		default:
			return fmt.Errorf("unknown phase %q in state file", st.CurrentPhase)
		}

		if herr != nil {
			return herr
		}
		if ctl == stopRun {
			return nil
		}
		if st, err = e.store.Read(); err != nil {
			return err
		}
	}
}

// advance persists the next phase with status in_progress, applying any
// additional fields from p.
func (e *Engine) advance(next state.Phase, p state.Patch) error {
	status := state.StatusInProgress
	p.Status = &status
	p.CurrentPhase = &next
	_, err := e.store.Patch(p)
	return err
}

// pause persists paused_at_auth without moving the phase and prints the
// operator's next step.
func (e *Engine) pause(nextStep string) error {
	status := state.StatusPausedAtAuth
	if _, err := e.store.Patch(state.Patch{Status: &status}); err != nil {
		return err
	}
	e.sink.Info(nextStep)
	return nil
}

// phaseEnvCheck verifies the required CLI tools, attempting a best-effort
// install of anything missing before giving up.
func (e *Engine) phaseEnvCheck(ctx context.Context) (control, error) {
	e.sink.Step("checking local tooling")

	results := checkTools(ctx, prereq.DefaultTools(), e.extraPath)
	if results.HasErrors() {
		autoInstall(ctx, e.runner, results.Missing, e.sink, e.extraPath)
		results = checkTools(ctx, prereq.DefaultTools(), e.extraPath)
	}
	if err := results.Error(); err != nil {
		e.sink.Error(err.Error())
		return stopRun, e.pause("install the missing tools, then re-run setup")
	}
	for _, r := range results.Results {
		if r.Found {
			e.sink.Success(r.Tool.Name + " " + r.Version)
		}
	}
	return continueRun, e.advance(state.PhaseAuth, state.Patch{})
}

// phaseAuth verifies platform credentials, silently re-using stored ones
// when they still work and collecting fresh ones otherwise. It is a
// re-entrant gate: every invocation re-runs it until all three platforms
// verify.
func (e *Engine) phaseAuth(ctx context.Context, st *state.RunState) (control, error) {
	e.sink.Step("verifying platform credentials")

	creds := st.Credentials
	backendOK := false
	if creds.SupabaseURL != nil && creds.SupabaseAnonKey != nil {
		if res := e.verifier.ProjectEndpoint(ctx, *creds.SupabaseURL, *creds.SupabaseAnonKey); res.OK {
			backendOK = true
			e.sink.Success("stored supabase credentials still valid")
		} else {
			e.sink.Warn("stored supabase credentials no longer verify, collecting fresh ones")
			if _, err := e.store.Patch(state.Patch{ClearCredentials: true}); err != nil {
				return stopRun, err
			}
			creds = state.Credentials{}
		}
	}

	if !backendOK {
		collected, cancelled, err := e.collectCredentials(ctx)
		if err != nil {
			return stopRun, err
		}
		if cancelled {
			e.sink.Warn("credential entry cancelled")
			return stopRun, e.pause("re-run setup when you have the credentials at hand")
		}
		if _, err := e.store.Patch(state.Patch{Credentials: &collected}); err != nil {
			return stopRun, err
		}
		creds = collected
	}

	results := e.verifier.All(ctx, deref(creds.VercelToken), deref(creds.SupabaseURL), deref(creds.SupabaseAnonKey))
	e.reportVerification(results)
	if !results.OK() {
		return stopRun, e.pause("fix the failing credentials, then re-run setup")
	}

	next := state.Patch{}
	if ref := verify.ProjectRef(deref(creds.SupabaseURL)); ref != "" {
		next.Resources = &state.Resources{SupabaseRef: state.StrPtr(ref)}
	}
	return continueRun, e.advance(state.PhaseScaffold, next)
}

// collectCredentials prompts for the four secrets. A blank answer for the
// supabase token, URL, or key cancels the phase; the vercel token may be
// blank when the CLI is already logged in.
func (e *Engine) collectCredentials(ctx context.Context) (state.Credentials, bool, error) {
	accessToken, err := e.prompter.Secret(ctx,
		"Supabase access token",
		"Personal access token from supabase.com/dashboard/account/tokens")
	if err != nil {
		return state.Credentials{}, false, err
	}
	if ui.IsBlank(accessToken) {
		return state.Credentials{}, true, nil
	}

	projectURL, err := e.prompter.Input(ctx,
		"Supabase project URL",
		"The project API URL, e.g. https://abcdefghijklmnopqrst.supabase.co",
		"https://<ref>.supabase.co",
		func(s string) error {
			if ui.IsBlank(s) {
				return nil
			}
			if verify.ProjectRef(s) == "" {
				return fmt.Errorf("expected https://<project-ref>.supabase.co")
			}
			return nil
		})
	if err != nil {
		return state.Credentials{}, false, err
	}
	if ui.IsBlank(projectURL) {
		return state.Credentials{}, true, nil
	}

	anonKey, err := e.prompter.Secret(ctx,
		"Supabase anon key",
		"The anon/publishable API key from the project settings")
	if err != nil {
		return state.Credentials{}, false, err
	}
	if ui.IsBlank(anonKey) {
		return state.Credentials{}, true, nil
	}

	vercelToken, err := e.prompter.Secret(ctx,
		"Vercel token",
		"Leave empty if the vercel CLI is already logged in")
	if err != nil {
		return state.Credentials{}, false, err
	}

	if !ui.IsBlank(accessToken) {
		if res := e.verifier.SupabaseToken(ctx, accessToken); !res.OK {
			e.sink.Warn("supabase access token did not verify: " + res.Detail)
		}
	}

	creds := state.Credentials{
		SupabaseAccessToken: state.StrPtr(accessToken),
		SupabaseURL:         state.StrPtr(projectURL),
		SupabaseAnonKey:     state.StrPtr(anonKey),
	}
	slots := map[string]string{
		secrets.SlotSupabaseAccessToken: accessToken,
		secrets.SlotSupabaseURL:         projectURL,
		secrets.SlotSupabaseAnonKey:     anonKey,
	}
	if !ui.IsBlank(vercelToken) {
		creds.VercelToken = state.StrPtr(vercelToken)
		slots[secrets.SlotVercelToken] = vercelToken
	}
	for slot, value := range slots {
		if err := e.secrets.Set(slot, value); err != nil {
			e.sink.Warn("could not persist " + slot + ": " + err.Error())
		}
	}
	return creds, false, nil
}

func (e *Engine) reportVerification(results verify.AllResults) {
	for _, res := range []verify.Result{results.GitHub, results.Vercel, results.Supabase} {
		if res.OK {
			e.sink.Success(res.Platform + " verified")
			continue
		}
		e.sink.Error(res.Platform + " verification failed: " + res.Detail)
		if res.Remediation != "" {
			e.sink.Info(res.Remediation)
		}
	}
}

// phaseScaffold materializes the project skeleton and installs its
// dependencies. A broken local project must not be provisioned remotely,
// so any failure halts here.
func (e *Engine) phaseScaffold(ctx context.Context, st *state.RunState) (control, error) {
	e.sink.Step("scaffolding project " + st.Config.Name)

	if err := e.scaffolder.Scaffold(ctx, st.Config.Name); err != nil {
		e.sink.Error(err.Error())
		return stopRun, e.pause("fix the scaffolding error, then re-run setup")
	}
	if err := e.scaffolder.InstallDependencies(ctx); err != nil {
		e.sink.Error(err.Error())
		return stopRun, e.pause("fix the install error, then re-run setup")
	}
	return continueRun, e.advance(state.PhaseProvision, state.Patch{})
}

// phaseProvision creates the remote repository and hosting project. A
// failure here is terminal: the rollback manager has already drained the
// compensation stack.
func (e *Engine) phaseProvision(ctx context.Context, st *state.RunState) (control, error) {
	e.sink.Step("provisioning remote resources")

	res := e.provisioner.Ensure(ctx, st.Config.Name, st.RollbackStack)
	if !res.OK {
		failed := state.StatusFailed
		if _, err := e.store.Patch(state.Patch{Status: &failed, RollbackStack: &res.Stack}); err != nil {
			return stopRun, err
		}
		e.sink.Error("provisioning failed, created resources were rolled back")
		e.sink.Info("fix the error above, then run stackpilot reset and re-run setup")
		return stopRun, nil
	}

	return continueRun, e.advance(state.PhaseEnvWiring, state.Patch{
		Resources: &state.Resources{
			RepoFullName:    state.StrPtr(res.RepoFullName),
			VercelProjectID: state.StrPtr(res.VercelProjectID),
		},
		RollbackStack: &res.Stack,
	})
}

// phaseEnvWiring validates that everything wiring depends on is present
// and propagates the backend credentials. Missing prerequisites send the
// run back to authentication instead of crashing on nil data.
func (e *Engine) phaseEnvWiring(ctx context.Context, st *state.RunState) (control, error) {
	e.sink.Step("wiring environment configuration")

	if st.Resources.RepoFullName == nil || st.Resources.VercelProjectID == nil ||
		st.Credentials.SupabaseURL == nil || st.Credentials.SupabaseAnonKey == nil {
		e.sink.Warn("provisioning state is incomplete, returning to authentication")
		back := state.PhaseAuth
		inProgress := state.StatusInProgress
		_, err := e.store.Patch(state.Patch{
			Status:           &inProgress,
			CurrentPhase:     &back,
			ClearResources:   true,
			ClearCredentials: true,
		})
		return continueRun, err
	}

	err := e.wirer.Wire(ctx, envwire.Values{
		SupabaseURL:     *st.Credentials.SupabaseURL,
		SupabaseAnonKey: *st.Credentials.SupabaseAnonKey,
	})
	if err != nil {
		e.sink.Error(err.Error())
		return stopRun, e.pause("fix the error above, then re-run setup")
	}
	return continueRun, e.advance(state.PhaseDeploy, state.Patch{})
}

// phaseDeploy runs the production deployment and analyzes its output.
// Success completes the run; failure pauses so a later invocation retries
// only the deployment.
func (e *Engine) phaseDeploy(ctx context.Context, st *state.RunState) (control, error) {
	e.sink.Step("deploying " + st.Config.Name)

	ok, lines := e.deployer.Deploy(ctx)
	if !ok {
		for _, f := range deploylog.AnalyzeErrors(lines) {
			e.sink.Error(f.Line)
			e.sink.Info("hint: " + f.Hint)
		}
		e.sink.Error("deployment failed")
		return stopRun, e.pause("fix the issue above, then re-run setup to retry the deployment")
	}

	urls := deploylog.ExtractURLs(lines)
	complete := state.StatusComplete
	drained := []string{}
	if _, err := e.store.Patch(state.Patch{Status: &complete, RollbackStack: &drained}); err != nil {
		return stopRun, err
	}
	if urls.PublicURL != "" {
		e.sink.Success("deployed: " + urls.PublicURL)
	} else {
		e.sink.Success("deployed")
	}
	return stopRun, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
