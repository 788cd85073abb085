// Package verify implements the cascading credential-verification protocol
// for the three external platforms: GitHub (CLI), Vercel (CLI) and Supabase
// (HTTP API). Checks report structured results with remediation hints
// instead of returning errors; only the caller decides what a failed
// verification means for the run.
package verify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/stackpilot/stackpilot/internal/runner"
	"github.com/stackpilot/stackpilot/internal/util/async"
)

const (
	// supabaseAPIBase is the management API used for access-token checks.
	supabaseAPIBase = "https://api.supabase.com"

	// projectDomainSuffix is the fixed domain suffix of hosted projects.
	projectDomainSuffix = ".supabase.co"

	// maxDiagnosticLen bounds response bodies carried in diagnostics.
	maxDiagnosticLen = 300

	checkTimeout = 30 * time.Second
)

// Result is the outcome of one verification check.
type Result struct {
	OK bool

	// Platform names the checked platform ("github", "vercel", "supabase").
	Platform string

	// Detail carries a diagnostic: command output or a truncated HTTP
	// response body.
	Detail string

	// Remediation is the actionable next step when the check failed.
	Remediation string
}

// projectRefPattern matches the subdomain label of a valid project URL.
var projectRefPattern = regexp.MustCompile(`^[a-z0-9]{20,}$`)

// Verifier runs credential checks against the three platforms.
type Verifier struct {
	runner  runner.Runner
	client  *http.Client
	apiBase string
}

// New returns a verifier using the given runner for CLI checks and a
// default HTTP client for API probes.
func New(r runner.Runner) *Verifier {
	return &Verifier{
		runner:  r,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiBase: supabaseAPIBase,
	}
}

// SetHTTPClient replaces the HTTP client. Used by tests.
func (v *Verifier) SetHTTPClient(c *http.Client) { v.client = c }

// SetAPIBase replaces the management API base URL. Used by tests.
func (v *Verifier) SetAPIBase(u string) { v.apiBase = u }

// GitHubAuth checks GitHub CLI authentication via its "who am I" command.
func (v *Verifier) GitHubAuth(ctx context.Context) Result {
	res := v.runner.Run(ctx, runner.Command{
		Bin:     "gh",
		Args:    []string{"auth", "status"},
		Timeout: checkTimeout,
	})
	return Result{
		OK:          res.OK,
		Platform:    "github",
		Detail:      res.Output,
		Remediation: failRemediation(res.OK, "run 'gh auth login' and re-run setup"),
	}
}

// VercelWhoami checks the hosting-provider identity. When a token is
// supplied it is passed explicitly so stored credentials are what gets
// verified, not ambient CLI state.
func (v *Verifier) VercelWhoami(ctx context.Context, token string) Result {
	args := []string{"whoami"}
	if token != "" {
		args = append(args, "--token", token)
	}
	res := v.runner.Run(ctx, runner.Command{
		Bin:     "vercel",
		Args:    args,
		Timeout: checkTimeout,
	})
	return Result{
		OK:          res.OK,
		Platform:    "vercel",
		Detail:      res.Output,
		Remediation: failRemediation(res.OK, "run 'vercel login' or supply a valid token, then re-run setup"),
	}
}

// SupabaseToken checks a personal access token against the project listing
// endpoint of the management API.
func (v *Verifier) SupabaseToken(ctx context.Context, token string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.apiBase+"/v1/projects", nil)
	if err != nil {
		return supabaseFailure(fmt.Sprintf("building request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return supabaseFailure(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{OK: true, Platform: "supabase"}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticLen))
	return supabaseFailure(fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
}

// ProjectEndpoint verifies a project base URL and publishable key with a
// two-probe cascade. The first probe hits the settings endpoint with only
// the API-key header; on 401/403 a second probe hits the REST endpoint with
// an additional bearer header. Different backend tiers expose different
// anonymous-readable endpoints, so trying both avoids false negatives.
// Only 401/403 on both probes is a hard failure; any other non-2xx status
// means the endpoint exists and processed the key, and counts as verified
// (see gatewayStatusAccepted). Network errors fail immediately, no retry.
func (v *Verifier) ProjectEndpoint(ctx context.Context, baseURL, anonKey string) Result {
	base := strings.TrimRight(baseURL, "/")

	status, err := v.probe(ctx, base+"/auth/v1/settings", anonKey, false)
	if err != nil {
		return supabaseFailure(fmt.Sprintf("project endpoint unreachable: %v", err))
	}
	if is2xx(status) {
		return Result{OK: true, Platform: "supabase"}
	}
	if gatewayStatusAccepted(status) {
		return Result{OK: true, Platform: "supabase", Detail: fmt.Sprintf("settings endpoint returned %d, key accepted for gateway access", status)}
	}

	// 401/403: this tier may not expose the settings endpoint anonymously.
	restStatus, err := v.probe(ctx, base+"/rest/v1/", anonKey, true)
	if err != nil {
		return supabaseFailure(fmt.Sprintf("project REST endpoint unreachable: %v", err))
	}
	if is2xx(restStatus) {
		return Result{OK: true, Platform: "supabase"}
	}
	if gatewayStatusAccepted(restStatus) {
		return Result{OK: true, Platform: "supabase", Detail: fmt.Sprintf("REST endpoint returned %d, key accepted for gateway access", restStatus)}
	}

	return supabaseFailure(fmt.Sprintf("project rejected the key on both probes (auth %d, rest %d)", status, restStatus))
}

// probe issues one GET with the publishable key and reports the status.
func (v *Verifier) probe(ctx context.Context, rawURL, anonKey string, bearer bool) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("apikey", anonKey)
	if bearer {
		req.Header.Set("Authorization", "Bearer "+anonKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDiagnosticLen)) //nolint:errcheck
	return resp.StatusCode, nil
}

// gatewayStatusAccepted names the optimistic policy for probe statuses:
// anything outside {2xx, 401, 403} indicates the endpoint exists and
// processed the key rather than rejecting it, so it counts as verified.
// A 500 from a misconfigured proxy is read as success under this rule;
// the policy is isolated here so it can be revisited.
func gatewayStatusAccepted(status int) bool {
	return status != http.StatusUnauthorized && status != http.StatusForbidden
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

// ProjectRef derives the short project reference from a project base URL.
// The URL is valid only when it is https, its host ends with the platform
// domain suffix, and the remaining subdomain label is 20+ lowercase
// alphanumerics. Anything else yields an empty reference — absence means
// "unknown ref", not an error.
func ProjectRef(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" {
		return ""
	}
	host := u.Hostname()
	if !strings.HasSuffix(host, projectDomainSuffix) {
		return ""
	}
	label := strings.TrimSuffix(host, projectDomainSuffix)
	if !projectRefPattern.MatchString(label) {
		return ""
	}
	return label
}

// AllResults aggregates the three platform checks.
type AllResults struct {
	GitHub   Result
	Vercel   Result
	Supabase Result
}

// OK reports whether every platform verified.
func (r AllResults) OK() bool {
	return r.GitHub.OK && r.Vercel.OK && r.Supabase.OK
}

// All runs the three platform checks as concurrently-outstanding
// operations and awaits them as a group.
func (v *Verifier) All(ctx context.Context, vercelToken, projectURL, anonKey string) AllResults {
	var results AllResults
	async.RunGroup(ctx, []async.Task{
		{Name: "github", Func: func(ctx context.Context) error {
			results.GitHub = v.GitHubAuth(ctx)
			return nil
		}},
		{Name: "vercel", Func: func(ctx context.Context) error {
			results.Vercel = v.VercelWhoami(ctx, vercelToken)
			return nil
		}},
		{Name: "supabase", Func: func(ctx context.Context) error {
			results.Supabase = v.ProjectEndpoint(ctx, projectURL, anonKey)
			return nil
		}},
	})
	return results
}

func supabaseFailure(detail string) Result {
	return Result{
		Platform:    "supabase",
		Detail:      detail,
		Remediation: "check the project URL and publishable key in the Supabase dashboard, then re-run setup",
	}
}

func failRemediation(ok bool, hint string) string {
	if ok {
		return ""
	}
	return hint
}
