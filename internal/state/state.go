// Package state persists the run-state document for a project workspace.
//
// One JSON document per workspace tracks provisioning progress across
// invocations. Every write is a full rewrite through a temp file and an
// atomic rename, so a crash mid-write never leaves a torn document.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Status is the overall health of a run.
type Status string

// Run statuses.
const (
	StatusInProgress   Status = "in_progress"
	StatusComplete     Status = "complete"
	StatusFailed       Status = "failed"
	StatusPausedAtAuth Status = "paused_at_auth"
)

// Phase identifies one stage of the fixed provisioning sequence.
type Phase string

// Phases, in forward order. CurrentPhase only advances on success of that
// phase's work, or resets backward when a phase finds its prerequisites
// missing.
const (
	PhaseEnvCheck  Phase = "0_env_check"
	PhaseAuth      Phase = "1_auth"
	PhaseScaffold  Phase = "2_scaffold"
	PhaseProvision Phase = "3_provision"
	PhaseEnvWiring Phase = "4_env_wiring"
	PhaseDeploy    Phase = "5_deploy"
)

// StateVersion is the current schema version of the persisted document.
const StateVersion = 1

// StateDirName is the per-workspace directory holding the document.
const StateDirName = ".stackpilot"

// stateFileName is the document filename inside StateDirName.
const stateFileName = "state.json"

// ProjectConfig is the immutable-after-creation project identity.
type ProjectConfig struct {
	Name     string `json:"name"`
	Frontend string `json:"frontend"`
	Backend  string `json:"backend"`
}

// Resources holds external resource handles. Each field transitions
// nil -> set exactly once per successful provisioning step.
type Resources struct {
	RepoFullName    *string `json:"repo_full_name"`
	VercelProjectID *string `json:"vercel_project_id"`
	SupabaseRef     *string `json:"supabase_ref"`
}

// Credentials holds secret material collected during authentication.
// The group is cleared together when re-verification invalidates it.
type Credentials struct {
	VercelToken         *string `json:"vercel_token"`
	SupabaseAccessToken *string `json:"supabase_access_token"`
	SupabaseURL         *string `json:"supabase_url"`
	SupabaseAnonKey     *string `json:"supabase_anon_key"`
}

// RunState is the persisted document, one per workspace.
type RunState struct {
	Status        Status        `json:"status"`
	StateVersion  int           `json:"state_version"`
	RunID         string        `json:"run_id"`
	CurrentPhase  Phase         `json:"current_phase"`
	Config        ProjectConfig `json:"config"`
	Resources     Resources     `json:"resources"`
	Credentials   Credentials   `json:"credentials"`
	RollbackStack []string      `json:"rollback_stack"`
}

// Patch describes a partial update. Only non-nil sub-objects are applied;
// config, resources and credentials merge key-by-key, so a patch never
// erases sibling fields it did not mention. RollbackStack is replaced
// wholesale when non-nil, otherwise preserved. ClearResources and
// ClearCredentials null the whole group before merging, and exist because
// key-merge cannot express "set back to null" (phase-4 self-heal and
// credential invalidation need it).
type Patch struct {
	Status           *Status
	CurrentPhase     *Phase
	Resources        *Resources
	Credentials      *Credentials
	RollbackStack    *[]string
	ClearResources   bool
	ClearCredentials bool
}

// ErrNotFound reports an absent state file. Treated as "first run".
var ErrNotFound = errors.New("run state not found")

// ParseError reports a corrupt state file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("run state at %s is unparsable: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Store loads and persists the run-state document for one workspace.
type Store struct {
	workspace string

	// warnf receives diagnostics, e.g. when a corrupt file is replaced.
	warnf func(format string, args ...any)
}

// NewStore returns a store rooted at the given workspace directory.
func NewStore(workspace string) *Store {
	return &Store{workspace: workspace, warnf: func(string, ...any) {}}
}

// SetWarnFunc routes store warnings to the given printf-style function.
func (s *Store) SetWarnFunc(f func(format string, args ...any)) {
	if f != nil {
		s.warnf = f
	}
}

// Path returns the location of the persisted document.
func (s *Store) Path() string {
	return filepath.Join(s.workspace, StateDirName, stateFileName)
}

// Read loads the document. It fails with ErrNotFound when the file is
// absent and *ParseError when it is corrupt.
func (s *Store) Read() (*RunState, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}

	var st RunState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, &ParseError{Path: s.Path(), Err: err}
	}
	return &st, nil
}

// EnsureInitialized reads the existing state, synthesizing and persisting a
// default document when none exists. A corrupt file is replaced with
// defaults like an absent one; that discards a potentially resumable run,
// so it is surfaced as a warning rather than silently swallowed.
func (s *Store) EnsureInitialized(cfg ProjectConfig) (*RunState, error) {
	st, err := s.Read()
	if err == nil {
		return st, nil
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		s.warnf("existing run state is unparsable, starting over: %v", parseErr.Err)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	st = &RunState{
		Status:        StatusInProgress,
		StateVersion:  StateVersion,
		RunID:         uuid.NewString(),
		CurrentPhase:  PhaseEnvCheck,
		Config:        cfg,
		RollbackStack: []string{},
	}
	if err := s.Write(st); err != nil {
		return nil, err
	}
	return st, nil
}

// Patch applies a partial update and persists the merged document.
func (s *Store) Patch(p Patch) (*RunState, error) {
	st, err := s.Read()
	if err != nil {
		return nil, err
	}

	applyPatch(st, p)

	if err := s.Write(st); err != nil {
		return nil, err
	}
	return st, nil
}

func applyPatch(st *RunState, p Patch) {
	if p.Status != nil {
		st.Status = *p.Status
	}
	if p.CurrentPhase != nil {
		st.CurrentPhase = *p.CurrentPhase
	}
	if p.ClearResources {
		st.Resources = Resources{}
	}
	if p.Resources != nil {
		mergeResources(&st.Resources, p.Resources)
	}
	if p.ClearCredentials {
		st.Credentials = Credentials{}
	}
	if p.Credentials != nil {
		mergeCredentials(&st.Credentials, p.Credentials)
	}
	if p.RollbackStack != nil {
		st.RollbackStack = *p.RollbackStack
	}
}

func mergeResources(dst, src *Resources) {
	if src.RepoFullName != nil {
		dst.RepoFullName = src.RepoFullName
	}
	if src.VercelProjectID != nil {
		dst.VercelProjectID = src.VercelProjectID
	}
	if src.SupabaseRef != nil {
		dst.SupabaseRef = src.SupabaseRef
	}
}

func mergeCredentials(dst, src *Credentials) {
	if src.VercelToken != nil {
		dst.VercelToken = src.VercelToken
	}
	if src.SupabaseAccessToken != nil {
		dst.SupabaseAccessToken = src.SupabaseAccessToken
	}
	if src.SupabaseURL != nil {
		dst.SupabaseURL = src.SupabaseURL
	}
	if src.SupabaseAnonKey != nil {
		dst.SupabaseAnonKey = src.SupabaseAnonKey
	}
}

// Write persists the full document atomically: marshal, write to a temp
// file in the same directory, rename over the real one.
func (s *Store) Write(st *RunState) error {
	if st.RollbackStack == nil {
		st.RollbackStack = []string{}
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}

	dir := filepath.Dir(s.Path())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Reset deletes the persisted document. Missing file is not an error.
func (s *Store) Reset() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete run state: %w", err)
	}
	return nil
}

// StrPtr returns a pointer to s, for composing patches.
func StrPtr(s string) *string { return &s }
