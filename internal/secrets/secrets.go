// Package secrets stores named secret slots for a run's namespace.
//
// The orchestrator core never reads credentials from here — it goes
// through the run state's credential fields. The store exists so that an
// explicit reset can wipe both the state document and every out-of-document
// secret in one operation.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stackpilot/stackpilot/internal/state"
)

// The five secret slots of a run.
const (
	SlotVercelToken         = "vercel_token"
	SlotSupabaseAccessToken = "supabase_access_token"
	SlotSupabaseURL         = "supabase_url"
	SlotSupabaseAnonKey     = "supabase_anon_key"
	SlotGitHubToken         = "github_token"
)

// Slots lists every slot, the set an explicit reset deletes together.
var Slots = []string{
	SlotVercelToken,
	SlotSupabaseAccessToken,
	SlotSupabaseURL,
	SlotSupabaseAnonKey,
	SlotGitHubToken,
}

// Store keeps one file per slot under the workspace state directory.
type Store struct {
	dir string
}

// NewStore returns a secret store for the given workspace.
func NewStore(workspace string) *Store {
	return &Store{dir: filepath.Join(workspace, state.StateDirName, "secrets")}
}

// Set writes a slot value with owner-only permissions.
func (s *Store) Set(slot, value string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}
	if err := os.WriteFile(s.path(slot), []byte(value), 0o600); err != nil {
		return fmt.Errorf("failed to write secret %s: %w", slot, err)
	}
	return nil
}

// Get reads a slot value. The second return is false when the slot is
// empty or absent.
func (s *Store) Get(slot string) (string, bool) {
	data, err := os.ReadFile(s.path(slot))
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(string(data))
	return value, value != ""
}

// ClearAll deletes every slot together. Missing slots are not errors.
func (s *Store) ClearAll() error {
	for _, slot := range Slots {
		if err := os.Remove(s.path(slot)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete secret %s: %w", slot, err)
		}
	}
	if err := os.Remove(s.dir); err != nil && !os.IsNotExist(err) {
		// Leftover unknown files keep the directory; that is fine.
		return nil //nolint:nilerr
	}
	return nil
}

func (s *Store) path(slot string) string {
	return filepath.Join(s.dir, slot)
}
