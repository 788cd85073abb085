package handlers

import (
	"context"
	"fmt"

	"github.com/stackpilot/stackpilot/internal/secrets"
	"github.com/stackpilot/stackpilot/internal/state"
)

// confirmReset asks the operator before wiping (for testing injection).
var confirmReset = func(ctx context.Context) (bool, error) {
	return newPrompter().Confirm(ctx, "Delete the run state and all stored secrets?")
}

// Reset deletes the persisted run state and every stored secret slot.
// Remote resources are left untouched.
func Reset(ctx context.Context, force bool) error {
	dir, err := workingDir()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	if !force {
		ok, err := confirmReset(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("reset aborted")
			return nil
		}
	}

	if err := state.NewStore(dir).Reset(); err != nil {
		return err
	}
	if err := secrets.NewStore(dir).ClearAll(); err != nil {
		return err
	}

	fmt.Println("run state and secrets deleted, 'stackpilot setup' starts fresh")
	return nil
}
