// Package async provides helpers for running independent checks in parallel.
//
// The orchestrator fans out tool-presence checks and platform credential
// verifications as concurrently-outstanding operations and awaits them as a
// group before a phase decides pass/fail. This is the only intra-phase
// parallelism in the system.
package async

import (
	"context"
	"fmt"
)

// Task is a named asynchronous operation.
type Task struct {
	Name string
	Func func(context.Context) error
}

// Outcome is the result of one task in a group.
type Outcome struct {
	Name string
	Err  error
}

// RunGroup starts all tasks concurrently and waits for every one of them.
// Outcomes are returned in task order regardless of completion order.
func RunGroup(ctx context.Context, tasks []Task) []Outcome {
	if len(tasks) == 0 {
		return nil
	}

	type indexed struct {
		idx int
		err error
	}

	ch := make(chan indexed, len(tasks))
	for i, task := range tasks {
		go func() {
			ch <- indexed{idx: i, err: task.Func(ctx)}
		}()
	}

	outcomes := make([]Outcome, len(tasks))
	for range len(tasks) {
		res := <-ch
		outcomes[res.idx] = Outcome{Name: tasks[res.idx].Name, Err: res.err}
	}
	return outcomes
}

// RunParallel executes tasks concurrently and returns the first error
// encountered, after all tasks have finished.
func RunParallel(ctx context.Context, tasks []Task) error {
	for _, outcome := range RunGroup(ctx, tasks) {
		if outcome.Err != nil {
			return fmt.Errorf("%s: %w", outcome.Name, outcome.Err)
		}
	}
	return nil
}
