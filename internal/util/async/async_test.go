package async

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunGroup_PreservesTaskOrder(t *testing.T) {
	tasks := []Task{
		{Name: "slow", Func: func(_ context.Context) error {
			time.Sleep(50 * time.Millisecond)
			return nil
		}},
		{Name: "fast", Func: func(_ context.Context) error {
			return errors.New("fast failed")
		}},
	}

	outcomes := RunGroup(context.Background(), tasks)

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Name != "slow" || outcomes[1].Name != "fast" {
		t.Errorf("outcomes out of task order: %v", outcomes)
	}
	if outcomes[0].Err != nil {
		t.Errorf("expected slow task to succeed, got: %v", outcomes[0].Err)
	}
	if outcomes[1].Err == nil {
		t.Error("expected fast task to fail")
	}
}

func TestRunGroup_Empty(t *testing.T) {
	if outcomes := RunGroup(context.Background(), nil); outcomes != nil {
		t.Errorf("expected nil outcomes for empty group, got %v", outcomes)
	}
}

func TestRunGroup_AllTasksComplete(t *testing.T) {
	var completed atomic.Int32

	tasks := []Task{
		{Name: "fast-fail", Func: func(_ context.Context) error {
			return errors.New("fast fail")
		}},
		{Name: "slow-success", Func: func(_ context.Context) error {
			time.Sleep(50 * time.Millisecond)
			completed.Add(1)
			return nil
		}},
	}

	RunGroup(context.Background(), tasks)

	// A fast failure does not cut the slow task short.
	if completed.Load() != 1 {
		t.Errorf("expected slow task to complete, got %d", completed.Load())
	}
}

func TestRunParallel_Success(t *testing.T) {
	var count atomic.Int32

	tasks := []Task{
		{Name: "task1", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}},
		{Name: "task2", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}},
	}

	if err := RunParallel(context.Background(), tasks); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
	if count.Load() != 2 {
		t.Errorf("expected 2 tasks to run, got %d", count.Load())
	}
}

func TestRunParallel_FirstErrorWins(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")

	tasks := []Task{
		{Name: "fail1", Func: func(_ context.Context) error { return err1 }},
		{Name: "fail2", Func: func(_ context.Context) error { return err2 }},
	}

	err := RunParallel(context.Background(), tasks)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, err1) {
		t.Errorf("expected first task's error, got: %v", err)
	}
}

func TestRunParallel_TaskNameInError(t *testing.T) {
	tasks := []Task{
		{Name: "vercel", Func: func(_ context.Context) error {
			return errors.New("not logged in")
		}},
	}

	err := RunParallel(context.Background(), tasks)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "vercel") {
		t.Errorf("error message should contain task name, got: %s", err)
	}
}

func TestRunParallel_Concurrent(t *testing.T) {
	var maxConcurrent atomic.Int32
	var current atomic.Int32

	tasks := make([]Task, 4)
	for i := range tasks {
		tasks[i] = Task{
			Name: "task",
			Func: func(_ context.Context) error {
				c := current.Add(1)
				for {
					old := maxConcurrent.Load()
					if c <= old || maxConcurrent.CompareAndSwap(old, c) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				current.Add(-1)
				return nil
			},
		}
	}

	if err := RunParallel(context.Background(), tasks); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if maxConcurrent.Load() != 4 {
		t.Errorf("expected 4 concurrent tasks, got %d", maxConcurrent.Load())
	}
}
