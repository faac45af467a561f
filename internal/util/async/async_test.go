package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunOrdered_Success(t *testing.T) {
	var count atomic.Int32

	tasks := make([]Task, 3)
	for i := range tasks {
		tasks[i] = Task{Name: "task", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}}
	}

	errs := RunOrdered(context.Background(), 2, tasks)
	for i, err := range errs {
		if err != nil {
			t.Errorf("task %d: expected no error, got: %v", i, err)
		}
	}
	if count.Load() != 3 {
		t.Errorf("expected 3 tasks to run, got %d", count.Load())
	}
}

func TestRunOrdered_EmptyTasks(t *testing.T) {
	errs := RunOrdered(context.Background(), 4, nil)
	if len(errs) != 0 {
		t.Errorf("expected no results for empty tasks, got %d", len(errs))
	}
}

func TestRunOrdered_ErrorsFollowTaskOrder(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	tasks := []Task{
		{Name: "ok", Func: func(_ context.Context) error { return nil }},
		{Name: "slow", Func: func(_ context.Context) error {
			time.Sleep(20 * time.Millisecond)
			return errA
		}},
		{Name: "fast", Func: func(_ context.Context) error { return errB }},
	}

	errs := RunOrdered(context.Background(), 3, tasks)
	if errs[0] != nil || !errors.Is(errs[1], errA) || !errors.Is(errs[2], errB) {
		t.Fatalf("unexpected per-task errors: %v", errs)
	}
}

func TestRunOrdered_RespectsLimit(t *testing.T) {
	var running, peak atomic.Int32

	tasks := make([]Task, 8)
	for i := range tasks {
		tasks[i] = Task{Name: "t", Func: func(_ context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		}}
	}

	RunOrdered(context.Background(), 2, tasks)
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent tasks, saw %d", peak.Load())
	}
}

func TestRunOrdered_ZeroLimitRunsSequentially(t *testing.T) {
	var order []int

	tasks := make([]Task, 4)
	for i := range tasks {
		tasks[i] = Task{Name: "t", Func: func(_ context.Context) error {
			order = append(order, i)
			return nil
		}}
	}

	RunOrdered(context.Background(), 0, tasks)
	for i, got := range order {
		if got != i {
			t.Fatalf("expected sequential order, got %v", order)
		}
	}
}

func TestRunOrdered_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	tasks := []Task{{Name: "never", Func: func(_ context.Context) error {
		called = true
		return nil
	}}}

	errs := RunOrdered(ctx, 1, tasks)
	if called {
		t.Error("expected task not to run on a cancelled context")
	}
	if !errors.Is(errs[0], context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", errs[0])
	}
}
