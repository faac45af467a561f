package async

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task represents an operation with a name used in error messages.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunOrdered executes tasks with at most limit running at once and returns
// their errors indexed like tasks. A limit below 1 runs tasks one at a
// time. A failing task does not cancel the others.
func RunOrdered(ctx context.Context, limit int, tasks []Task) []error {
	errs := make([]error, len(tasks))
	if len(tasks) == 0 {
		return errs
	}
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, task := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = task.Func(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
