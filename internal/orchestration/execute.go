package orchestration

import (
	"context"

	"github.com/imamik/shepherd/internal/inventory"
	"github.com/imamik/shepherd/internal/provider"
)

// Summary is what one invocation produced.
type Summary struct {
	Results []RunResult
	// Poll is nil when no convergence wait took place.
	Poll *PollResult
}

// Execute dispatches action over hosts and, when requested, waits for
// convergence.
func Execute(ctx context.Context, run *RunContext, registry *provider.Registry, hosts inventory.HostMap, action provider.Action) (Summary, error) {
	var summary Summary

	cohorts, err := NewDispatcher(registry, run).Dispatch(ctx, hosts, action)
	for _, c := range cohorts {
		summary.Results = append(summary.Results, c.Result())
	}
	if err != nil {
		return summary, err
	}

	if !ShouldPoll(action, run.Opts) {
		return summary, nil
	}

	result, err := NewPoller(run).Poll(ctx, cohorts)
	summary.Poll = &result
	for i, c := range cohorts {
		summary.Results[i] = c.Result()
	}
	return summary, err
}
