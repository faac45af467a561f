package orchestration

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/imamik/shepherd/internal/provider"
	"github.com/imamik/shepherd/internal/util/async"
)

// PollState is the terminal state of a convergence wait.
type PollState int

// Terminal poll states.
const (
	PollConverged PollState = iota
	PollExhausted
)

func (s PollState) String() string {
	if s == PollConverged {
		return "converged"
	}
	return "exhausted"
}

// PollResult summarises a convergence wait.
type PollResult struct {
	State PollState
	// Iterations is the number of sleep rounds taken.
	Iterations int
	// Deviants is the deviant count of the last round.
	Deviants int
}

// ShouldPoll reports whether a convergence wait follows action.
func ShouldPoll(action provider.Action, opts Options) bool {
	return opts.Poll && action.Converges() && !opts.DryRun
}

// Poller waits for cohorts to reach their desired state.
type Poller struct {
	Interval    time.Duration
	MaxPoll     int
	Parallelism int
	Verbose     int
	// Progress receives the dot line at verbose 2 and above.
	Progress io.Writer
	Sleep    func(ctx context.Context, d time.Duration) error

	run *RunContext
}

// NewPoller builds a Poller from the run options.
func NewPoller(run *RunContext) *Poller {
	sleep := run.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Poller{
		Interval:    run.Opts.PollInterval,
		MaxPoll:     run.Opts.MaxPoll,
		Parallelism: run.Opts.Parallelism,
		Verbose:     run.Opts.Verbose,
		Progress:    run.Out,
		Sleep:       sleep,
		run:         run,
	}
}

// Poll sums deviants over cohorts until none remain or MaxPoll sleep
// rounds have passed. Running out of rounds is not an error.
func (p *Poller) Poll(ctx context.Context, cohorts []*Cohort) (PollResult, error) {
	p.run.Log.Debug().Msgf("Polling every %s, up to %d times", p.Interval, p.MaxPoll)

	iterations, deviants := 0, 0
	for iterations < p.MaxPoll {
		var err error
		deviants, err = p.round(ctx, cohorts, iterations == 0)
		if err != nil {
			p.finishLine()
			return PollResult{State: PollExhausted, Iterations: iterations, Deviants: deviants}, err
		}
		if deviants == 0 {
			break
		}
		if err := p.Sleep(ctx, p.Interval); err != nil {
			p.finishLine()
			return PollResult{State: PollExhausted, Iterations: iterations, Deviants: deviants}, err
		}
		if p.Verbose >= 2 {
			fmt.Fprint(p.Progress, ".")
		}
		iterations++
	}

	result := PollResult{State: PollConverged, Iterations: iterations, Deviants: deviants}
	if deviants != 0 {
		result.State = PollExhausted
	}

	if p.Verbose >= 2 {
		switch {
		case iterations == 0:
			fmt.Fprintln(p.Progress, "No action required.")
		case result.State == PollConverged:
			fmt.Fprintln(p.Progress, " Complete.")
		default:
			fmt.Fprintln(p.Progress, " Giving up.")
		}
	}

	p.run.Metrics.PollFinished(iterations, result.State == PollConverged)
	return result, nil
}

func (p *Poller) round(ctx context.Context, cohorts []*Cohort, first bool) (int, error) {
	counts := make([]int, len(cohorts))
	tasks := make([]async.Task, len(cohorts))
	for i, c := range cohorts {
		tasks[i] = async.Task{
			Name: c.provider + " " + c.region,
			Func: func(ctx context.Context) error {
				n, err := c.NumDeviants(ctx, first)
				counts[i] = n
				return err
			},
		}
	}

	limit := max(p.Parallelism, 1)
	errs := async.RunOrdered(ctx, limit, tasks)

	total := 0
	for i, err := range errs {
		if err != nil {
			return total, err
		}
		total += counts[i]
	}
	return total, nil
}

func (p *Poller) finishLine() {
	if p.Verbose >= 2 {
		fmt.Fprintln(p.Progress)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
