package orchestration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/imamik/shepherd/internal/inventory"
	"github.com/imamik/shepherd/internal/provider"
	"github.com/imamik/shepherd/internal/util/async"
)

// Dispatcher resolves providers and runs an action on every cohort.
type Dispatcher struct {
	Registry *provider.Registry
	Run      *RunContext
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(registry *provider.Registry, run *RunContext) *Dispatcher {
	return &Dispatcher{Registry: registry, Run: run}
}

// Dispatch takes action on every cohort of hosts, providers first and
// regions second, both in sorted order. It returns the cohorts that
// completed before the first error, and that error.
func (d *Dispatcher) Dispatch(ctx context.Context, hosts inventory.HostMap, action provider.Action) ([]*Cohort, error) {
	var done []*Cohort

	for _, name := range hosts.Providers() {
		client, err := d.Registry.Resolve(ctx, name)
		if err != nil {
			return done, err
		}

		regions := hosts.Regions(name)
		if d.Run.Opts.Parallelism > 1 && len(regions) > 1 {
			cohorts, err := d.dispatchParallel(ctx, name, client, hosts, regions, action)
			done = append(done, cohorts...)
			if err != nil {
				return done, err
			}
			continue
		}

		for _, region := range regions {
			cohort, err := d.dispatchOne(ctx, d.Run.Out, client, hosts.Hosts(name, region), region, action)
			if err != nil {
				return done, err
			}
			if cohort != nil {
				done = append(done, cohort)
			}
		}
	}
	return done, nil
}

// dispatchParallel handles the regions of one provider concurrently. Each
// cohort prints into its own buffer and buffers are flushed in region
// order, up to and including the first failing cohort. name is the
// registry key the hosts are grouped under.
func (d *Dispatcher) dispatchParallel(ctx context.Context, name string, client provider.Client, hosts inventory.HostMap, regions []string, action provider.Action) ([]*Cohort, error) {
	cohorts := make([]*Cohort, len(regions))
	buffers := make([]bytes.Buffer, len(regions))
	tasks := make([]async.Task, len(regions))

	for i, region := range regions {
		tasks[i] = async.Task{
			Name: name + " " + region,
			Func: func(ctx context.Context) error {
				cohort, err := d.dispatchOne(ctx, &buffers[i], client, hosts.Hosts(name, region), region, action)
				cohorts[i] = cohort
				return err
			},
		}
	}

	errs := async.RunOrdered(ctx, d.Run.Opts.Parallelism, tasks)

	var done []*Cohort
	for i := range regions {
		if _, err := io.Copy(d.Run.Out, &buffers[i]); err != nil {
			return done, err
		}
		if errs[i] != nil {
			return done, errs[i]
		}
		if cohorts[i] != nil {
			done = append(done, cohorts[i])
		}
	}
	return done, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, out io.Writer, client provider.Client, hosts map[string]inventory.HostRecord, region string, action provider.Action) (*Cohort, error) {
	verbose := d.Run.Opts.Verbose >= 1

	if len(hosts) == 0 {
		d.Run.Log.Warn().Str("provider", client.Name()).Str("region", region).Msg("No hosts had correct cloud info")
		return nil, nil
	}
	if verbose && action.ReadOnly() {
		fmt.Fprintf(out, "%s (%s)\n", region, client.Name())
	}

	cohort, err := NewCohort(ctx, d.Run, client, region, hosts)
	if err != nil {
		return nil, err
	}
	cohort.out = out

	if verbose && !action.ReadOnly() {
		fmt.Fprintf(out, "Running %s on instances in region %s (%s):\n  %s\n",
			action, region, client.Name(), strings.Join(cohort.ids, ", "))
	}

	if err := cohort.TakeAction(ctx, action); err != nil {
		return nil, err
	}
	return cohort, nil
}
