package orchestration

import (
	"context"
	"io"
	"maps"
	"slices"

	"github.com/imamik/shepherd/internal/inventory"
	"github.com/imamik/shepherd/internal/provider"
	"github.com/imamik/shepherd/internal/ui/format"
	"github.com/imamik/shepherd/internal/util/rdns"
)

const killNotConfirmed = "Not killing instances because -y wasn't specified"

// Cohort is the set of instances of one provider and region acted on together.
type Cohort struct {
	provider string
	region   string
	ids      []string
	hosts    map[string]inventory.HostRecord

	client provider.RegionClient
	run    *RunContext
	out    io.Writer

	desired provider.DesiredState
	cache   map[string]provider.Instance
	err     error
}

// RunResult is the outcome of one cohort.
type RunResult struct {
	Provider string
	Region   string
	Desired  provider.DesiredState
	// Err is the last classified failure of the cohort.
	Err error
	// Instances is the last observed snapshot, nil if never described.
	Instances map[string]provider.Instance
}

// NewCohort validates region against client and connects to it. hosts is
// the id -> host slice of the HostMap for that region and must not be empty.
func NewCohort(ctx context.Context, run *RunContext, client provider.Client, region string, hosts map[string]inventory.HostRecord) (*Cohort, error) {
	if len(hosts) == 0 {
		return nil, provider.Errorf(provider.KindInstance, "no instances for %s region %s", client.Name(), region)
	}
	if !slices.Contains(client.Regions(), region) {
		return nil, provider.Errorf(provider.KindProvider, "unknown cloud region %s", region)
	}

	rc, err := client.Connect(ctx, region)
	if err != nil {
		if _, ok := provider.KindOf(err); ok {
			return nil, err
		}
		return nil, provider.Wrap(provider.KindProvider, err, "failed to connect to "+client.Name()+" region "+region)
	}

	ids := slices.Sorted(maps.Keys(hosts))
	return &Cohort{
		provider: client.Name(),
		region:   region,
		ids:      ids,
		hosts:    hosts,
		client:   rc,
		run:      run,
		out:      run.Out,
		desired:  provider.DesiredNone,
	}, nil
}

// Provider returns the provider tag of the cohort.
func (c *Cohort) Provider() string { return c.provider }

// Region returns the region of the cohort.
func (c *Cohort) Region() string { return c.region }

// IDs returns the sorted instance IDs of the cohort.
func (c *Cohort) IDs() []string { return slices.Clone(c.ids) }

// Desired returns the convergence target set by the last action.
func (c *Cohort) Desired() provider.DesiredState { return c.desired }

// Result returns the cohort's target and last observed snapshot.
func (c *Cohort) Result() RunResult {
	return RunResult{
		Provider:  c.provider,
		Region:    c.region,
		Desired:   c.desired,
		Err:       c.err,
		Instances: maps.Clone(c.cache),
	}
}

// TakeAction performs action on every instance of the cohort.
func (c *Cohort) TakeAction(ctx context.Context, action provider.Action) error {
	if !action.Valid() {
		return provider.Errorf(provider.KindAction, "Unknown action '%s'", action)
	}
	c.desired = action.DesiredState()

	var res provider.Result
	switch action {
	case provider.ActionStatus, provider.ActionFullStatus:
		err := c.show(ctx, action == provider.ActionFullStatus)
		c.record(action, err)
		c.err = err
		return err
	case provider.ActionStart:
		res = c.client.Start(ctx, c.ids, c.run.Opts.DryRun)
	case provider.ActionStop:
		res = c.client.Stop(ctx, c.ids, c.run.Opts.DryRun)
	case provider.ActionRestart:
		res = c.client.Reboot(ctx, c.ids, c.run.Opts.DryRun)
	case provider.ActionKill:
		if !c.run.Opts.Confirm {
			c.run.Log.Warn().Str("provider", c.provider).Str("region", c.region).Msg(killNotConfirmed)
			c.desired = provider.DesiredNone
			c.run.Metrics.CohortAction(c.provider, c.region, string(action), "skipped")
			return nil
		}
		res = c.client.Terminate(ctx, c.ids, c.run.Opts.DryRun)
	}

	c.run.Metrics.CohortAction(c.provider, c.region, string(action), res.Outcome.String())

	switch res.Outcome {
	case provider.OutcomeDryRun:
		c.run.Log.Warn().Str("provider", c.provider).Str("region", c.region).Msg(res.Notice)
		return nil
	case provider.OutcomeFailed:
		c.reportMissing(res.Err)
		c.err = res.Err
		return res.Err
	default:
		c.run.Log.Info().
			Str("provider", c.provider).
			Str("region", c.region).
			Strs("ids", c.ids).
			Msgf("%s requested", action)
		return nil
	}
}

func (c *Cohort) record(action provider.Action, err error) {
	outcome := provider.OutcomePerformed.String()
	if err != nil {
		outcome = provider.OutcomeFailed.String()
	}
	c.run.Metrics.CohortAction(c.provider, c.region, string(action), outcome)
}

func (c *Cohort) show(ctx context.Context, full bool) error {
	instances, err := c.describe(ctx, full)
	if err != nil {
		c.reportMissing(err)
		return err
	}

	printer := format.NewPrinter(c.out)
	opts := c.run.Opts
	for _, id := range c.ids {
		inst := instances[id]
		if opts.OnlyRunning && inst.State != provider.StateRunning {
			continue
		}
		if opts.OnlyStopped && inst.State != provider.StateStopped {
			continue
		}

		block := ""
		if full {
			details := inst.Details
			if details.FQDN == "" && details.PublicIP != "" {
				details.FQDN = rdns.FQDN(ctx, c.run.Resolver, details.PublicIP)
			}
			block = format.Block(details)
		}
		printer.Host(c.hosts[id].Name, id, inst.State, block)
	}
	return nil
}

// describe refreshes the cache. Every cohort id must come back.
func (c *Cohort) describe(ctx context.Context, detailed bool) (map[string]provider.Instance, error) {
	instances, err := c.client.Describe(ctx, c.ids, provider.DescribeOpts{Detailed: detailed})
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range c.ids {
		if _, ok := instances[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, provider.Missing(missing, "")
	}

	c.cache = instances
	return instances, nil
}

// NumDeviants counts instances not yet in the desired state. The first
// round reuses the snapshot taken by the action if there is one; later
// rounds always describe again. An instance that can no longer be found
// is an instance error.
func (c *Cohort) NumDeviants(ctx context.Context, firstRun bool) (int, error) {
	if c.desired == provider.DesiredNone {
		return 0, nil
	}

	instances := c.cache
	if !firstRun || instances == nil {
		var err error
		instances, err = c.describe(ctx, false)
		if err != nil {
			if ids := provider.MissingIDs(err); len(ids) > 0 {
				c.reportMissing(err)
				c.err = &provider.Error{
					Kind: provider.KindInstance,
					Msg:  "instance no longer exists; instance ID = " + ids[0],
					IDs:  ids,
				}
				return 0, c.err
			}
			c.err = err
			return 0, err
		}
	}

	target := c.desired.State()
	deviants := 0
	for _, id := range c.ids {
		state := instances[id].State
		if c.desired.Satisfied(state) {
			continue
		}
		deviants++
		c.run.Log.Debug().
			Str("host", c.hosts[id].Name).
			Str("instance_id", id).
			Stringer("state", state).
			Stringer("desired", target).
			Msg("deviant")
	}

	c.run.Log.Debug().Msgf("%d deviants in %s region %s", deviants, c.provider, c.region)
	c.run.Metrics.CohortDeviants(c.provider, c.region, deviants)
	return deviants, nil
}

func (c *Cohort) reportMissing(err error) {
	for _, id := range provider.MissingIDs(err) {
		name := id
		if h, ok := c.hosts[id]; ok {
			name = h.Name
		}
		c.run.Log.Error().
			Str("provider", c.provider).
			Str("region", c.region).
			Msgf("no such instance: %s (%s)", name, id)
	}
}
