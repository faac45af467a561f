// Package fakes provides an in-memory provider backend for tests. It keeps
// per-instance state, counts every verb it receives and can delay state
// transitions by a number of describe calls to exercise polling.
package fakes

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/imamik/shepherd/internal/provider"
)

// Instance is a simulated instance.
type Instance struct {
	State   provider.StateCode
	Details provider.Details

	target    provider.StateCode
	countdown int
	settling  bool
}

// Provider simulates a provider.Client. The zero value is not usable; call New.
type Provider struct {
	mu sync.Mutex

	name    string
	regions []string
	// instances maps region to instance ID to instance.
	instances map[string]map[string]*Instance

	// SettleAfter is the number of Describe calls after a verb before the
	// instance reaches its target state. Zero settles immediately.
	SettleAfter int
	// Stuck keeps instances in their transitional state forever.
	Stuck bool
	// ConnectErr maps a region to the error Connect returns for it.
	ConnectErr map[string]error
	// VerbErr, when set, is returned as a failed Result by every verb.
	VerbErr error

	calls map[string]int
	order []string
}

// New creates a fake provider serving regions.
func New(name string, regions ...string) *Provider {
	return &Provider{
		name:       name,
		regions:    regions,
		instances:  make(map[string]map[string]*Instance),
		ConnectErr: make(map[string]error),
		calls:      make(map[string]int),
	}
}

// Add places an instance in region.
func (p *Provider) Add(region, id string, state provider.StateCode, details provider.Details) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.instances[region] == nil {
		p.instances[region] = make(map[string]*Instance)
	}
	p.instances[region][id] = &Instance{State: state, Details: details}
	return p
}

// Remove deletes an instance, simulating it vanishing from the provider.
func (p *Provider) Remove(region, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.instances[region], id)
}

// State returns the current state of an instance.
func (p *Provider) State(region, id string) provider.StateCode {
	p.mu.Lock()
	defer p.mu.Unlock()
	if inst, ok := p.instances[region][id]; ok {
		return inst.State
	}
	return provider.StateNone
}

// Calls returns how many times verb was invoked, across all regions.
func (p *Provider) Calls(verb string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[verb]
}

// Order returns "verb region" entries in the order they were received.
func (p *Provider) Order() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.order)
}

// Name implements provider.Client.
func (p *Provider) Name() string { return p.name }

// Regions implements provider.Client.
func (p *Provider) Regions() []string { return slices.Clone(p.regions) }

// Connect implements provider.Client.
func (p *Provider) Connect(_ context.Context, region string) (provider.RegionClient, error) {
	p.record("connect", region)
	if err := p.ConnectErr[region]; err != nil {
		return nil, err
	}
	return &regionClient{p: p, region: region}, nil
}

func (p *Provider) record(verb, region string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[verb]++
	p.order = append(p.order, verb+" "+region)
}

type regionClient struct {
	p      *Provider
	region string
}

func (c *regionClient) Describe(_ context.Context, ids []string, _ provider.DescribeOpts) (map[string]provider.Instance, error) {
	c.p.record("describe", c.region)

	c.p.mu.Lock()
	defer c.p.mu.Unlock()

	var missing []string
	out := make(map[string]provider.Instance, len(ids))
	for _, id := range ids {
		inst, ok := c.p.instances[c.region][id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if inst.settling && !c.p.Stuck {
			if inst.countdown <= 0 {
				inst.State = inst.target
				inst.settling = false
			} else {
				inst.countdown--
			}
		}
		out[id] = provider.Instance{ID: id, State: inst.State, Details: inst.Details}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, provider.Missing(missing, "")
	}
	return out, nil
}

func (c *regionClient) Start(_ context.Context, ids []string, dryRun bool) provider.Result {
	return c.transition("start", ids, dryRun, provider.StatePending, provider.StateRunning)
}

func (c *regionClient) Stop(_ context.Context, ids []string, dryRun bool) provider.Result {
	return c.transition("stop", ids, dryRun, provider.StateStopping, provider.StateStopped)
}

func (c *regionClient) Reboot(_ context.Context, ids []string, dryRun bool) provider.Result {
	return c.transition("reboot", ids, dryRun, provider.StatePending, provider.StateRunning)
}

func (c *regionClient) Terminate(_ context.Context, ids []string, dryRun bool) provider.Result {
	return c.transition("terminate", ids, dryRun, provider.StateShuttingDown, provider.StateTerminated)
}

func (c *regionClient) transition(verb string, ids []string, dryRun bool, interim, target provider.StateCode) provider.Result {
	c.p.record(verb, c.region)

	c.p.mu.Lock()
	defer c.p.mu.Unlock()

	if c.p.VerbErr != nil {
		return provider.Failed(c.p.VerbErr)
	}

	var missing []string
	for _, id := range ids {
		if _, ok := c.p.instances[c.region][id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return provider.Failed(provider.Missing(missing, ""))
	}
	if dryRun {
		return provider.DryRun("Request would have succeeded, but DryRun flag is set.")
	}

	for _, id := range ids {
		inst := c.p.instances[c.region][id]
		inst.State = interim
		inst.target = target
		inst.countdown = c.p.SettleAfter
		inst.settling = true
	}
	return provider.Performed()
}
