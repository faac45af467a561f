package orchestration

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/imamik/shepherd/internal/inventory"
	"github.com/imamik/shepherd/internal/metrics"
	"github.com/imamik/shepherd/internal/provider"
	"github.com/imamik/shepherd/internal/provider/fakes"
)

// harness bundles a run context whose output and logs are captured.
type harness struct {
	run    *RunContext
	out    *bytes.Buffer
	logs   *syncBuffer
	sleeps int
	mu     sync.Mutex
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()

	opts := DefaultOptions()
	opts.PollInterval = time.Millisecond
	if mutate != nil {
		mutate(&opts)
	}

	h := &harness{out: &bytes.Buffer{}, logs: &syncBuffer{}}
	h.run = &RunContext{
		Opts:    opts,
		Out:     h.out,
		Log:     zerolog.New(h.logs).Level(zerolog.TraceLevel),
		Metrics: metrics.New(),
		Sleep: func(ctx context.Context, _ time.Duration) error {
			h.mu.Lock()
			h.sleeps++
			h.mu.Unlock()
			return ctx.Err()
		},
	}
	return h
}

func registryWith(ps ...*fakes.Provider) *provider.Registry {
	reg := provider.NewRegistry()
	for _, p := range ps {
		reg.Register(p.Name(), func(context.Context) (provider.Client, error) { return p, nil })
	}
	return reg
}

// host describes one inventory entry for hostMap.
type host struct {
	name, provider, region, id string
}

func hostMap(hosts ...host) inventory.HostMap {
	m := make(inventory.HostMap)
	for _, h := range hosts {
		m.Add(inventory.HostRecord{Name: h.name, Provider: h.provider, Region: h.region, InstanceID: h.id})
	}
	return m
}
