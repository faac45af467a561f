package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/shepherd/internal/config"
	"github.com/imamik/shepherd/internal/inventory"
	"github.com/imamik/shepherd/internal/provider"
	"github.com/imamik/shepherd/internal/provider/fakes"
	"github.com/imamik/shepherd/internal/util/rdns"
)

const testInventory = `all:
  children:
    web:
      vars:
        cloud_provider: aws
        cloud_region: us-east-1
      hosts:
        web1:
          cloud_instance_id: i-0001
        web2:
          cloud_instance_id: i-0002
    db:
      vars:
        cloud_provider: hcloud
        cloud_region: fsn1
      hosts:
        db1:
          cloud_instance_id: "42"
    local:
      hosts:
        laptop: {}
`

// fixture wires fake providers behind the handler factories.
type fixture struct {
	aws    *fakes.Provider
	hcloud *fakes.Provider
	dir    string
	path   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testInventory), 0o600))

	t.Setenv(config.EnvConfig, filepath.Join(dir, "missing.yaml"))
	for _, env := range []string{"ANSIBLE_INVENTORY", "ANSIBLE_HOSTS", "AWS_PROFILE", "AWS_DEFAULT_PROFILE", "HCLOUD_TOKEN"} {
		t.Setenv(env, "")
	}

	f := &fixture{
		aws: fakes.New("aws", "us-east-1").
			Add("us-east-1", "i-0001", provider.StateStopped, provider.Details{}).
			Add("us-east-1", "i-0002", provider.StateStopped, provider.Details{}),
		hcloud: fakes.New("hcloud", "fsn1").
			Add("fsn1", "42", provider.StateStopped, provider.Details{}),
		dir:  dir,
		path: path,
	}

	origEC2, origHCloud, origResolver := newEC2Client, newHCloudClient, systemResolver
	t.Cleanup(func() {
		newEC2Client, newHCloudClient, systemResolver = origEC2, origHCloud, origResolver
	})
	newEC2Client = func(context.Context, *config.Settings, string) (provider.Client, error) { return f.aws, nil }
	newHCloudClient = func(context.Context, *config.Settings) (provider.Client, error) { return f.hcloud, nil }
	systemResolver = func() rdns.Resolver { return nil }
	return f
}

func (f *fixture) opts() RunOptions {
	return RunOptions{Inventory: f.path}
}

func TestRun_StartAcrossProviders(t *testing.T) {
	f := newFixture(t)

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), f.opts(), Invocation{Pattern: "web:db", Action: provider.ActionStart}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Equal(t, 1, f.aws.Calls("start"))
	assert.Equal(t, 1, f.hcloud.Calls("start"))
	assert.Equal(t,
		"Running start on instances in region us-east-1 (aws):\n  i-0001, i-0002\n"+
			"Running start on instances in region fsn1 (hcloud):\n  42\n",
		stdout.String())
}

func TestRun_SkipsHostsWithoutCloudInfo(t *testing.T) {
	f := newFixture(t)

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), f.opts(), Invocation{Pattern: "all", Action: provider.ActionStatus}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "host 'laptop' doesn't have necessary cloud info")
	assert.Contains(t, stdout.String(), "us-east-1 (aws)")
}

func TestRun_NoHostsMatched(t *testing.T) {
	f := newFixture(t)

	err := Run(context.Background(), f.opts(), Invocation{Pattern: "nothing", Action: provider.ActionStatus}, &bytes.Buffer{}, &bytes.Buffer{})

	var noHosts *inventory.NoHostsError
	require.ErrorAs(t, err, &noHosts)
	assert.Equal(t, ExitOK, ExitCode(err))
}

func TestRun_InventoryMissing(t *testing.T) {
	f := newFixture(t)
	opts := f.opts()
	opts.Inventory = filepath.Join(f.dir, "nope.yaml")

	err := Run(context.Background(), opts, Invocation{Pattern: "all", Action: provider.ActionStatus}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, ExitInventoryMissing, ExitCode(err))
}

func TestRun_InventoryFromEnvironment(t *testing.T) {
	f := newFixture(t)
	t.Setenv("ANSIBLE_HOSTS", f.path)

	var stdout bytes.Buffer
	err := Run(context.Background(), RunOptions{}, Invocation{Pattern: "db", Action: provider.ActionStatus}, &stdout, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "fsn1 (hcloud)")
}

func TestRun_InvalidOptions(t *testing.T) {
	f := newFixture(t)
	opts := f.opts()
	opts.Running, opts.Stopped = true, true

	err := Run(context.Background(), opts, Invocation{Pattern: "all", Action: provider.ActionStatus}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.True(t, provider.IsKind(err, provider.KindCommandline))
	assert.Zero(t, f.aws.Calls("describe"))
}

func TestRun_KillWithPollAndMetrics(t *testing.T) {
	f := newFixture(t)
	f.aws.SettleAfter = 1
	metricsFile := filepath.Join(f.dir, "shepherd.prom")

	opts := f.opts()
	opts.Confirm = true
	opts.Verbose = 1
	opts.Interval, opts.IntervalSet = 0, true
	opts.MetricsFile = metricsFile

	var stdout bytes.Buffer
	err := Run(context.Background(), opts, Invocation{Pattern: "web", Action: provider.ActionKill}, &stdout, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, provider.StateTerminated, f.aws.State("us-east-1", "i-0001"))
	assert.True(t, strings.HasSuffix(stdout.String(), ". Complete.\n"), stdout.String())

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `shepherd_cohort_actions_total{action="kill",outcome="performed",provider="aws",region="us-east-1"} 1`)
	assert.Contains(t, string(data), "shepherd_poll_converged 1")
}

func TestRun_ExhaustedPollIsReported(t *testing.T) {
	f := newFixture(t)
	f.aws.Stuck = true

	opts := f.opts()
	opts.Interval, opts.IntervalSet = 0, true
	opts.MaxPoll, opts.MaxPollSet = 2, true

	var stderr bytes.Buffer
	err := Run(context.Background(), opts, Invocation{Pattern: "web", Action: provider.ActionStart}, &bytes.Buffer{}, &stderr)

	require.NoError(t, err, "an exhausted wait is not fatal")
	assert.Contains(t, stderr.String(), "Giving up: 2 instances not in desired state")
}

func TestRun_LogFile(t *testing.T) {
	f := newFixture(t)
	logFile := filepath.Join(f.dir, "shepherd.log")
	opts := f.opts()
	opts.LogFile = logFile

	var stderr bytes.Buffer
	err := Run(context.Background(), opts, Invocation{Pattern: "all", Action: provider.ActionKill}, &bytes.Buffer{}, &stderr)

	require.NoError(t, err)
	assert.Empty(t, stderr.String())
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Not killing instances because -y wasn't specified")
	assert.Contains(t, string(data), "run_id=")
	assert.Zero(t, f.aws.Calls("terminate"))
}

func TestRun_ProviderFailure(t *testing.T) {
	f := newFixture(t)
	newEC2Client = func(context.Context, *config.Settings, string) (provider.Client, error) {
		return nil, provider.Wrap(provider.KindProvider, errors.New("no credentials"), "No credentials")
	}

	err := Run(context.Background(), f.opts(), Invocation{Pattern: "web", Action: provider.ActionStop}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, ExitProvider, ExitCode(err))
}

func TestRun_ProfileFromFlagWinsOverEnv(t *testing.T) {
	f := newFixture(t)
	t.Setenv("AWS_PROFILE", "from-env")

	var got string
	newEC2Client = func(_ context.Context, _ *config.Settings, profile string) (provider.Client, error) {
		got = profile
		return f.aws, nil
	}

	opts := f.opts()
	opts.Profile = "from-flag"
	require.NoError(t, Run(context.Background(), opts, Invocation{Pattern: "web", Action: provider.ActionStatus}, &bytes.Buffer{}, &bytes.Buffer{}))
	assert.Equal(t, "from-flag", got)

	opts.Profile = ""
	require.NoError(t, Run(context.Background(), opts, Invocation{Pattern: "web", Action: provider.ActionStatus}, &bytes.Buffer{}, &bytes.Buffer{}))
	assert.Equal(t, "from-env", got)
}

func TestBuildOptions(t *testing.T) {
	s := config.Default()
	s.PollInterval = 9 * time.Second
	s.Parallelism = 3

	o := buildOptions(RunOptions{Verbose: 2, Quiet: 1}, s)
	assert.Equal(t, 2, o.Verbose)
	assert.False(t, o.Poll)
	assert.Equal(t, 9*time.Second, o.PollInterval)
	assert.Equal(t, config.DefaultMaxPoll, o.MaxPoll)
	assert.Equal(t, 3, o.Parallelism)

	o = buildOptions(RunOptions{MaxPoll: 4, MaxPollSet: true, Parallelism: 8, ParallelismSet: true}, s)
	assert.True(t, o.Poll, "max poll implies polling")
	assert.Equal(t, 4, o.MaxPoll)
	assert.Equal(t, 8, o.Parallelism)

	o = buildOptions(RunOptions{Interval: 1, IntervalSet: true, Quiet: 2}, s)
	assert.True(t, o.Poll, "interval implies polling")
	assert.Equal(t, time.Second, o.PollInterval)
	assert.Equal(t, -1, o.Verbose)
}
