// Package handlers implements the business logic behind the CLI commands.
package handlers

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imamik/shepherd/internal/config"
	"github.com/imamik/shepherd/internal/inventory"
	"github.com/imamik/shepherd/internal/logging"
	"github.com/imamik/shepherd/internal/metrics"
	"github.com/imamik/shepherd/internal/orchestration"
	"github.com/imamik/shepherd/internal/platform/ec2"
	"github.com/imamik/shepherd/internal/platform/hcloud"
	"github.com/imamik/shepherd/internal/platform/s3"
	"github.com/imamik/shepherd/internal/provider"
	"github.com/imamik/shepherd/internal/util/rdns"
)

// Invocation is the parsed positional part of the command line.
type Invocation struct {
	Pattern string
	Action  provider.Action
}

// RunOptions carries the flag values of the root command. Zero values
// mean "not given" and fall back to the configuration file.
type RunOptions struct {
	ConfigPath  string
	Inventory   string
	Profile     string
	MetricsFile string
	LogFile     string

	Confirm bool
	DryRun  bool
	Poll    bool
	Running bool
	Stopped bool

	// Interval is in seconds. The *Set fields record whether the
	// numeric flags were given at all.
	Interval       int
	IntervalSet    bool
	MaxPoll        int
	MaxPollSet     bool
	Parallelism    int
	ParallelismSet bool

	Verbose int
	Quiet   int
	Debug   int
}

// Factory function variables - can be replaced in tests.
var (
	loadSettings = config.Load

	newEC2Client = func(ctx context.Context, s *config.Settings, profile string) (provider.Client, error) {
		return ec2.New(ctx, ec2.Options{
			Profile: profile,
			Region:  s.AWS.Region,
			Regions: s.AWS.Regions,
		})
	}

	newHCloudClient = func(ctx context.Context, s *config.Settings) (provider.Client, error) {
		var opts []hcloud.ClientOption
		if s.HCloud.Endpoint != "" {
			opts = append(opts, hcloud.WithEndpoint(s.HCloud.Token, s.HCloud.Endpoint))
		}
		return hcloud.New(ctx, s.HCloud.Token, opts...)
	}

	newFetcher = func(ctx context.Context, s *config.Settings, profile string) (inventory.Fetcher, error) {
		return s3.NewClient(ctx, s3.Options{
			Endpoint:  s.S3.Endpoint,
			Region:    s.S3.Region,
			AccessKey: s.S3.AccessKey,
			SecretKey: s.S3.SecretKey,
			Profile:   profile,
		})
	}

	systemResolver = rdns.System
)

// Run executes one action against the hosts matching inv.Pattern.
//
// Plain output (summaries, status lines, poll progress) goes to stdout.
// Log lines go to stderr, or to the log file when one is configured.
func Run(ctx context.Context, opts RunOptions, inv Invocation, stdout, stderr io.Writer) error {
	settings, err := loadSettings(opts.ConfigPath)
	if err != nil {
		return err
	}

	logOut := stderr
	logFile := firstNonEmpty(opts.LogFile, settings.LogFile)
	if logFile != "" {
		f, err := logging.OpenFile(logFile)
		if err != nil {
			return provider.Wrap(provider.KindConfig, err, "failed to open log file")
		}
		defer func() { _ = f.Close() }()
		logOut = f
	}

	runOpts := buildOptions(opts, settings)
	log := logging.New(logging.Options{Verbose: runOpts.Verbose, Debug: runOpts.Debug, Out: logOut})
	if logFile != "" {
		// Runs append to the same file; tag each line with its run.
		log = log.With().Str("run_id", uuid.New().String()).Logger()
	}
	if err := runOpts.Validate(); err != nil {
		return err
	}
	ctx = log.WithContext(ctx)

	profile := firstNonEmpty(opts.Profile, settings.AWS.Profile)
	path := firstNonEmpty(opts.Inventory, settings.Inventory)

	var fetcher inventory.Fetcher
	if strings.HasPrefix(path, "s3://") {
		fetcher, err = newFetcher(ctx, settings, profile)
		if err != nil {
			return provider.Wrap(provider.KindConfig, err, "failed to configure object storage")
		}
	}

	parsed, err := inventory.Load(ctx, path, fetcher)
	if err != nil {
		return err
	}
	hosts, err := inventory.Collate(parsed, inv.Pattern, log)
	if err != nil {
		return err
	}
	log.Debug().Int("hosts", hosts.Len()).Str("pattern", inv.Pattern).Msg("Collated inventory")

	registry := provider.NewRegistry()
	registry.Register(ec2.Name, func(ctx context.Context) (provider.Client, error) {
		return newEC2Client(ctx, settings, profile)
	})
	registry.Register(hcloud.Name, func(ctx context.Context) (provider.Client, error) {
		return newHCloudClient(ctx, settings)
	})

	recorder := metrics.New()
	run := &orchestration.RunContext{
		Opts:     runOpts,
		Out:      stdout,
		Log:      log,
		Resolver: systemResolver(),
		Metrics:  recorder,
	}

	summary, runErr := orchestration.Execute(ctx, run, registry, hosts, inv.Action)
	if runErr == nil && summary.Poll != nil && summary.Poll.State == orchestration.PollExhausted {
		log.Warn().Int("deviants", summary.Poll.Deviants).Int("iterations", summary.Poll.Iterations).
			Msgf("Giving up: %d instances not in desired state", summary.Poll.Deviants)
	}

	metricsFile := firstNonEmpty(opts.MetricsFile, settings.MetricsFile)
	if err := recorder.WriteTextfile(metricsFile); err != nil {
		log.Error().Err(err).Str("path", metricsFile).Msg("Failed to write metrics")
	}
	return runErr
}

// buildOptions merges flags over settings. Poll interval and max poll
// imply polling when given on the command line.
func buildOptions(opts RunOptions, s *config.Settings) orchestration.Options {
	o := orchestration.DefaultOptions()
	o.DryRun = opts.DryRun
	o.Confirm = opts.Confirm
	o.OnlyRunning = opts.Running
	o.OnlyStopped = opts.Stopped
	o.Poll = opts.Poll
	o.Verbose = 1 + opts.Verbose - opts.Quiet
	o.Debug = opts.Debug

	o.PollInterval = s.PollInterval
	if opts.IntervalSet {
		o.PollInterval = time.Duration(opts.Interval) * time.Second
		o.Poll = true
	}
	o.MaxPoll = s.MaxPoll
	if opts.MaxPollSet {
		o.MaxPoll = opts.MaxPoll
		o.Poll = true
	}
	o.Parallelism = s.Parallelism
	if opts.ParallelismSet {
		o.Parallelism = opts.Parallelism
	}
	return o
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
