package ec2

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/rs/zerolog"

	"github.com/imamik/shepherd/internal/config"
	"github.com/imamik/shepherd/internal/provider"
	"github.com/imamik/shepherd/internal/util/retry"
)

// Name is the provider tag used in inventories.
const Name = "aws"

const defaultRegion = "us-east-1"

// API is the subset of the EC2 client used by the provider.
type API interface {
	ec2.DescribeInstancesAPIClient
	DescribeRegions(ctx context.Context, in *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
	DescribeVpcs(ctx context.Context, in *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error)
	DescribeSubnets(ctx context.Context, in *ec2.DescribeSubnetsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error)
	StartInstances(ctx context.Context, in *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, in *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
	RebootInstances(ctx context.Context, in *ec2.RebootInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RebootInstancesOutput, error)
	TerminateInstances(ctx context.Context, in *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
}

// Options configures New.
type Options struct {
	// Profile is the shared configuration profile. Empty uses the default chain.
	Profile string
	// Region is the home region of the session.
	Region string
	// Regions pins the addressable regions instead of asking DescribeRegions.
	Regions []string
	// Timeouts defaults to config.LoadTimeouts().
	Timeouts *config.Timeouts
}

// Client is the "aws" provider.
type Client struct {
	regions  []string
	newAPI   func(region string) API
	timeouts *config.Timeouts
}

// New loads the shared AWS configuration, verifies that credentials
// resolve and determines the region list.
func New(ctx context.Context, opts Options) (*Client, error) {
	region := opts.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithDefaultRegion(region)}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, provider.Wrap(provider.KindProvider, err, "failed to load AWS config")
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, provider.Wrap(provider.KindProvider, err, "No credentials")
	}

	newAPI := func(region string) API {
		return ec2.NewFromConfig(cfg, func(o *ec2.Options) { o.Region = region })
	}
	return newClient(ctx, newAPI, cfg.Region, opts)
}

func newClient(ctx context.Context, newAPI func(string) API, home string, opts Options) (*Client, error) {
	c := &Client{
		regions:  slices.Clone(opts.Regions),
		newAPI:   newAPI,
		timeouts: opts.Timeouts,
	}
	if c.timeouts == nil {
		c.timeouts = config.LoadTimeouts()
	}
	if len(c.regions) > 0 {
		sort.Strings(c.regions)
		return c, nil
	}

	rc := c.regionClient(home)
	var out *ec2.DescribeRegionsOutput
	err := rc.call(ctx, nil, func(ctx context.Context) error {
		var err error
		out, err = rc.api.DescribeRegions(ctx, &ec2.DescribeRegionsInput{AllRegions: aws.Bool(false)})
		return err
	})
	if err != nil {
		if provider.IsKind(err, provider.KindAuth) || provider.IsKind(err, provider.KindNetwork) {
			return nil, err
		}
		return nil, provider.Wrap(provider.KindProvider, err, "failed to list AWS regions")
	}
	for _, r := range out.Regions {
		if r.RegionName != nil {
			c.regions = append(c.regions, *r.RegionName)
		}
	}
	sort.Strings(c.regions)
	return c, nil
}

// Name implements provider.Client.
func (c *Client) Name() string { return Name }

// Regions implements provider.Client.
func (c *Client) Regions() []string { return slices.Clone(c.regions) }

// Connect implements provider.Client.
func (c *Client) Connect(_ context.Context, region string) (provider.RegionClient, error) {
	return c.regionClient(region), nil
}

func (c *Client) regionClient(region string) *regionClient {
	return &regionClient{
		api:      c.newAPI(region),
		region:   region,
		timeouts: c.timeouts,
	}
}

type regionClient struct {
	api      API
	region   string
	timeouts *config.Timeouts
}

// call runs op with the API timeout, retrying throttled and transient
// failures. The returned error is already classified. Retries are logged
// at debug level to the logger carried by ctx.
func (c *regionClient) call(ctx context.Context, ids []string, op func(ctx context.Context) error) error {
	return retry.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeouts.API)
		defer cancel()

		classified, retryable := classify(op(callCtx), ids)
		if classified == nil || retryable {
			return classified
		}
		return retry.Fatal(classified)
	},
		retry.WithMaxRetries(c.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(c.timeouts.RetryInitialDelay),
		retry.WithMaxDelay(30*time.Second),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			zerolog.Ctx(ctx).Debug().Err(err).Str("region", c.region).Int("attempt", attempt).
				Dur("delay", delay).Msg("Retrying EC2 request")
		}),
	)
}

// verb runs a lifecycle request and folds the reply into a Result.
func (c *regionClient) verb(ctx context.Context, ids []string, op func(ctx context.Context) error) provider.Result {
	err := c.call(ctx, ids, op)
	if err == nil {
		return provider.Performed()
	}
	var dry *dryRunError
	if errors.As(err, &dry) {
		return provider.DryRun(dry.msg)
	}
	return provider.Failed(err)
}

func (c *regionClient) Start(ctx context.Context, ids []string, dryRun bool) provider.Result {
	return c.verb(ctx, ids, func(ctx context.Context) error {
		_, err := c.api.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: ids, DryRun: aws.Bool(dryRun)})
		return err
	})
}

func (c *regionClient) Stop(ctx context.Context, ids []string, dryRun bool) provider.Result {
	return c.verb(ctx, ids, func(ctx context.Context) error {
		_, err := c.api.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: ids, DryRun: aws.Bool(dryRun)})
		return err
	})
}

func (c *regionClient) Reboot(ctx context.Context, ids []string, dryRun bool) provider.Result {
	return c.verb(ctx, ids, func(ctx context.Context) error {
		_, err := c.api.RebootInstances(ctx, &ec2.RebootInstancesInput{InstanceIds: ids, DryRun: aws.Bool(dryRun)})
		return err
	})
}

func (c *regionClient) Terminate(ctx context.Context, ids []string, dryRun bool) provider.Result {
	return c.verb(ctx, ids, func(ctx context.Context) error {
		_, err := c.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: ids, DryRun: aws.Bool(dryRun)})
		return err
	})
}

func (c *regionClient) String() string {
	return fmt.Sprintf("%s/%s", Name, c.region)
}
