package hcloud

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/rs/zerolog"

	"github.com/imamik/shepherd/internal/config"
	"github.com/imamik/shepherd/internal/provider"
	"github.com/imamik/shepherd/internal/util/retry"
)

// Name is the provider tag used in inventories.
const Name = "hcloud"

// Client is the "hcloud" provider.
type Client struct {
	client   *hcloud.Client
	timeouts *config.Timeouts
	regions  []string

	mu sync.Mutex
	// deleted holds the ids of servers deleted during this run.
	deleted map[int64]bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *Client) {
		c.timeouts = t
	}
}

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRegions pins the addressable locations instead of listing them.
func WithRegions(regions ...string) ClientOption {
	return func(c *Client) {
		c.regions = slices.Clone(regions)
	}
}

// WithEndpoint points the client at a different API endpoint.
func WithEndpoint(token, endpoint string) ClientOption {
	return func(c *Client) {
		c.client = hcloud.NewClient(hcloud.WithToken(token), hcloud.WithEndpoint(endpoint))
	}
}

// New creates the provider. Without pinned regions the location list is
// fetched from the API, which also verifies the token.
func New(ctx context.Context, token string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		timeouts: config.LoadTimeouts(),
		deleted:  make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		if token == "" {
			return nil, provider.Errorf(provider.KindProvider, "No credentials: set HCLOUD_TOKEN or hcloud.token")
		}
		c.client = hcloud.NewClient(hcloud.WithToken(token), hcloud.WithApplication("shepherd", ""))
	}

	if len(c.regions) == 0 {
		var locations []*hcloud.Location
		err := c.call(ctx, nil, func(ctx context.Context) error {
			var err error
			locations, err = c.client.Location.All(ctx)
			return err
		})
		if err != nil {
			if provider.IsKind(err, provider.KindAuth) || provider.IsKind(err, provider.KindNetwork) {
				return nil, err
			}
			return nil, provider.Wrap(provider.KindProvider, err, "failed to list hcloud locations")
		}
		for _, l := range locations {
			c.regions = append(c.regions, l.Name)
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
	return &regionClient{Client: c, location: region}, nil
}

func (c *Client) markDeleted(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted[id] = true
}

func (c *Client) wasDeleted(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleted[id]
}

// call runs op with the API timeout and retries transient failures. The
// returned error is already classified.
func (c *Client) call(ctx context.Context, ids []string, op func(ctx context.Context) error) error {
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
			zerolog.Ctx(ctx).Debug().Err(err).Strs("ids", ids).Int("attempt", attempt).
				Dur("delay", delay).Msg("Retrying hcloud request")
		}),
	)
}
