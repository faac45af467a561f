package provider

import (
	"context"
	"time"
)

// Client is one provider backend, already holding an authenticated session.
type Client interface {
	// Name returns the provider tag, as used in the inventory.
	Name() string
	// Regions returns the regions the session may address. It is used to
	// reject an unknown region before any network call is made.
	Regions() []string
	// Connect returns a client scoped to region.
	Connect(ctx context.Context, region string) (RegionClient, error)
}

// RegionClient performs the describe and lifecycle verbs in one region.
type RegionClient interface {
	Describe(ctx context.Context, ids []string, opts DescribeOpts) (map[string]Instance, error)
	Start(ctx context.Context, ids []string, dryRun bool) Result
	Stop(ctx context.Context, ids []string, dryRun bool) Result
	Reboot(ctx context.Context, ids []string, dryRun bool) Result
	// Terminate is only ever called when the caller confirmed it.
	Terminate(ctx context.Context, ids []string, dryRun bool) Result
}

// DescribeOpts tunes a Describe call.
type DescribeOpts struct {
	// Detailed asks for extended fields that may cost extra requests,
	// such as the names of network containers.
	Detailed bool
}

// Instance is one observed instance.
type Instance struct {
	ID      string
	State   StateCode
	Details Details
}

// Details holds descriptive fields for full status output. A zero value
// means the provider did not supply the field.
type Details struct {
	InstanceType     string
	AvailabilityZone string
	PrivateIP        string
	PublicIP         string
	IPv6             string
	FQDN             string
	// Network describes the network container (VPC, private network).
	Network    string
	ImageID    string
	LaunchTime time.Time
}
