package ec2

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/shepherd/internal/provider"
)

// Describe implements provider.RegionClient. IDs unknown to EC2 are
// simply absent from the result.
func (c *regionClient) Describe(ctx context.Context, ids []string, opts provider.DescribeOpts) (map[string]provider.Instance, error) {
	out := make(map[string]provider.Instance, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var raw []types.Instance
	err := c.call(ctx, ids, func(ctx context.Context) error {
		raw = raw[:0]
		pages := ec2.NewDescribeInstancesPaginator(c.api, &ec2.DescribeInstancesInput{InstanceIds: ids})
		for pages.HasMorePages() {
			page, err := pages.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, r := range page.Reservations {
				raw = append(raw, r.Instances...)
			}
		}
		return nil
	})
	if err != nil {
		if provider.IsKind(err, provider.KindMissingInstance) {
			// A single unknown ID fails the whole request. Drop the
			// offenders and ask again for the rest.
			rest := without(ids, provider.MissingIDs(err))
			if len(rest) < len(ids) {
				return c.Describe(ctx, rest, opts)
			}
		}
		return nil, err
	}

	var names map[string]string
	if opts.Detailed {
		names = c.networkNames(ctx, raw)
	}

	for _, inst := range raw {
		id := aws.ToString(inst.InstanceId)
		if id == "" {
			continue
		}
		out[id] = provider.Instance{
			ID:      id,
			State:   stateOf(inst.State),
			Details: detailsOf(inst, names),
		}
	}
	return out, nil
}

func stateOf(s *types.InstanceState) provider.StateCode {
	if s == nil || s.Code == nil {
		return provider.StatePending
	}
	// The high byte is reserved for internal use.
	return provider.StateCode(*s.Code & 0xFF)
}

func detailsOf(inst types.Instance, names map[string]string) provider.Details {
	d := provider.Details{
		InstanceType: string(inst.InstanceType),
		PrivateIP:    aws.ToString(inst.PrivateIpAddress),
		PublicIP:     aws.ToString(inst.PublicIpAddress),
		IPv6:         aws.ToString(inst.Ipv6Address),
		FQDN:         aws.ToString(inst.PublicDnsName),
		ImageID:      aws.ToString(inst.ImageId),
		LaunchTime:   aws.ToTime(inst.LaunchTime),
	}
	if inst.Placement != nil {
		d.AvailabilityZone = aws.ToString(inst.Placement.AvailabilityZone)
	}

	var parts []string
	for _, id := range []string{aws.ToString(inst.VpcId), aws.ToString(inst.SubnetId)} {
		if id == "" {
			continue
		}
		if name := names[id]; name != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", id, name))
		} else {
			parts = append(parts, id)
		}
	}
	d.Network = strings.Join(parts, ", ")
	return d
}

// networkNames resolves the Name tags of the VPCs and subnets the
// instances live in. Lookup failures leave the names out.
func (c *regionClient) networkNames(ctx context.Context, instances []types.Instance) map[string]string {
	var vpcs, subnets []string
	for _, inst := range instances {
		if id := aws.ToString(inst.VpcId); id != "" && !slices.Contains(vpcs, id) {
			vpcs = append(vpcs, id)
		}
		if id := aws.ToString(inst.SubnetId); id != "" && !slices.Contains(subnets, id) {
			subnets = append(subnets, id)
		}
	}
	sort.Strings(vpcs)
	sort.Strings(subnets)

	names := make(map[string]string)
	if len(vpcs) > 0 {
		var out *ec2.DescribeVpcsOutput
		err := c.call(ctx, nil, func(ctx context.Context) error {
			var err error
			out, err = c.api.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{VpcIds: vpcs})
			return err
		})
		if err == nil {
			for _, v := range out.Vpcs {
				names[aws.ToString(v.VpcId)] = nameTag(v.Tags)
			}
		}
	}
	if len(subnets) > 0 {
		var out *ec2.DescribeSubnetsOutput
		err := c.call(ctx, nil, func(ctx context.Context) error {
			var err error
			out, err = c.api.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{SubnetIds: subnets})
			return err
		})
		if err == nil {
			for _, s := range out.Subnets {
				names[aws.ToString(s.SubnetId)] = nameTag(s.Tags)
			}
		}
	}
	return names
}

func nameTag(tags []types.Tag) string {
	for _, t := range tags {
		if aws.ToString(t.Key) == "Name" {
			return aws.ToString(t.Value)
		}
	}
	return ""
}

func without(ids, drop []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(drop, id) {
			out = append(out, id)
		}
	}
	return out
}
