package hcloud

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/shepherd/internal/provider"
)

// regionClient addresses the servers of one location.
type regionClient struct {
	*Client
	location string
}

var statusCodes = map[hcloud.ServerStatus]provider.StateCode{
	hcloud.ServerStatusInitializing: provider.StatePending,
	hcloud.ServerStatusStarting:     provider.StatePending,
	hcloud.ServerStatusMigrating:    provider.StatePending,
	hcloud.ServerStatusRebuilding:   provider.StatePending,
	hcloud.ServerStatusUnknown:      provider.StatePending,
	hcloud.ServerStatusRunning:      provider.StateRunning,
	hcloud.ServerStatusStopping:     provider.StateStopping,
	hcloud.ServerStatusOff:          provider.StateStopped,
	hcloud.ServerStatusDeleting:     provider.StateShuttingDown,
}

func stateOf(status hcloud.ServerStatus) provider.StateCode {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return provider.StatePending
}

// parseID converts an inventory id. Malformed ids report false.
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// lookup fetches the server behind id. A nil server with a nil error
// means it does not exist in this location.
func (c *regionClient) lookup(ctx context.Context, id string) (*hcloud.Server, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	var server *hcloud.Server
	err := c.call(ctx, []string{id}, func(ctx context.Context) error {
		var err error
		server, _, err = c.client.Server.GetByID(ctx, n)
		return err
	})
	if err != nil {
		if provider.IsKind(err, provider.KindMissingInstance) {
			return nil, nil
		}
		return nil, err
	}
	if server != nil && locationOf(server) != "" && locationOf(server) != c.location {
		return nil, nil
	}
	return server, nil
}

func locationOf(s *hcloud.Server) string {
	if s.Datacenter != nil && s.Datacenter.Location != nil {
		return s.Datacenter.Location.Name
	}
	return ""
}

// Describe implements provider.RegionClient.
func (c *regionClient) Describe(ctx context.Context, ids []string, opts provider.DescribeOpts) (map[string]provider.Instance, error) {
	out := make(map[string]provider.Instance, len(ids))
	networks := make(map[int64]string)

	for _, id := range ids {
		server, err := c.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if server == nil {
			if n, ok := parseID(id); ok && c.wasDeleted(n) {
				out[id] = provider.Instance{ID: id, State: provider.StateTerminated}
			}
			continue
		}

		inst := provider.Instance{
			ID:      id,
			State:   stateOf(server.Status),
			Details: detailsOf(server),
		}
		if opts.Detailed {
			inst.Details.Network = c.networkNames(ctx, server, networks)
		}
		out[id] = inst
	}
	return out, nil
}

func detailsOf(s *hcloud.Server) provider.Details {
	d := provider.Details{
		AvailabilityZone: locationOf(s),
		LaunchTime:       s.Created,
	}
	if s.ServerType != nil {
		d.InstanceType = s.ServerType.Name
	}
	if s.Datacenter != nil && s.Datacenter.Name != "" {
		d.AvailabilityZone = s.Datacenter.Name
	}
	if ip := s.PublicNet.IPv4.IP; ip != nil && !ip.IsUnspecified() {
		d.PublicIP = ip.String()
		d.FQDN = s.PublicNet.IPv4.DNSPtr
	}
	if n := s.PublicNet.IPv6.Network; n != nil {
		d.IPv6 = n.String()
	} else if ip := s.PublicNet.IPv6.IP; ip != nil && !ip.IsUnspecified() {
		d.IPv6 = ip.String()
	}
	if len(s.PrivateNet) > 0 && s.PrivateNet[0].IP != nil {
		d.PrivateIP = s.PrivateNet[0].IP.String()
	}
	if s.Image != nil {
		d.ImageID = s.Image.Name
		if d.ImageID == "" {
			d.ImageID = strconv.FormatInt(s.Image.ID, 10)
		}
	}

	var nets []string
	for _, pn := range s.PrivateNet {
		if pn.Network != nil {
			nets = append(nets, strconv.FormatInt(pn.Network.ID, 10))
		}
	}
	d.Network = strings.Join(nets, ", ")
	return d
}

// networkNames renders the private networks of s with their names.
// cache is shared across the servers of one Describe call.
func (c *regionClient) networkNames(ctx context.Context, s *hcloud.Server, cache map[int64]string) string {
	var parts []string
	for _, pn := range s.PrivateNet {
		if pn.Network == nil {
			continue
		}
		id := pn.Network.ID
		name, ok := cache[id]
		if !ok {
			var network *hcloud.Network
			err := c.call(ctx, nil, func(ctx context.Context) error {
				var err error
				network, _, err = c.client.Network.GetByID(ctx, id)
				return err
			})
			if err == nil && network != nil {
				name = network.Name
			}
			cache[id] = name
		}
		if name != "" {
			parts = append(parts, fmt.Sprintf("%d (%s)", id, name))
		} else {
			parts = append(parts, strconv.FormatInt(id, 10))
		}
	}
	return strings.Join(parts, ", ")
}

// resolve looks up every id, failing with a missing-instance error that
// names all ids the location does not know.
func (c *regionClient) resolve(ctx context.Context, ids []string) ([]*hcloud.Server, error) {
	servers := make([]*hcloud.Server, 0, len(ids))
	var missing []string
	for _, id := range ids {
		server, err := c.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if server == nil {
			missing = append(missing, id)
			continue
		}
		servers = append(servers, server)
	}
	if len(missing) > 0 {
		return nil, provider.Missing(missing, "")
	}
	return servers, nil
}

// verb resolves ids and applies op to each server in order.
func (c *regionClient) verb(ctx context.Context, ids []string, dryRun bool, op func(ctx context.Context, s *hcloud.Server) error) provider.Result {
	servers, err := c.resolve(ctx, ids)
	if err != nil {
		return provider.Failed(err)
	}
	if dryRun {
		return provider.DryRun("")
	}
	for _, s := range servers {
		id := strconv.FormatInt(s.ID, 10)
		if err := c.call(ctx, []string{id}, func(ctx context.Context) error { return op(ctx, s) }); err != nil {
			return provider.Failed(err)
		}
	}
	return provider.Performed()
}

func (c *regionClient) Start(ctx context.Context, ids []string, dryRun bool) provider.Result {
	return c.verb(ctx, ids, dryRun, func(ctx context.Context, s *hcloud.Server) error {
		_, _, err := c.client.Server.Poweron(ctx, s)
		return err
	})
}

// Stop requests a graceful ACPI shutdown.
func (c *regionClient) Stop(ctx context.Context, ids []string, dryRun bool) provider.Result {
	return c.verb(ctx, ids, dryRun, func(ctx context.Context, s *hcloud.Server) error {
		_, _, err := c.client.Server.Shutdown(ctx, s)
		return err
	})
}

func (c *regionClient) Reboot(ctx context.Context, ids []string, dryRun bool) provider.Result {
	return c.verb(ctx, ids, dryRun, func(ctx context.Context, s *hcloud.Server) error {
		_, _, err := c.client.Server.Reboot(ctx, s)
		return err
	})
}

func (c *regionClient) Terminate(ctx context.Context, ids []string, dryRun bool) provider.Result {
	return c.verb(ctx, ids, dryRun, func(ctx context.Context, s *hcloud.Server) error {
		if _, _, err := c.client.Server.DeleteWithResult(ctx, s); err != nil {
			return err
		}
		c.markDeleted(s.ID)
		return nil
	})
}
