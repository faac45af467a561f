package rdns

import (
	"context"
	"net"
	"strings"
	"time"
)

// Resolver is the subset of *net.Resolver used for reverse lookups.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// DefaultTimeout bounds a single reverse lookup.
const DefaultTimeout = 2 * time.Second

// System returns the resolver configured on the host.
func System() Resolver {
	return net.DefaultResolver
}

// FQDN returns the first PTR name of ip without its trailing dot. It
// returns "" when ip is empty, r is nil, or the lookup fails.
func FQDN(ctx context.Context, r Resolver, ip string) string {
	if ip == "" || r == nil || net.ParseIP(ip) == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	names, err := r.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}
