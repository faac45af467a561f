package inventory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Fetcher retrieves inventory documents from object storage. A missing
// object must be reported with an error wrapping fs.ErrNotExist.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Load reads and parses the inventory at path. Paths of the form
// s3://bucket/key are fetched through remote.
func Load(ctx context.Context, path string, remote Fetcher) (*Inventory, error) {
	data, err := read(ctx, path, remote)
	if err != nil {
		return nil, err
	}

	inv, err := Parse(data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return inv, nil
}

func read(ctx context.Context, path string, remote Fetcher) ([]byte, error) {
	if rest, ok := strings.CutPrefix(path, "s3://"); ok {
		bucket, key, found := strings.Cut(rest, "/")
		if !found || bucket == "" || key == "" {
			return nil, &Error{Path: path, Err: errors.New("expected s3://bucket/key")}
		}
		if remote == nil {
			return nil, &Error{Path: path, Err: errors.New("object storage is not configured")}
		}
		data, err := remote.Fetch(ctx, bucket, key)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &FileMissingError{Path: path}
			}
			return nil, &Error{Path: path, Err: err}
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileMissingError{Path: path}
		}
		return nil, &Error{Path: path, Err: err}
	}
	return data, nil
}

// Collate matches pattern against inv and groups the hosts that carry
// cloud information by provider and region. Hosts without it are logged
// and skipped.
func Collate(inv *Inventory, pattern string, log zerolog.Logger) (HostMap, error) {
	names, err := inv.Match(pattern)
	if err != nil {
		return nil, &Error{Err: err}
	}
	if len(names) == 0 {
		return nil, &NoHostsError{Pattern: pattern}
	}

	hosts := make(HostMap)
	for _, name := range names {
		h := inv.byName[name]
		vars := h.vars()

		provider := stringVar(vars, VarProvider)
		region := stringVar(vars, VarRegion)
		id := stringVar(vars, VarInstanceID)
		if provider == "" || region == "" || id == "" {
			log.Warn().Str("host", name).Msgf("host '%s' doesn't have necessary cloud info", name)
			continue
		}

		hosts.Add(HostRecord{
			Name:       name,
			Provider:   provider,
			Region:     region,
			InstanceID: id,
			Groups:     h.groups,
			Vars:       vars,
		})
	}
	return hosts, nil
}

func stringVar(vars map[string]any, key string) string {
	v, ok := vars[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}
