package inventory

import "sort"

// Inventory variables that place a host in a cohort.
const (
	VarProvider   = "cloud_provider"
	VarRegion     = "cloud_region"
	VarInstanceID = "cloud_instance_id"
)

// HostRecord identifies one managed instance.
type HostRecord struct {
	Name       string
	Provider   string
	Region     string
	InstanceID string
	Groups     []string
	Vars       map[string]any
}

// HostMap groups hosts as provider -> region -> instance ID -> host.
// It is built once per run and only read afterwards.
type HostMap map[string]map[string]map[string]HostRecord

// Add files h under its provider, region and instance ID.
func (m HostMap) Add(h HostRecord) {
	if m[h.Provider] == nil {
		m[h.Provider] = make(map[string]map[string]HostRecord)
	}
	if m[h.Provider][h.Region] == nil {
		m[h.Provider][h.Region] = make(map[string]HostRecord)
	}
	m[h.Provider][h.Region][h.InstanceID] = h
}

// Providers returns the provider tags in sorted order.
func (m HostMap) Providers() []string {
	return sortedKeys(m)
}

// Regions returns the regions of provider in sorted order.
func (m HostMap) Regions(provider string) []string {
	return sortedKeys(m[provider])
}

// IDs returns the instance IDs of one provider and region in sorted order.
func (m HostMap) IDs(provider, region string) []string {
	return sortedKeys(m[provider][region])
}

// Hosts returns the id -> host mapping of one provider and region.
func (m HostMap) Hosts(provider, region string) map[string]HostRecord {
	return m[provider][region]
}

// Len returns the number of hosts across all providers and regions.
func (m HostMap) Len() int {
	n := 0
	for _, regions := range m {
		for _, hosts := range regions {
			n += len(hosts)
		}
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
