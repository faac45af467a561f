package inventory

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

const groupAll = "all"

// Inventory is a parsed static inventory. Hosts keep document order.
type Inventory struct {
	hosts  []*host
	byName map[string]*host
	groups map[string][]string
}

type host struct {
	name      string
	groupVars map[string]any
	hostVars  map[string]any
	groups    []string
}

// Vars returns the effective variables of a host: group variables, with
// deeper groups overriding their parents, then host variables on top.
func (h *host) vars() map[string]any {
	out := make(map[string]any, len(h.groupVars)+len(h.hostVars))
	maps.Copy(out, h.groupVars)
	maps.Copy(out, h.hostVars)
	return out
}

// Parse reads an inventory document in Ansible's YAML layout.
func Parse(data []byte) (*Inventory, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	inv := &Inventory{
		byName: make(map[string]*host),
		groups: make(map[string][]string),
	}
	if len(doc.Content) == 0 {
		return inv, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: inventory must be a mapping of groups", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var ancestors []string
		if name != groupAll {
			ancestors = []string{groupAll}
		}
		if err := inv.parseGroup(name, root.Content[i+1], nil, ancestors); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

func (inv *Inventory) parseGroup(name string, node *yaml.Node, inherited map[string]any, ancestors []string) error {
	if _, ok := inv.groups[name]; !ok {
		inv.groups[name] = nil
	}
	if isNull(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: group %q must be a mapping", node.Line, name)
	}

	var hostsNode, varsNode, childrenNode *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch key := node.Content[i].Value; key {
		case "hosts":
			hostsNode = node.Content[i+1]
		case "vars":
			varsNode = node.Content[i+1]
		case "children":
			childrenNode = node.Content[i+1]
		default:
			return fmt.Errorf("line %d: unknown key %q in group %q", node.Content[i].Line, key, name)
		}
	}

	effective := maps.Clone(inherited)
	if effective == nil {
		effective = make(map[string]any)
	}
	if varsNode != nil && !isNull(varsNode) {
		var vars map[string]any
		if err := varsNode.Decode(&vars); err != nil {
			return fmt.Errorf("line %d: vars of group %q: %w", varsNode.Line, name, err)
		}
		maps.Copy(effective, vars)
	}

	membership := append(slices.Clone(ancestors), name)

	if hostsNode != nil && !isNull(hostsNode) {
		if hostsNode.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: hosts of group %q must be a mapping", hostsNode.Line, name)
		}
		for i := 0; i+1 < len(hostsNode.Content); i += 2 {
			hostName := hostsNode.Content[i].Value
			var vars map[string]any
			if v := hostsNode.Content[i+1]; !isNull(v) {
				if err := v.Decode(&vars); err != nil {
					return fmt.Errorf("line %d: vars of host %q: %w", v.Line, hostName, err)
				}
			}
			inv.addHost(hostName, effective, vars, membership)
		}
	}

	if childrenNode != nil && !isNull(childrenNode) {
		if childrenNode.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: children of group %q must be a mapping", childrenNode.Line, name)
		}
		for i := 0; i+1 < len(childrenNode.Content); i += 2 {
			child := childrenNode.Content[i].Value
			if err := inv.parseGroup(child, childrenNode.Content[i+1], effective, membership); err != nil {
				return err
			}
		}
	}
	return nil
}

func (inv *Inventory) addHost(name string, groupVars, hostVars map[string]any, groups []string) {
	h, ok := inv.byName[name]
	if !ok {
		h = &host{name: name, groupVars: make(map[string]any), hostVars: make(map[string]any)}
		inv.byName[name] = h
		inv.hosts = append(inv.hosts, h)
	}
	maps.Copy(h.groupVars, groupVars)
	maps.Copy(h.hostVars, hostVars)

	for _, g := range groups {
		if !slices.Contains(h.groups, g) {
			h.groups = append(h.groups, g)
		}
		if !slices.Contains(inv.groups[g], name) {
			inv.groups[g] = append(inv.groups[g], name)
		}
	}
}

// HostNames returns every host in document order.
func (inv *Inventory) HostNames() []string {
	names := make([]string, len(inv.hosts))
	for i, h := range inv.hosts {
		names[i] = h.name
	}
	return names
}

// GroupNames returns every group name in sorted order.
func (inv *Inventory) GroupNames() []string {
	return sortedKeys(inv.groups)
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
