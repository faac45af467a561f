package inventory

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Match resolves an Ansible host pattern and returns the matching host
// names in inventory order.
//
// Terms are separated by ':' or ','. A term is "all" or "*", a group name,
// a host name, a glob, or a regular expression prefixed with '~'. Plain
// terms are unioned first, then '&' terms intersect the result and '!'
// terms remove hosts from it.
func (inv *Inventory) Match(pattern string) ([]string, error) {
	var unions, intersections, exclusions []string
	for _, term := range splitPattern(pattern) {
		switch {
		case strings.HasPrefix(term, "!"):
			exclusions = append(exclusions, term[1:])
		case strings.HasPrefix(term, "&"):
			intersections = append(intersections, term[1:])
		default:
			unions = append(unions, term)
		}
	}

	selected := make(map[string]bool)
	for _, term := range unions {
		hosts, err := inv.matchTerm(term)
		if err != nil {
			return nil, err
		}
		for _, h := range hosts {
			selected[h] = true
		}
	}
	for _, term := range intersections {
		hosts, err := inv.matchTerm(term)
		if err != nil {
			return nil, err
		}
		keep := make(map[string]bool, len(hosts))
		for _, h := range hosts {
			keep[h] = true
		}
		for h := range selected {
			if !keep[h] {
				delete(selected, h)
			}
		}
	}
	for _, term := range exclusions {
		hosts, err := inv.matchTerm(term)
		if err != nil {
			return nil, err
		}
		for _, h := range hosts {
			delete(selected, h)
		}
	}

	var out []string
	for _, h := range inv.hosts {
		if selected[h.name] {
			out = append(out, h.name)
		}
	}
	return out, nil
}

func (inv *Inventory) matchTerm(term string) ([]string, error) {
	if term == groupAll || term == "*" {
		return inv.HostNames(), nil
	}
	if members, ok := inv.groups[term]; ok {
		return members, nil
	}
	if _, ok := inv.byName[term]; ok {
		return []string{term}, nil
	}

	var match func(string) bool
	switch {
	case strings.HasPrefix(term, "~"):
		re, err := regexp.Compile(term[1:])
		if err != nil {
			return nil, fmt.Errorf("invalid host pattern %q: %w", term, err)
		}
		match = re.MatchString
	case strings.ContainsAny(term, "*?["):
		if _, err := path.Match(term, ""); err != nil {
			return nil, fmt.Errorf("invalid host pattern %q: %w", term, err)
		}
		match = func(s string) bool {
			ok, _ := path.Match(term, s)
			return ok
		}
	default:
		return nil, nil
	}

	var out []string
	for _, g := range inv.GroupNames() {
		if match(g) {
			out = append(out, inv.groups[g]...)
		}
	}
	for _, h := range inv.hosts {
		if match(h.name) {
			out = append(out, h.name)
		}
	}
	return out, nil
}

func splitPattern(pattern string) []string {
	fields := strings.FieldsFunc(pattern, func(r rune) bool {
		return r == ':' || r == ','
	})
	terms := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}
