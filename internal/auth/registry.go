package auth

import (
	"fmt"
	"path"
	"strings"
)

// Registry is the set of path prefixes that require a resolved identity.
// It is built once at startup and never modified, so concurrent reads need
// no locking.
type Registry struct {
	version  string
	prefixes []string
}

// NewRegistry normalises and validates prefixes. Overlapping entries are
// rejected: any match is sufficient, so an overlap would only hide drift.
func NewRegistry(version string, prefixes []string) (*Registry, error) {
	r := &Registry{version: version}
	for _, raw := range prefixes {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.HasPrefix(raw, "/") {
			return nil, fmt.Errorf("registry: prefix %q must start with '/'", raw)
		}
		p := NormalizePath(raw)
		if p == "/" {
			return nil, fmt.Errorf("registry: root prefix would protect every path")
		}
		for _, existing := range r.prefixes {
			if hasSegmentPrefix(p, existing) || hasSegmentPrefix(existing, p) {
				return nil, fmt.Errorf("registry: prefix %q overlaps %q", p, existing)
			}
		}
		r.prefixes = append(r.prefixes, p)
	}
	return r, nil
}

func (r *Registry) Version() string { return r.version }

// Prefixes returns a copy of the registered prefixes in registration order.
func (r *Registry) Prefixes() []string {
	out := make([]string, len(r.prefixes))
	copy(out, r.prefixes)
	return out
}

// Match reports the registered prefix covering urlPath, if any.
func (r *Registry) Match(urlPath string) (string, bool) {
	p := NormalizePath(urlPath)
	for _, prefix := range r.prefixes {
		if hasSegmentPrefix(p, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// Protects is Match without the prefix.
func (r *Registry) Protects(urlPath string) bool {
	_, ok := r.Match(urlPath)
	return ok
}

// NormalizePath cleans dot segments and duplicate or trailing slashes so
// that "/dashboard3/", "//dashboard3" and "/x/../dashboard3" all compare equal.
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// hasSegmentPrefix matches whole path segments only: "/dashboard3" covers
// "/dashboard3/settings" but not "/dashboard30".
func hasSegmentPrefix(p, prefix string) bool {
	if !strings.HasPrefix(p, prefix) {
		return false
	}
	return len(p) == len(prefix) || p[len(prefix)] == '/'
}
