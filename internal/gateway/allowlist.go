package gateway

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed allowlist.yaml
var defaultAllowlistYAML []byte

type allowlistFile struct {
	Prefixes []string `yaml:"prefixes"`
}

// Allowlist is a fixed, ordered set of permitted upstream path prefixes.
// It is built once at startup and never mutated.
type Allowlist struct {
	prefixes []string
}

// NewAllowlist builds an allowlist from explicit prefixes, preserving order.
func NewAllowlist(prefixes []string) *Allowlist {
	cleaned := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		cleaned = append(cleaned, p)
	}
	return &Allowlist{prefixes: cleaned}
}

// DefaultAllowlist parses the embedded route-family table.
func DefaultAllowlist() (*Allowlist, error) {
	var file allowlistFile
	if err := yaml.Unmarshal(defaultAllowlistYAML, &file); err != nil {
		return nil, fmt.Errorf("parse embedded allowlist: %w", err)
	}
	if len(file.Prefixes) == 0 {
		return nil, fmt.Errorf("embedded allowlist is empty")
	}
	return NewAllowlist(file.Prefixes), nil
}

// Allowed reports whether path starts with one of the configured prefixes.
// Ordered linear scan; the first match short-circuits.
func (a *Allowlist) Allowed(path string) bool {
	for _, prefix := range a.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Prefixes returns a copy of the configured prefixes in scan order.
func (a *Allowlist) Prefixes() []string {
	out := make([]string, len(a.prefixes))
	copy(out, a.prefixes)
	return out
}
