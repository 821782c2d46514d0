package auth

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/storefront/internal/domain"
)

// ErrUnknownCapability is returned when a name is not in the registry.
var ErrUnknownCapability = errors.New("unknown capability")

var capabilityPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*$`)

// CapabilityRegistry is the closed set of grantable capability names. Route
// guards and permission edits are checked against it so a typo fails loudly
// instead of silently denying.
type CapabilityRegistry struct {
	known map[domain.Capability]struct{}
}

// NewCapabilityRegistry validates and registers caps.
func NewCapabilityRegistry(caps ...domain.Capability) (*CapabilityRegistry, error) {
	reg := &CapabilityRegistry{known: make(map[domain.Capability]struct{}, len(caps))}
	for _, c := range caps {
		if !capabilityPattern.MatchString(string(c)) {
			return nil, fmt.Errorf("malformed capability %q", c)
		}
		if c == domain.CapabilityCustomerSelf {
			return nil, fmt.Errorf("capability %q is implicit to customers and cannot be registered", c)
		}
		reg.known[c] = struct{}{}
	}
	return reg, nil
}

// DefaultCapabilityRegistry returns the built-in registry.
func DefaultCapabilityRegistry() *CapabilityRegistry {
	reg, err := NewCapabilityRegistry(domain.DefaultCapabilities()...)
	if err != nil {
		panic(err)
	}
	return reg
}

type capabilityFile struct {
	IncludeDefaults bool     `yaml:"include_defaults"`
	Capabilities    []string `yaml:"capabilities"`
}

// LoadCapabilityRegistry reads a YAML registry file. An empty path yields the
// built-in registry.
//
//	include_defaults: true
//	capabilities:
//	  - reports.export
func LoadCapabilityRegistry(path string) (*CapabilityRegistry, error) {
	if path == "" {
		return DefaultCapabilityRegistry(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capability registry: %w", err)
	}
	var file capabilityFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse capability registry: %w", err)
	}

	var caps []domain.Capability
	if file.IncludeDefaults {
		caps = append(caps, domain.DefaultCapabilities()...)
	}
	for _, name := range file.Capabilities {
		caps = append(caps, domain.Capability(name))
	}
	if len(caps) == 0 {
		return nil, errors.New("capability registry is empty")
	}
	return NewCapabilityRegistry(caps...)
}

// Lookup returns the registered capability called name.
func (r *CapabilityRegistry) Lookup(name string) (domain.Capability, error) {
	c := domain.Capability(name)
	if _, ok := r.known[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCapability, name)
	}
	return c, nil
}

// MustLookup is Lookup for route wiring; it panics on unknown names.
func (r *CapabilityRegistry) MustLookup(name string) domain.Capability {
	c, err := r.Lookup(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate resolves every name, deduplicating, and fails on the first unknown one.
func (r *CapabilityRegistry) Validate(names []string) ([]domain.Capability, error) {
	seen := make(map[domain.Capability]struct{}, len(names))
	out := make([]domain.Capability, 0, len(names))
	for _, name := range names {
		c, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// All returns the registered capabilities sorted by name.
func (r *CapabilityRegistry) All() []domain.Capability {
	out := make([]domain.Capability, 0, len(r.known))
	for c := range r.known {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
