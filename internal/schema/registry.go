package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry resolves an operator name to its declared schemas.
//
// Multiple overloads may share a name; resolution picks the first overload,
// in declaration order, whose arity accepts the given argument count.
//
// A Registry is immutable once handed to consumers and safe for concurrent
// reads. Register calls must not race with lookups.
type Registry struct {
	byName map[string][]*Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string][]*Schema)}
}

// Register parses and adds one declaration.
func (r *Registry) Register(signature string) (*Schema, error) {
	s, err := Parse(signature)
	if err != nil {
		return nil, err
	}
	r.byName[s.Name] = append(r.byName[s.Name], s)
	return s, nil
}

// MustRegister is Register for statically known declarations.
func (r *Registry) MustRegister(signature string) *Schema {
	s, err := r.Register(signature)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup resolves kind with nargs arguments to a schema, or nil.
//
// kind may carry a namespace qualifier ("aten::add_"); only the unqualified
// name participates in resolution.
func (r *Registry) Lookup(kind string, nargs int) *Schema {
	name := kind
	if i := strings.LastIndex(kind, "::"); i >= 0 {
		name = kind[i+2:]
	}
	for _, s := range r.byName[name] {
		if len(s.Arguments) == nargs || (s.IsVararg && nargs >= len(s.Arguments)) {
			return s
		}
	}
	return nil
}

// Names returns all registered operator names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered schemas across all names.
func (r *Registry) Len() int {
	n := 0
	for _, overloads := range r.byName {
		n += len(overloads)
	}
	return n
}

// File is the YAML shape of a registry declaration file.
type File struct {
	Operators []Declaration `yaml:"operators"`
}

// Declaration is one operator entry in a registry file.
type Declaration struct {
	Signature string `yaml:"signature"`
}

// Load parses YAML declarations and registers each signature.
func (r *Registry) Load(data []byte) error {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decoding registry file: %w", err)
	}
	for i, decl := range f.Operators {
		if strings.TrimSpace(decl.Signature) == "" {
			return fmt.Errorf("operators[%d]: empty signature", i)
		}
		if _, err := r.Register(decl.Signature); err != nil {
			return fmt.Errorf("operators[%d]: %w", i, err)
		}
	}
	return nil
}

// LoadFile reads path and calls Load.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return r.Load(data)
}
