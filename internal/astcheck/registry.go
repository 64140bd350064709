// Package astcheck holds the built-in rules that inspect the syntax tree.
package astcheck

import (
	"sort"

	"github.com/chris-regnier/mallet/internal/lint"
)

// Registry holds a set of rules keyed by identifier.
type Registry struct {
	rules map[string]lint.Rule
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]lint.Rule)}
}

// Register adds a rule to the registry, keyed by its description ID.
func (r *Registry) Register(rule lint.Rule) {
	r.rules[rule.Description().ID] = rule
}

// Get retrieves a rule by identifier.
func (r *Registry) Get(id string) (lint.Rule, bool) {
	rule, ok := r.rules[id]
	return rule, ok
}

// Names returns all registered rule identifiers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered rules ordered by identifier.
func (r *Registry) All() []lint.Rule {
	names := r.Names()
	out := make([]lint.Rule, len(names))
	for i, name := range names {
		out[i] = r.rules[name]
	}
	return out
}
