// Package strategy implements the moving-average backtest pipeline: rolling
// averages, signal generation, lagged positions, period and strategy returns,
// cumulative returns, and a Runner that repeats the chain over several window
// lengths. A Registry holds the named signal rules available to the pipeline.
package strategy

import (
	"sort"

	"crossover/internal/domain"
)

// Rule classifies a price against its moving average.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Classify returns the signal for a price and its defined moving
	// average at the same timestamp.
	Classify(price, average float64) domain.Signal
}

// Registry holds a named collection of rules for lookup and enumeration.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry creates an empty rule Registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]Rule),
	}
}

// Register adds a rule to the registry, keyed by its Name().
func (r *Registry) Register(rule Rule) {
	r.rules[rule.Name()] = rule
}

// Get retrieves a rule by name. The second return value indicates whether
// the rule was found.
func (r *Registry) Get(name string) (Rule, bool) {
	rule, ok := r.rules[name]
	return rule, ok
}

// List returns a sorted slice of all registered rule names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
