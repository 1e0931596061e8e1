package suite

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the registered cases in registration order.
type Registry struct {
	mu     sync.RWMutex
	cases  []Case
	byName map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds a case. Names must be unique and every case needs a Run func.
func (r *Registry) Register(c Case) error {
	if c.Name == "" {
		return fmt.Errorf("case name cannot be empty")
	}
	if c.Run == nil {
		return fmt.Errorf("case %q has no run function", c.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[c.Name]; exists {
		return fmt.Errorf("case %q is already registered", c.Name)
	}
	r.byName[c.Name] = len(r.cases)
	r.cases = append(r.cases, c)
	return nil
}

// MustRegister registers cases and panics on the first error. Intended for
// package-level case tables.
func (r *Registry) MustRegister(cases ...Case) {
	for _, c := range cases {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Get returns the case with the given name.
func (r *Registry) Get(name string) (Case, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byName[name]
	if !ok {
		return Case{}, false
	}
	return r.cases[i], true
}

// Cases returns every case in registration order.
func (r *Registry) Cases() []Case {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Case(nil), r.cases...)
}

// Categories returns the distinct categories, sorted.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, c := range r.cases {
		if !seen[c.Category] {
			seen[c.Category] = true
			out = append(out, c.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Select returns the cases matching f, in registration order.
func (r *Registry) Select(f Filter) ([]Case, error) {
	m, err := f.Compile()
	if err != nil {
		return nil, err
	}
	var out []Case
	for _, c := range r.Cases() {
		if m.Matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}
