package suite

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Filter selects cases by name patterns and category.
//
// Patterns are globs matched against both the bare name ("login-*") and the
// qualified ID ("auth/*"). Exclude patterns take precedence over Include.
// An empty Include selects everything not excluded.
type Filter struct {
	Include    []string
	Exclude    []string
	Categories []string
}

// Matcher is a compiled Filter.
type Matcher struct {
	include    []glob.Glob
	exclude    []glob.Glob
	categories map[string]bool
}

// Compile validates and compiles the filter's patterns.
func (f Filter) Compile() (*Matcher, error) {
	m := &Matcher{}

	for _, pattern := range f.Include {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern '%s': %w", pattern, err)
		}
		m.include = append(m.include, g)
	}

	for _, pattern := range f.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
		m.exclude = append(m.exclude, g)
	}

	if len(f.Categories) > 0 {
		m.categories = make(map[string]bool, len(f.Categories))
		for _, c := range f.Categories {
			m.categories[strings.ToLower(strings.TrimSpace(c))] = true
		}
	}

	return m, nil
}

// Matches reports whether c passes the filter.
func (m *Matcher) Matches(c Case) bool {
	if m.categories != nil && !m.categories[strings.ToLower(c.Category)] {
		return false
	}

	// Exclusions take precedence
	for _, g := range m.exclude {
		if matchCase(g, c) {
			return false
		}
	}

	if len(m.include) == 0 {
		return true
	}
	for _, g := range m.include {
		if matchCase(g, c) {
			return true
		}
	}
	return false
}

func matchCase(g glob.Glob, c Case) bool {
	return g.Match(c.Name) || g.Match(c.ID())
}
