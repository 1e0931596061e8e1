package cases

import (
	"context"
	"fmt"
	"slices"

	"github.com/entrhq/securedocs-e2e/pkg/pages"
	"github.com/entrhq/securedocs-e2e/pkg/session"
	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

func searchCases(d Data) []suite.Case {
	return []suite.Case{
		{
			Name:        "by-name",
			Category:    CategorySearch,
			Account:     session.StandardUser,
			Description: "Searching by part of a name finds the document",
			Run: func(_ context.Context, env *suite.Env) error {
				search := pages.NewSearch(env.Site)
				if err := search.Open(env.Handle); err != nil {
					return err
				}
				results, err := search.Query(env.Handle, d.SearchTerm)
				if err != nil {
					return err
				}
				if !slices.Contains(results, d.Document) {
					return fmt.Errorf("search for %q returned %v, want %q among them", d.SearchTerm, results, d.Document)
				}
				return nil
			},
		},
		{
			Name:        "no-results",
			Category:    CategorySearch,
			Account:     session.StandardUser,
			Description: "A query matching nothing shows the empty state",
			Run: func(_ context.Context, env *suite.Env) error {
				search := pages.NewSearch(env.Site)
				query := uniqueName("no-such-document-")
				if err := search.OpenQuery(env.Handle, query); err != nil {
					return err
				}
				results, err := search.Results(env.Handle)
				if err != nil {
					return err
				}
				if len(results) > 0 {
					return fmt.Errorf("search for %q returned %v", query, results)
				}
				msg, err := search.EmptyMessage(env.Handle)
				if err != nil {
					return err
				}
				if msg == "" {
					return fmt.Errorf("empty search shows no message")
				}
				return nil
			},
		},
	}
}
