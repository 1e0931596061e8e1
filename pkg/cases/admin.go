package cases

import (
	"context"
	"fmt"
	"slices"

	"github.com/entrhq/securedocs-e2e/pkg/pages"
	"github.com/entrhq/securedocs-e2e/pkg/session"
	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

// requiredStats are the tiles every admin dashboard shows
var requiredStats = []string{"users", "documents"}

func adminCases() []suite.Case {
	return []suite.Case{
		{
			Name:        "user-list",
			Category:    CategoryAdmin,
			Account:     session.Administrator,
			Description: "The user table lists both suite accounts",
			Run: func(_ context.Context, env *suite.Env) error {
				admin := pages.NewAdmin(env.Site)
				if err := admin.OpenUsers(env.Handle); err != nil {
					return err
				}
				users, err := admin.Users(env.Handle)
				if err != nil {
					return err
				}
				for _, cred := range env.Session.Settings().Credentials {
					if !cred.IsZero() && !slices.Contains(users, cred.Identifier) {
						return fmt.Errorf("user %q missing from %v", cred.Identifier, users)
					}
				}
				return nil
			},
		},
		{
			Name:        "stats",
			Category:    CategoryAdmin,
			Account:     session.Administrator,
			Description: "The admin dashboard shows numeric usage tiles",
			Run: func(_ context.Context, env *suite.Env) error {
				h, err := env.Session.NavigateToDashboard(session.Administrator)
				if err != nil {
					return err
				}
				stats, err := pages.NewAdmin(env.Site).Stats(h)
				if err != nil {
					return err
				}
				for _, name := range requiredStats {
					if _, ok := stats[name]; !ok {
						return fmt.Errorf("stat %q missing from %v", name, stats)
					}
				}
				if stats["users"] < 1 {
					return fmt.Errorf("admin dashboard counts %d users", stats["users"])
				}
				return nil
			},
		},
	}
}
