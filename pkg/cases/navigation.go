package cases

import (
	"context"
	"fmt"

	"github.com/entrhq/securedocs-e2e/pkg/pages"
	"github.com/entrhq/securedocs-e2e/pkg/session"
	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

func navigationCases() []suite.Case {
	return []suite.Case{
		{
			Name:        "user-dashboard",
			Category:    CategoryNavigation,
			Account:     session.StandardUser,
			Description: "Returning to the dashboard from another view reuses the login",
			Run: func(_ context.Context, env *suite.Env) error {
				return returnToDashboard(env, session.StandardUser, pages.NewUserDashboard(env.Site))
			},
		},
		{
			Name:        "admin-dashboard",
			Category:    CategoryNavigation,
			Account:     session.Administrator,
			Description: "Returning to the admin dashboard from the user table reuses the login",
			Run: func(_ context.Context, env *suite.Env) error {
				if err := pages.NewAdmin(env.Site).OpenUsers(env.Handle); err != nil {
					return err
				}
				return returnToDashboard(env, session.Administrator, pages.NewAdminDashboard(env.Site))
			},
		},
	}
}

// returnToDashboard leaves the dashboard if needed, then asks the session to
// bring it back and checks that no new handle was created.
func returnToDashboard(env *suite.Env, class session.AccountClass, dash *pages.Dashboard) error {
	if class == session.StandardUser {
		if err := pages.NewFiles(env.Site).Open(env.Handle); err != nil {
			return err
		}
	}

	h, err := env.Session.NavigateToDashboard(class)
	if err != nil {
		return err
	}
	if h != env.Handle {
		return fmt.Errorf("dashboard navigation replaced the %s session", class)
	}
	return dash.Verify(h)
}
