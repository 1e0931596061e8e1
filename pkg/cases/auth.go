package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
	"github.com/entrhq/securedocs-e2e/pkg/pages"
	"github.com/entrhq/securedocs-e2e/pkg/session"
	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

func authCases() []suite.Case {
	return []suite.Case{
		{
			Name:        "login-user",
			Category:    CategoryAuth,
			Account:     session.StandardUser,
			Description: "Standard user lands on the user dashboard",
			Run: func(_ context.Context, env *suite.Env) error {
				if !env.Session.IsLoggedIn() {
					return errors.New("session not logged in after login")
				}
				if err := pages.NewUserDashboard(env.Site).Verify(env.Handle); err != nil {
					return err
				}
				if pages.NewAdminDashboard(env.Site).HasMarker(env.Handle) {
					return errors.New("standard user sees the admin dashboard marker")
				}
				return nil
			},
		},
		{
			Name:        "login-admin",
			Category:    CategoryAuth,
			Account:     session.Administrator,
			Description: "Administrator lands on the admin dashboard",
			Run: func(_ context.Context, env *suite.Env) error {
				return pages.NewAdminDashboard(env.Site).Verify(env.Handle)
			},
		},
		{
			Name:        "logout",
			Category:    CategoryAuth,
			Account:     session.StandardUser,
			Description: "Logging out returns to the sign-in form and drops the session cookie",
			Run:         runLogout,
		},
		{
			Name:        "invalid-credentials",
			Category:    CategoryAuth,
			Description: "A wrong password shows an error and leaves no session behind",
			Run:         runInvalidCredentials,
		},
		{
			Name:        "account-switch",
			Category:    CategoryAuth,
			Description: "Switching from user to admin replaces the browser session",
			Run:         runAccountSwitch,
		},
	}
}

func runLogout(_ context.Context, env *suite.Env) error {
	// The application session ends here, so the cached one must go too
	defer env.Session.ResetSession()

	before, err := env.Handle.Cookies()
	if err != nil {
		return err
	}
	if err := pages.NewUserDashboard(env.Site).Logout(env.Handle); err != nil {
		return err
	}
	if !strings.Contains(env.Handle.CurrentURL(), "login") {
		return fmt.Errorf("expected sign-in page after logout, at %s", env.Handle.CurrentURL())
	}

	after, err := env.Handle.Cookies()
	if err != nil {
		return err
	}
	for _, c := range after {
		for _, b := range before {
			if c.Name == b.Name && c.Value == b.Value && c.HTTPOnly {
				return fmt.Errorf("session cookie %q survived logout", c.Name)
			}
		}
	}
	return nil
}

func runInvalidCredentials(_ context.Context, env *suite.Env) error {
	m := env.Session
	// Start signed out, so the wrong password is never answered from the cache
	m.ResetSession()

	user, ok := m.Settings().Credentials[session.StandardUser]
	if !ok || user.IsZero() {
		return suite.Skip("no standard user configured")
	}

	_, err := m.LoginAs(session.StandardUser, session.Credential{Identifier: user.Identifier, Secret: user.Secret + "-wrong"})
	var lte *session.LoginTimeoutError
	if !errors.As(err, &lte) {
		return fmt.Errorf("expected a login timeout for a wrong password, got %v", err)
	}
	if m.IsLoggedIn() || m.State() != session.Uninitialized {
		return fmt.Errorf("failed login left the session in state %s", m.State())
	}

	// The form must explain the failure
	h, err := m.Handle()
	if err != nil {
		return err
	}
	login := pages.NewLogin(env.Site)
	if err := login.Open(h); err != nil {
		return err
	}
	if err := login.Submit(h, user.Identifier, user.Secret+"-wrong"); err != nil {
		return err
	}
	msg, err := login.ErrorMessage(h)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(msg), "invalid") {
		return fmt.Errorf("unexpected login error %q", msg)
	}
	if r := browser.Probe(h, browser.DataPage("user-dashboard")); r.IsOk() {
		return errors.New("dashboard marker shown after a failed login")
	}
	return nil
}

func runAccountSwitch(_ context.Context, env *suite.Env) error {
	m := env.Session

	userHandle, err := m.Login(session.StandardUser)
	if err != nil {
		return err
	}
	adminHandle, err := m.Login(session.Administrator)
	if err != nil {
		return err
	}
	if userHandle == adminHandle {
		return errors.New("account switch reused the standard user's browser handle")
	}
	if m.AccountClass() != session.Administrator {
		return fmt.Errorf("session bound to %s after switching to administrator", m.AccountClass())
	}

	h, err := m.NavigateToDashboard(session.None)
	if err != nil {
		return err
	}
	return pages.NewAdminDashboard(env.Site).Verify(h)
}
