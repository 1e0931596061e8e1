package browsertest

import (
	"net/url"
	"strings"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

// LandingMode controls which landing signals the scripted app produces after
// a successful login.
type LandingMode int

const (
	// LandingBoth changes the URL and renders the data-page marker
	LandingBoth LandingMode = iota
	// LandingURLOnly changes the URL but never renders a marker
	LandingURLOnly
	// LandingMarkerOnly renders the marker but keeps the login URL
	LandingMarkerOnly
	// LandingNever accepts the submit and then shows nothing
	LandingNever
)

// SessionCookie is the cookie the scripted app sets on login.
const SessionCookie = "sd_session"

// App scripts the SecureDocs login flow onto fake handles: a login form at
// /login, a user dashboard at /dashboard and an admin dashboard at /admin.
type App struct {
	BaseURL string

	// Users maps email to password for standard accounts
	Users map[string]string

	// Admins maps email to password for administrator accounts
	Admins map[string]string

	Landing LandingMode

	// NoLoginForm serves a login page without its form fields
	NoLoginForm bool

	// NavigateErr, when set, fails every navigation
	NavigateErr error
}

// NewApp returns an app at baseURL with one standard and one admin account
// using the suite's built-in credentials.
func NewApp(baseURL string) *App {
	return &App{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Users:   map[string]string{"user@securedocs.test": "UserPass123!"},
		Admins:  map[string]string{"admin@securedocs.test": "AdminPass123!"},
	}
}

// Driver returns a fake driver whose handles all run this app.
func (a *App) Driver() *Driver {
	return NewDriver(a.Install)
}

// Install scripts h to behave like the app.
func (a *App) Install(h *Handle) {
	h.OnNavigate = func(h *Handle, target string) error {
		if a.NavigateErr != nil {
			return a.NavigateErr
		}
		a.route(h, target)
		return nil
	}
}

func (a *App) route(h *Handle, target string) {
	h.Clear()
	h.SetURL(target)

	u, err := url.Parse(target)
	if err != nil {
		return
	}
	user := sessionUser(h)

	switch strings.TrimRight(u.Path, "/") {
	case "/login":
		a.renderLogin(h)
	case "/dashboard":
		if user == "" {
			h.SetURL(a.BaseURL + "/login")
			a.renderLogin(h)
			return
		}
		a.renderDashboard(h, false)
	case "/admin":
		if _, ok := a.Admins[user]; !ok {
			h.SetURL(a.BaseURL + "/login")
			a.renderLogin(h)
			return
		}
		a.renderDashboard(h, true)
	case "/logout":
		h.SetCookies()
		h.SetURL(a.BaseURL + "/login")
		a.renderLogin(h)
	default:
		h.SetTitle("Not Found")
		h.Put("h1", NewElement("Page not found"))
	}
}

func (a *App) renderLogin(h *Handle) {
	h.SetTitle("SecureDocs - Sign in")
	if a.NoLoginForm {
		h.Put("h1", NewElement("Sign in"))
		return
	}
	email := NewElement("").WithAttr("name", "email")
	password := NewElement("").WithAttr("name", "password")
	h.Put(browser.Name("email").Selector(), email)
	h.Put(browser.Name("password").Selector(), password)
	h.Put(`button[type="submit"]`, NewElement("Sign in").WithAttr("type", "submit").WithClick(func(h *Handle) error {
		a.submit(h, email.Value, password.Value)
		return nil
	}))
}

func (a *App) submit(h *Handle, email, password string) {
	admin := false
	if pw, ok := a.Admins[email]; ok && pw == password {
		admin = true
	} else if pw, ok := a.Users[email]; !ok || pw != password {
		h.Put(".alert-error", NewElement("Invalid email or password"))
		return
	}

	h.SetCookies(browser.Cookie{Name: SessionCookie, Value: email, Path: "/", HTTPOnly: true})
	if a.Landing == LandingNever {
		h.Clear()
		return
	}

	loginURL := h.CurrentURL()
	h.Clear()
	if admin {
		h.SetURL(a.BaseURL + "/admin")
	} else {
		h.SetURL(a.BaseURL + "/dashboard")
	}
	a.renderDashboard(h, admin)
	if a.Landing == LandingMarkerOnly {
		h.SetURL(loginURL)
	}
}

func (a *App) renderDashboard(h *Handle, admin bool) {
	if admin {
		h.SetTitle("SecureDocs - Admin")
	} else {
		h.SetTitle("SecureDocs - Dashboard")
	}
	if a.Landing == LandingURLOnly {
		return
	}
	page := "user-dashboard"
	if admin {
		page = "admin-dashboard"
	}
	h.Put(browser.DataPage(page).Selector(), NewElement("").WithAttr("data-page", page))
	h.Put(`[data-action="logout"]`, NewElement("Log out").WithClick(func(h *Handle) error {
		return h.Navigate(a.BaseURL + "/logout")
	}))
}

func sessionUser(h *Handle) string {
	for _, c := range h.cookies {
		if c.Name == SessionCookie {
			return c.Value
		}
	}
	return ""
}
