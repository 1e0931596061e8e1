package pages

import (
	"fmt"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

// Dashboard is a landing view: the user dashboard at /dashboard or the admin
// dashboard at /admin.
type Dashboard struct {
	site     Site
	path     string
	marker   browser.Locator
	fragment string
}

var logoutControl = action("logout")

// NewUserDashboard creates the standard-user dashboard page object.
func NewUserDashboard(site Site) *Dashboard {
	return &Dashboard{site: site, path: "/dashboard", marker: browser.DataPage("user-dashboard"), fragment: "dashboard"}
}

// NewAdminDashboard creates the administrator dashboard page object.
func NewAdminDashboard(site Site) *Dashboard {
	return &Dashboard{site: site, path: "/admin", marker: browser.DataPage("admin-dashboard"), fragment: "admin"}
}

// Open navigates to the dashboard and waits for its marker.
func (p *Dashboard) Open(h browser.Handle) error {
	return p.site.open(h, p.path, p.marker)
}

// HasMarker reports whether the dashboard's data-page marker is present now.
func (p *Dashboard) HasMarker(h browser.Handle) bool {
	return browser.Probe(h, p.marker).IsOk()
}

// Verify checks both landing signals: the marker and the URL fragment.
func (p *Dashboard) Verify(h browser.Handle) error {
	if r := browser.ProbeWithin(h, p.marker, p.site.elementOpts()); !r.IsOk() {
		return fmt.Errorf("dashboard marker missing: %w", r.Err)
	}
	cond := browser.URLContains(p.fragment)
	if err := browser.WaitUntil(h, cond, p.site.elementOpts()); err != nil {
		return fmt.Errorf("dashboard url %q: %w", h.CurrentURL(), err)
	}
	return nil
}

// Logout clicks the logout control and waits for the sign-in form.
func (p *Dashboard) Logout(h browser.Handle) error {
	if err := p.site.click(h, logoutControl); err != nil {
		return err
	}
	return p.site.await(h, loginEmail)
}
