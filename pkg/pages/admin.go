package pages

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

// Admin covers the administrator views: the stat tiles on /admin and the
// user table on /admin/users.
type Admin struct {
	site Site
}

var (
	adminMarker      = browser.DataPage("admin-dashboard")
	adminUsersMarker = browser.DataPage("admin-users")
	anyUserRow       = browser.CSS("[data-user]")
	anyStatTile      = browser.CSS("[data-stat]")
)

// NewAdmin creates the admin page object.
func NewAdmin(site Site) *Admin {
	return &Admin{site: site}
}

// OpenUsers navigates to the user table.
func (p *Admin) OpenUsers(h browser.Handle) error {
	return p.site.open(h, "/admin/users", adminUsersMarker)
}

// Users lists the emails in the user table.
func (p *Admin) Users(h browser.Handle) ([]string, error) {
	if _, err := browser.FindElements(h, anyUserRow, p.site.elementOpts()); err != nil {
		return nil, err
	}
	return attrs(h, anyUserRow, "data-user")
}

// Stats reads the dashboard stat tiles as name → value. The current page
// must be the admin dashboard.
func (p *Admin) Stats(h browser.Handle) (map[string]int, error) {
	if err := p.site.await(h, adminMarker); err != nil {
		return nil, err
	}
	tiles, err := browser.FindElements(h, anyStatTile, p.site.elementOpts())
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int, len(tiles))
	for _, tile := range tiles {
		name, _, err := tile.Attribute("data-stat")
		if err != nil {
			return nil, err
		}
		text, err := tile.Text()
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("stat %q is not a number: %q", name, text)
		}
		stats[name] = n
	}
	return stats, nil
}
