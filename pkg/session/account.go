package session

import (
	"fmt"
	"strings"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

// AccountClass identifies which credential set a session is bound to.
type AccountClass int

const (
	None AccountClass = iota
	StandardUser
	Administrator
)

func (c AccountClass) String() string {
	switch c {
	case None:
		return "none"
	case StandardUser:
		return "standard_user"
	case Administrator:
		return "administrator"
	default:
		return fmt.Sprintf("AccountClass(%d)", int(c))
	}
}

// ParseAccountClass accepts the String form plus the short aliases "user" and "admin".
func ParseAccountClass(s string) (AccountClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "user", "standard", "standard_user":
		return StandardUser, nil
	case "admin", "administrator":
		return Administrator, nil
	default:
		return None, fmt.Errorf("unknown account class %q", s)
	}
}

// Credential is an identifier/secret pair used to log in.
type Credential struct {
	Identifier string
	Secret     string
}

// IsZero reports whether no identifier was given.
func (c Credential) IsZero() bool {
	return c.Identifier == ""
}

// landing describes how to recognise and reach an account class's dashboard.
type landing struct {
	marker   browser.Locator
	fragment string
	path     string
}

var landings = map[AccountClass]landing{
	StandardUser: {
		marker:   browser.DataPage("user-dashboard"),
		fragment: "dashboard",
		path:     "/dashboard",
	},
	Administrator: {
		marker:   browser.DataPage("admin-dashboard"),
		fragment: "admin",
		path:     "/admin",
	},
}

func (l landing) condition() browser.Condition {
	return browser.AnyOf(browser.ElementPresent(l.marker), browser.URLContains(l.fragment))
}

// Login form locators.
var (
	emailField    = browser.Name("email")
	passwordField = browser.Name("password")
	submitButton  = browser.Attr("button", "type", "submit")
)
