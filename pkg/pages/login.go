package pages

import (
	"fmt"
	"strings"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

// Login is the sign-in view at /login.
type Login struct {
	site Site
}

var (
	loginEmail    = browser.Name("email")
	loginPassword = browser.Name("password")
	loginSubmit   = browser.Attr("button", "type", "submit")
	loginError    = browser.CSS(".alert-error")
)

// NewLogin creates the login page object.
func NewLogin(site Site) *Login {
	return &Login{site: site}
}

// Open navigates to the sign-in form and waits for the email field.
func (p *Login) Open(h browser.Handle) error {
	return p.site.open(h, "/login", loginEmail)
}

// Submit fills the form and clicks submit. It does not wait for the outcome.
func (p *Login) Submit(h browser.Handle, email, password string) error {
	if err := p.site.fill(h, loginEmail, email); err != nil {
		return err
	}
	if err := p.site.fill(h, loginPassword, password); err != nil {
		return err
	}
	return p.site.click(h, loginSubmit)
}

// ErrorMessage waits for the error banner and returns its text.
func (p *Login) ErrorMessage(h browser.Handle) (string, error) {
	el, err := browser.FindElement(h, loginError, p.site.navOpts())
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read login error: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// IsDisplayed reports whether the sign-in form is on the page right now.
func (p *Login) IsDisplayed(h browser.Handle) bool {
	return browser.Probe(h, loginEmail).IsOk()
}
