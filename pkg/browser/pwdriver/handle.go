package pwdriver

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

type handle struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	closed  bool
}

func (h *handle) Navigate(url string) error {
	if h.closed {
		return browser.ErrHandleClosed
	}
	if _, err := h.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (h *handle) Query(loc browser.Locator) ([]browser.Element, error) {
	if h.closed {
		return nil, browser.ErrHandleClosed
	}
	matches, err := h.page.Locator(loc.Selector()).All()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", loc, err)
	}
	els := make([]browser.Element, len(matches))
	for i, m := range matches {
		els[i] = &element{loc: m}
	}
	return els, nil
}

func (h *handle) CurrentURL() string {
	if h.closed {
		return ""
	}
	return h.page.URL()
}

func (h *handle) Title() (string, error) {
	if h.closed {
		return "", browser.ErrHandleClosed
	}
	return h.page.Title()
}

func (h *handle) Content() (string, error) {
	if h.closed {
		return "", browser.ErrHandleClosed
	}
	return h.page.Content()
}

func (h *handle) Cookies() ([]browser.Cookie, error) {
	if h.closed {
		return nil, browser.ErrHandleClosed
	}
	cookies, err := h.context.Cookies()
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	out := make([]browser.Cookie, len(cookies))
	for i, c := range cookies {
		out[i] = browser.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
	}
	return out, nil
}

// Close closes page, context and browser, returning the first error.
func (h *handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	var first error
	for _, closeFn := range []func() error{
		func() error { return h.page.Close() },
		func() error { return h.context.Close() },
		func() error { return h.browser.Close() },
	} {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type element struct {
	loc playwright.Locator
}

func (e *element) Fill(text string) error {
	return e.loc.Fill(text)
}

func (e *element) Click() error {
	return e.loc.Click()
}

func (e *element) Text() (string, error) {
	return e.loc.InnerText()
}

func (e *element) Attribute(name string) (string, bool, error) {
	present, err := e.loc.Evaluate("(el, name) => el.hasAttribute(name)", name)
	if err != nil {
		return "", false, err
	}
	if ok, _ := present.(bool); !ok {
		return "", false, nil
	}
	v, err := e.loc.GetAttribute(name)
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (e *element) Visible() (bool, error) {
	return e.loc.IsVisible()
}

func (e *element) Enabled() (bool, error) {
	return e.loc.IsEnabled()
}
