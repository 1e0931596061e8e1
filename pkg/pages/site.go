// Package pages models the SecureDocs views the suite drives.
//
// Page objects hold no browser state of their own. Each one is a thin set of
// locators plus a Site, and operates on whatever handle it is given, so the
// same object works across account switches and workers.
package pages

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
	"github.com/entrhq/securedocs-e2e/pkg/config"
)

// Timeouts bounds page-object waits.
type Timeouts struct {
	// Element bounds finding a single control
	Element time.Duration

	// Navigation bounds waiting for a view's marker after navigating or submitting
	Navigation time.Duration

	// Poll is the interval between checks
	Poll time.Duration
}

// Site is the application under test.
type Site struct {
	BaseURL  string
	Timeouts Timeouts
}

// NewSite creates a site rooted at baseURL, filling unset timeouts with defaults.
func NewSite(baseURL string, t Timeouts) Site {
	if t.Element <= 0 {
		t.Element = 10 * time.Second
	}
	if t.Navigation <= 0 {
		t.Navigation = 10 * time.Second
	}
	if t.Poll <= 0 {
		t.Poll = browser.DefaultPollInterval
	}
	return Site{BaseURL: strings.TrimRight(baseURL, "/"), Timeouts: t}
}

// SiteFromConfig derives a Site from the suite configuration.
func SiteFromConfig(cfg *config.Config) Site {
	return NewSite(cfg.Target.BaseURL, Timeouts{
		Element:    cfg.Timeouts.Element,
		Navigation: cfg.Timeouts.Navigation,
		Poll:       cfg.Timeouts.PollInterval,
	})
}

// URL resolves a path against the base URL.
func (s Site) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.BaseURL + path
}

// Resolve turns an href found on a page into an absolute URL.
func (s Site) Resolve(href string) (string, error) {
	base, err := url.Parse(s.BaseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (s Site) navOpts() browser.WaitOptions {
	return browser.WaitOptions{Timeout: s.Timeouts.Navigation, Interval: s.Timeouts.Poll}
}

func (s Site) elementOpts() browser.WaitOptions {
	return browser.WaitOptions{Timeout: s.Timeouts.Element, Interval: s.Timeouts.Poll}
}

// open navigates to path and waits for the view's marker.
func (s Site) open(h browser.Handle, path string, marker browser.Locator) error {
	if err := h.Navigate(s.URL(path)); err != nil {
		return err
	}
	return s.await(h, marker)
}

// await waits for a view's marker to appear.
func (s Site) await(h browser.Handle, marker browser.Locator) error {
	if err := browser.WaitUntil(h, browser.ElementPresent(marker), s.navOpts()); err != nil {
		return fmt.Errorf("view %s did not load: %w", marker, err)
	}
	return nil
}

// fill finds a field and writes text into it.
func (s Site) fill(h browser.Handle, loc browser.Locator, text string) error {
	el, err := browser.FindElement(h, loc, s.elementOpts())
	if err != nil {
		return err
	}
	if err := el.Fill(text); err != nil {
		return fmt.Errorf("failed to fill %s: %w", loc, err)
	}
	return nil
}

// click waits for a control to become clickable and clicks it.
func (s Site) click(h browser.Handle, loc browser.Locator) error {
	el, err := browser.FindClickable(h, loc, s.elementOpts())
	if err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("failed to click %s: %w", loc, err)
	}
	return nil
}

// texts returns the trimmed text of every element matching loc, without waiting.
func texts(h browser.Handle, loc browser.Locator) ([]string, error) {
	els, err := h.Query(loc)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		t, err := el.Text()
		if err != nil {
			return nil, err
		}
		out = append(out, strings.TrimSpace(t))
	}
	return out, nil
}

// attrs returns the value of attr on every element matching loc, without waiting.
func attrs(h browser.Handle, loc browser.Locator, attr string) ([]string, error) {
	els, err := h.Query(loc)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		v, ok, err := el.Attribute(attr)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// action locates a control carrying data-action="<name>".
func action(name string) browser.Locator {
	return browser.Attr("", "data-action", name)
}
