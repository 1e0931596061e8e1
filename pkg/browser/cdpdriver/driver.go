// Package cdpdriver implements browser.Driver on the Chrome DevTools Protocol
// via chromedp. Every handle gets its own exec allocator, and with it its own
// Chrome process.
package cdpdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
	"github.com/entrhq/securedocs-e2e/pkg/logging"
)

// Options configures the chromedp driver.
type Options struct {
	// ExecPath overrides the Chrome binary lookup
	ExecPath string

	// Flags are extra Chrome command-line flags, applied after the defaults
	Flags map[string]any

	Logger *logging.Logger
}

// Driver launches Chrome through chromedp. It is safe for concurrent use.
type Driver struct {
	opts Options
	log  *logging.Logger
}

// NewDriver creates a driver.
func NewDriver(opts Options) *Driver {
	log := opts.Logger
	if log == nil {
		log = logging.NewLogger("chromedp")
	}
	return &Driver{opts: opts, log: log}
}

func (d *Driver) allocatorOptions(opts browser.LaunchOptions) []chromedp.ExecAllocatorOption {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("lang", opts.Locale),
		chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height),
	)
	if d.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(d.opts.ExecPath))
	}
	for name, value := range d.opts.Flags {
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}
	return allocOpts
}

// Launch implements browser.Driver.
func (d *Driver) Launch(opts browser.LaunchOptions) (browser.Handle, error) {
	opts = opts.WithDefaults()
	if opts.SlowMo > 0 {
		d.log.Warnf("slow_mo is not supported by the chromedp engine; ignoring %s", opts.SlowMo)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), d.allocatorOptions(opts)...)
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(d.log.Debugf))

	h := &handle{
		ctx:           ctx,
		cancel:        cancel,
		cancelAlloc:   cancelAlloc,
		actionTimeout: opts.ActionTimeout,
	}

	// The first Run starts the browser process
	if err := h.run(chromedp.Navigate("about:blank")); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	d.log.Debugf("Launched Chrome (headless=%t, window=%dx%d)", opts.Headless, opts.Viewport.Width, opts.Viewport.Height)
	return h, nil
}

type handle struct {
	ctx           context.Context
	cancel        context.CancelFunc
	cancelAlloc   context.CancelFunc
	actionTimeout time.Duration
	closed        bool
}

// run executes actions bounded by the action timeout.
func (h *handle) run(actions ...chromedp.Action) error {
	if h.closed {
		return browser.ErrHandleClosed
	}
	ctx, cancel := context.WithTimeout(h.ctx, h.actionTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (h *handle) Navigate(url string) error {
	if err := h.run(chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (h *handle) Query(loc browser.Locator) ([]browser.Element, error) {
	var nodes []*cdp.Node
	if err := h.run(chromedp.Nodes(loc.Selector(), &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", loc, err)
	}
	els := make([]browser.Element, len(nodes))
	for i, n := range nodes {
		els[i] = &element{h: h, node: n}
	}
	return els, nil
}

func (h *handle) CurrentURL() string {
	var url string
	if err := h.run(chromedp.Location(&url)); err != nil {
		return ""
	}
	return url
}

// Title reads document.title, falling back to the <title> element when a page
// has not populated it yet.
func (h *handle) Title() (string, error) {
	var title string
	if err := h.run(chromedp.Title(&title)); err != nil || title != "" {
		return title, err
	}
	content, err := h.Content()
	if err != nil {
		return "", err
	}
	return browser.DocumentTitle(content), nil
}

func (h *handle) Content() (string, error) {
	var html string
	err := h.run(chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (h *handle) Cookies() ([]browser.Cookie, error) {
	var cookies []*network.Cookie
	err := h.run(chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
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
			HTTPOnly: c.HTTPOnly,
		}
	}
	return out, nil
}

// Close shuts Chrome down gracefully, then releases the allocator.
func (h *handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	err := chromedp.Cancel(h.ctx)
	h.cancel()
	h.cancelAlloc()
	return err
}

type element struct {
	h    *handle
	node *cdp.Node
}

func (e *element) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *element) Fill(text string) error {
	return e.h.run(
		chromedp.SetValue(e.ids(), "", chromedp.ByNodeID),
		chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID),
	)
}

func (e *element) Click() error {
	return e.h.run(chromedp.MouseClickNode(e.node))
}

func (e *element) Text() (string, error) {
	var text string
	err := e.h.run(chromedp.Text(e.ids(), &text, chromedp.ByNodeID))
	return text, err
}

func (e *element) Attribute(name string) (string, bool, error) {
	var value string
	var ok bool
	err := e.h.run(chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID))
	return value, ok, err
}

// Visible treats an element without a box model as hidden.
func (e *element) Visible() (bool, error) {
	err := e.h.run(chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := dom.GetBoxModel().WithNodeID(e.node.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		if e.h.closed {
			return false, browser.ErrHandleClosed
		}
		return false, nil
	}
	return true, nil
}

func (e *element) Enabled() (bool, error) {
	var disabled bool
	if err := e.h.run(chromedp.JavascriptAttribute(e.ids(), "disabled", &disabled, chromedp.ByNodeID)); err != nil {
		return false, err
	}
	return !disabled, nil
}
