// Package browsertest provides a scripted, in-memory browser.Driver for tests.
//
// Pages are modelled as a URL plus a map from CSS selector to elements. Tests
// script behaviour with navigation and click hooks, and inspect the event log
// the driver records (launches, navigations, closes).
package browsertest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

// Event kinds recorded by the driver
const (
	EventLaunch   = "launch"
	EventNavigate = "navigate"
	EventClick    = "click"
	EventClose    = "close"
)

// Event is one recorded browser action.
type Event struct {
	Kind   string
	Handle int
	Detail string
}

func (e Event) String() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s#%d", e.Kind, e.Handle)
	}
	return fmt.Sprintf("%s#%d %s", e.Kind, e.Handle, e.Detail)
}

// Driver is a fake browser.Driver. It is safe for concurrent use; the handles
// it returns are not.
type Driver struct {
	// LaunchErr, when set, fails every Launch
	LaunchErr error

	// Setup scripts each newly launched handle
	Setup func(h *Handle)

	mu      sync.Mutex
	nextID  int
	handles []*Handle
	events  []Event
	opts    []browser.LaunchOptions
}

// NewDriver creates a driver that scripts every new handle with setup.
func NewDriver(setup func(h *Handle)) *Driver {
	return &Driver{Setup: setup}
}

// Launch implements browser.Driver.
func (d *Driver) Launch(opts browser.LaunchOptions) (browser.Handle, error) {
	d.mu.Lock()
	if d.LaunchErr != nil {
		err := d.LaunchErr
		d.mu.Unlock()
		return nil, err
	}
	d.nextID++
	h := &Handle{
		id:       d.nextID,
		driver:   d,
		url:      "about:blank",
		elements: make(map[string][]*Element),
	}
	d.handles = append(d.handles, h)
	d.opts = append(d.opts, opts)
	d.events = append(d.events, Event{Kind: EventLaunch, Handle: h.id})
	setup := d.Setup
	d.mu.Unlock()

	if setup != nil {
		setup(h)
	}
	return h, nil
}

func (d *Driver) record(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

// Events returns a copy of the recorded event log.
func (d *Driver) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

// EventKinds returns the kinds of the recorded events, in order.
func (d *Driver) EventKinds() []string {
	events := d.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

// Count returns how many events of kind were recorded.
func (d *Driver) Count(kind string) int {
	n := 0
	for _, e := range d.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Navigations returns every URL navigated to, across all handles.
func (d *Driver) Navigations() []string {
	var urls []string
	for _, e := range d.Events() {
		if e.Kind == EventNavigate {
			urls = append(urls, e.Detail)
		}
	}
	return urls
}

// Handles returns all handles launched so far.
func (d *Driver) Handles() []*Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Handle, len(d.handles))
	copy(out, d.handles)
	return out
}

// LaunchOptions returns the options passed to each Launch.
func (d *Driver) LaunchOptions() []browser.LaunchOptions {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]browser.LaunchOptions, len(d.opts))
	copy(out, d.opts)
	return out
}

// Open returns the handles that have not been closed.
func (d *Driver) Open() []*Handle {
	var open []*Handle
	for _, h := range d.Handles() {
		if !h.Closed() {
			open = append(open, h)
		}
	}
	return open
}

// Reset clears the event log.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

// Handle is a fake browser.Handle.
type Handle struct {
	id     int
	driver *Driver

	url      string
	title    string
	content  string
	elements map[string][]*Element
	cookies  []browser.Cookie
	closed   bool

	// OnNavigate replaces the default navigation behaviour, which only sets the URL.
	OnNavigate func(h *Handle, url string) error

	// CloseErr is returned by Close while still marking the handle closed
	CloseErr error

	// QueryErr, when set, fails every Query
	QueryErr error
}

// ID is the launch sequence number of the handle, starting at 1.
func (h *Handle) ID() int {
	return h.id
}

// Navigate implements browser.Handle.
func (h *Handle) Navigate(url string) error {
	if h.closed {
		return browser.ErrHandleClosed
	}
	h.driver.record(Event{Kind: EventNavigate, Handle: h.id, Detail: url})
	if h.OnNavigate != nil {
		return h.OnNavigate(h, url)
	}
	h.url = url
	return nil
}

// Query implements browser.Handle.
func (h *Handle) Query(loc browser.Locator) ([]browser.Element, error) {
	if h.closed {
		return nil, browser.ErrHandleClosed
	}
	if h.QueryErr != nil {
		return nil, h.QueryErr
	}
	els := h.elements[loc.Selector()]
	out := make([]browser.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

// CurrentURL implements browser.Handle.
func (h *Handle) CurrentURL() string {
	return h.url
}

// Title implements browser.Handle. Without an explicit title it is read from
// the <title> of the HTML set with SetContent.
func (h *Handle) Title() (string, error) {
	if h.closed {
		return "", browser.ErrHandleClosed
	}
	if h.title == "" && h.content != "" {
		return browser.DocumentTitle(h.content), nil
	}
	return h.title, nil
}

// Content implements browser.Handle. When no HTML has been set, a document is
// synthesized from the scripted elements' text.
func (h *Handle) Content() (string, error) {
	if h.closed {
		return "", browser.ErrHandleClosed
	}
	if h.content != "" {
		return h.content, nil
	}
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, els := range h.elements {
		for _, el := range els {
			if el.Hidden || el.TextValue == "" {
				continue
			}
			b.WriteString("<div>")
			b.WriteString(el.TextValue)
			b.WriteString("</div>")
		}
	}
	b.WriteString("</body></html>")
	return b.String(), nil
}

// Cookies implements browser.Handle.
func (h *Handle) Cookies() ([]browser.Cookie, error) {
	if h.closed {
		return nil, browser.ErrHandleClosed
	}
	return append([]browser.Cookie(nil), h.cookies...), nil
}

// Close implements browser.Handle.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.driver.record(Event{Kind: EventClose, Handle: h.id})
	return h.CloseErr
}

// Closed reports whether Close was called.
func (h *Handle) Closed() bool {
	return h.closed
}

// SetURL moves the page to url without recording a navigation, as a redirect would.
func (h *Handle) SetURL(url string) {
	h.url = url
}

// SetTitle sets the document title.
func (h *Handle) SetTitle(title string) {
	h.title = title
}

// SetContent sets the HTML returned by Content.
func (h *Handle) SetContent(html string) {
	h.content = html
}

// SetCookies replaces the page cookies.
func (h *Handle) SetCookies(cookies ...browser.Cookie) {
	h.cookies = cookies
}

// Put registers els under selector, replacing any existing elements.
func (h *Handle) Put(selector string, els ...*Element) {
	for _, el := range els {
		el.handle = h
	}
	h.elements[selector] = els
}

// Remove drops every element registered under selector.
func (h *Handle) Remove(selector string) {
	delete(h.elements, selector)
}

// Clear drops every element and the HTML content, as loading a new page does.
func (h *Handle) Clear() {
	h.elements = make(map[string][]*Element)
	h.content = ""
	h.title = ""
}

// Get returns the first element registered under selector, or nil.
func (h *Handle) Get(selector string) *Element {
	els := h.elements[selector]
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

// Element is a fake browser.Element.
type Element struct {
	// Value is what Fill last wrote
	Value string

	// TextValue is returned by Text
	TextValue string

	Attrs    map[string]string
	Hidden   bool
	Disabled bool

	// OnClick runs on Click with the owning handle
	OnClick func(h *Handle) error

	Clicks int

	handle *Handle
}

// NewElement creates an element with the given text.
func NewElement(text string) *Element {
	return &Element{TextValue: text}
}

// WithAttr sets an attribute and returns the element.
func (e *Element) WithAttr(name, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[name] = value
	return e
}

// WithClick sets the click hook and returns the element.
func (e *Element) WithClick(fn func(h *Handle) error) *Element {
	e.OnClick = fn
	return e
}

// Fill implements browser.Element.
func (e *Element) Fill(text string) error {
	if e.Disabled {
		return fmt.Errorf("element is disabled")
	}
	e.Value = text
	return nil
}

// Click implements browser.Element.
func (e *Element) Click() error {
	if e.Hidden || e.Disabled {
		return fmt.Errorf("element is not clickable")
	}
	e.Clicks++
	if e.handle != nil {
		e.handle.driver.record(Event{Kind: EventClick, Handle: e.handle.id, Detail: e.TextValue})
	}
	if e.OnClick != nil {
		return e.OnClick(e.handle)
	}
	return nil
}

// Text implements browser.Element.
func (e *Element) Text() (string, error) {
	return e.TextValue, nil
}

// Attribute implements browser.Element.
func (e *Element) Attribute(name string) (string, bool, error) {
	v, ok := e.Attrs[name]
	return v, ok, nil
}

// Visible implements browser.Element.
func (e *Element) Visible() (bool, error) {
	return !e.Hidden, nil
}

// Enabled implements browser.Element.
func (e *Element) Enabled() (bool, error) {
	return !e.Disabled, nil
}
