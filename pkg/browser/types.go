package browser

import (
	"time"
)

// Driver launches browser handles. Implementations wrap a concrete
// automation backend (Playwright, Chrome DevTools).
type Driver interface {
	// Launch starts a new browser instance and returns a handle positioned on a blank page.
	Launch(opts LaunchOptions) (Handle, error)
}

// Handle is a live connection to one controlled browser instance.
//
// Handles are not safe for concurrent use. Each method blocks until the
// underlying browser action completes or the backend's action timeout elapses.
type Handle interface {
	// Navigate loads url and waits for the load event
	Navigate(url string) error

	// Query returns the elements currently matching loc without waiting.
	// An empty slice means nothing matched.
	Query(loc Locator) ([]Element, error)

	// CurrentURL is the URL of the current page
	CurrentURL() string

	// Title is the document title of the current page
	Title() (string, error)

	// Content is the serialized HTML of the current page
	Content() (string, error)

	// Cookies returns the cookies visible to the current page
	Cookies() ([]Cookie, error)

	// Close releases the browser instance. Calling Close more than once is allowed.
	Close() error
}

// Element is a single DOM element resolved from a Locator.
type Element interface {
	Fill(text string) error
	Click() error
	Text() (string, error)
	Attribute(name string) (string, bool, error)
	Visible() (bool, error)
	Enabled() (bool, error)
}

// LaunchOptions configures a new browser handle.
type LaunchOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport Viewport

	// Locale is the browser locale, e.g. "en-US"
	Locale string

	// SlowMo slows every browser action down, useful when watching a headed run
	SlowMo time.Duration

	// ActionTimeout bounds every individual browser action
	ActionTimeout time.Duration
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Cookie is a browser cookie in backend-neutral form.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
}

// Default values for launching and waiting
const (
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
	DefaultLocale         = "en-US"
	DefaultActionTimeout  = 30 * time.Second
	DefaultPollInterval   = 250 * time.Millisecond
)

// WithDefaults returns a copy of opts with zero fields replaced by defaults.
func (opts LaunchOptions) WithDefaults() LaunchOptions {
	if opts.Viewport.Width == 0 {
		opts.Viewport.Width = DefaultViewportWidth
	}
	if opts.Viewport.Height == 0 {
		opts.Viewport.Height = DefaultViewportHeight
	}
	if opts.Locale == "" {
		opts.Locale = DefaultLocale
	}
	if opts.ActionTimeout == 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}
	return opts
}
