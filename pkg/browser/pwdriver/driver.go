// Package pwdriver implements browser.Driver on Playwright (Chromium).
//
// The Playwright driver process is installed and started lazily on the first
// Launch and shared by every handle the Driver creates. Each handle owns its
// own browser, context and page, so closing a handle never affects another.
package pwdriver

import (
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
	"github.com/entrhq/securedocs-e2e/pkg/logging"
)

// Options configures the Playwright driver.
type Options struct {
	// SkipInstall assumes browsers are already installed
	SkipInstall bool

	// Args are extra Chromium command-line flags
	Args []string

	Logger *logging.Logger
}

// Driver launches Chromium through Playwright. It is safe for concurrent use.
type Driver struct {
	opts Options
	log  *logging.Logger

	mu       sync.Mutex
	pw       *playwright.Playwright
	initOnce sync.Once
	initErr  error
}

// NewDriver creates a driver. Playwright is not started until the first Launch.
func NewDriver(opts Options) *Driver {
	log := opts.Logger
	if log == nil {
		log = logging.NewLogger("playwright")
	}
	return &Driver{opts: opts, log: log}
}

// initialize installs browsers if needed and starts the Playwright driver.
func (d *Driver) initialize() error {
	d.initOnce.Do(func() {
		out := d.log.Writer()
		defer out.Close()

		runOpts := &playwright.RunOptions{
			Browsers: []string{"chromium"},
			Verbose:  false,
			Stdout:   out,
			Stderr:   out,
		}

		if !d.opts.SkipInstall {
			d.log.Infof("Verifying Playwright browser installation")
			if err := playwright.Install(runOpts); err != nil {
				d.initErr = fmt.Errorf("failed to install playwright: %w", err)
				return
			}
		}

		pw, err := playwright.Run(runOpts)
		if err != nil {
			d.initErr = fmt.Errorf("failed to start playwright: %w", err)
			return
		}

		d.mu.Lock()
		d.pw = pw
		d.mu.Unlock()
	})
	return d.initErr
}

// Launch implements browser.Driver.
func (d *Driver) Launch(opts browser.LaunchOptions) (browser.Handle, error) {
	if err := d.initialize(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()

	d.mu.Lock()
	pw := d.pw
	d.mu.Unlock()
	if pw == nil {
		return nil, errors.New("playwright driver is stopped")
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     d.opts.Args,
	}
	if opts.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
		Locale: playwright.String(opts.Locale),
	})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.ActionTimeout.Milliseconds()))

	d.log.Debugf("Launched Chromium %s (headless=%t, viewport=%dx%d)",
		b.Version(), opts.Headless, opts.Viewport.Width, opts.Viewport.Height)
	return &handle{browser: b, context: bctx, page: page}, nil
}

// Close stops the Playwright driver process. Handles must be closed first.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pw == nil {
		return nil
	}
	err := d.pw.Stop()
	d.pw = nil
	return err
}
