package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
	"github.com/entrhq/securedocs-e2e/pkg/config"
	"github.com/entrhq/securedocs-e2e/pkg/logging"
	"github.com/entrhq/securedocs-e2e/pkg/metrics"
)

// Default bounded-wait timeouts
const (
	DefaultElementTimeout    = 10 * time.Second
	DefaultLandingTimeout    = 20 * time.Second
	DefaultNavigationTimeout = 10 * time.Second
)

// State is the lifecycle state of a Manager.
type State int

const (
	// Uninitialized means no browser handle exists
	Uninitialized State = iota
	// HandleReady means a handle exists but no login has completed on it
	HandleReady
	// Authenticated means the handle is logged in as AccountClass()
	Authenticated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case HandleReady:
		return "handle_ready"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Settings configures a Manager.
type Settings struct {
	// BaseURL is the origin of the application under test
	BaseURL string

	// Credentials holds the built-in credential for each account class
	Credentials map[AccountClass]Credential

	// Launch configures new browser handles
	Launch browser.LaunchOptions

	ElementTimeout    time.Duration
	LandingTimeout    time.Duration
	NavigationTimeout time.Duration
	PollInterval      time.Duration
}

// SettingsFromConfig derives manager settings from the suite configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		BaseURL: cfg.Target.BaseURL,
		Credentials: map[AccountClass]Credential{
			StandardUser:  {Identifier: cfg.Credentials.User.Email, Secret: cfg.Credentials.User.Password},
			Administrator: {Identifier: cfg.Credentials.Admin.Email, Secret: cfg.Credentials.Admin.Password},
		},
		Launch: browser.LaunchOptions{
			Headless:      cfg.Browser.Headless,
			Viewport:      browser.Viewport{Width: cfg.Browser.ViewportWidth, Height: cfg.Browser.ViewportHeight},
			Locale:        cfg.Browser.Locale,
			SlowMo:        cfg.Browser.SlowMo,
			ActionTimeout: cfg.Browser.ActionTimeout,
		},
		ElementTimeout:    cfg.Timeouts.Element,
		LandingTimeout:    cfg.Timeouts.Landing,
		NavigationTimeout: cfg.Timeouts.Navigation,
		PollInterval:      cfg.Timeouts.PollInterval,
	}
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithLogger sets the manager's logger
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithMetrics records login, cache and cleanup metrics on mx
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mx
	}
}

// Manager owns at most one browser handle and the identity logged in on it.
// Repeated logins for the same account class reuse the handle without any
// browser activity; a different account class tears the handle down first.
//
// A Manager is not safe for concurrent use. Run one Manager per worker.
type Manager struct {
	driver   browser.Driver
	settings Settings
	log      *logging.Logger
	metrics  *metrics.Metrics

	handle        browser.Handle
	authenticated bool
	account       AccountClass
	identifier    string
}

// NewManager creates a manager. No browser is launched until the first
// Handle or Login call.
func NewManager(driver browser.Driver, settings Settings, opts ...Option) *Manager {
	creds := make(map[AccountClass]Credential, len(settings.Credentials))
	for class, cred := range settings.Credentials {
		creds[class] = cred
	}
	settings.Credentials = creds
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")

	if settings.ElementTimeout <= 0 {
		settings.ElementTimeout = DefaultElementTimeout
	}
	if settings.LandingTimeout <= 0 {
		settings.LandingTimeout = DefaultLandingTimeout
	}
	if settings.NavigationTimeout <= 0 {
		settings.NavigationTimeout = DefaultNavigationTimeout
	}
	if settings.PollInterval <= 0 {
		settings.PollInterval = browser.DefaultPollInterval
	}

	m := &Manager{
		driver:   driver,
		settings: settings,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logging.NewLogger("session")
	}
	return m
}

// Handle returns the browser handle, launching it on first use.
func (m *Manager) Handle() (browser.Handle, error) {
	if m.handle != nil {
		return m.handle, nil
	}

	h, err := m.driver.Launch(m.settings.Launch.WithDefaults())
	m.metrics.RecordLaunch(err == nil)
	if err != nil {
		m.log.Errorf("Failed to launch browser: %v", err)
		return nil, &HandleCreationError{Err: err}
	}

	m.log.Debugf("Browser handle created")
	m.handle = h
	return h, nil
}

// Login logs in with the built-in credential for class. None means StandardUser.
func (m *Manager) Login(class AccountClass) (browser.Handle, error) {
	return m.LoginAs(class, Credential{})
}

// LoginAs logs in as class using cred, or the built-in credential when cred is
// zero. If the session is already authenticated as the same class and
// identifier the cached handle is returned with no browser activity. Any other
// authenticated identity is cleaned up first.
//
// On failure the session is cleaned up before the error is returned, so a
// failed login never leaves a half-authenticated handle behind. An unknown
// class is rejected before the session is touched.
func (m *Manager) LoginAs(class AccountClass, cred Credential) (browser.Handle, error) {
	if class == None {
		class = StandardUser
	}
	if _, ok := landings[class]; !ok {
		return nil, fmt.Errorf("unknown account class %s", class)
	}
	if cred.IsZero() {
		builtin, ok := m.settings.Credentials[class]
		if !ok {
			return nil, fmt.Errorf("no credentials configured for %s", class)
		}
		cred = builtin
	}

	if m.authenticated {
		if m.account == class && m.identifier == cred.Identifier && m.handle != nil {
			m.metrics.RecordCacheHit(true)
			m.log.Debugf("Reusing %s session for %s", class, cred.Identifier)
			return m.handle, nil
		}
		m.log.Infof("Switching session from %s (%s) to %s (%s)", m.account, m.identifier, class, cred.Identifier)
		m.Cleanup()
	}
	m.metrics.RecordCacheHit(false)

	start := time.Now()
	h, err := m.login(class, cred)
	m.metrics.RecordLogin(class.String(), err == nil, time.Since(start))
	if err != nil {
		m.log.Warnf("Login as %s (%s) failed: %v", class, cred.Identifier, err)
		m.Cleanup()
		return nil, err
	}

	m.authenticated = true
	m.account = class
	m.identifier = cred.Identifier
	m.log.Infof("Logged in as %s (%s) in %s", class, cred.Identifier, time.Since(start).Round(time.Millisecond))
	return h, nil
}

func (m *Manager) login(class AccountClass, cred Credential) (browser.Handle, error) {
	h, err := m.Handle()
	if err != nil {
		return nil, err
	}

	loginURL := m.settings.BaseURL + "/login"
	if err := h.Navigate(loginURL); err != nil {
		return nil, fmt.Errorf("failed to open login page %s: %w", loginURL, err)
	}

	find := browser.WaitOptions{Timeout: m.settings.ElementTimeout, Interval: m.settings.PollInterval}
	email, err := browser.FindElement(h, emailField, find)
	if err != nil {
		return nil, err
	}
	password, err := browser.FindElement(h, passwordField, find)
	if err != nil {
		return nil, err
	}
	if err := email.Fill(cred.Identifier); err != nil {
		return nil, fmt.Errorf("failed to fill %s: %w", emailField, err)
	}
	if err := password.Fill(cred.Secret); err != nil {
		return nil, fmt.Errorf("failed to fill %s: %w", passwordField, err)
	}

	submit, err := browser.FindClickable(h, submitButton, find)
	if err != nil {
		return nil, err
	}
	if err := submit.Click(); err != nil {
		return nil, fmt.Errorf("failed to submit login form: %w", err)
	}

	wait := browser.WaitOptions{Timeout: m.settings.LandingTimeout, Interval: m.settings.PollInterval}
	if err := browser.WaitUntil(h, landings[class].condition(), wait); err != nil {
		return nil, &LoginTimeoutError{
			Account:    class,
			Identifier: cred.Identifier,
			Timeout:    m.settings.LandingTimeout,
			URL:        h.CurrentURL(),
			Err:        err,
		}
	}
	return h, nil
}

// NavigateToDashboard puts the handle on the dashboard for class, logging in
// first if the session is not authenticated as class. None means the class
// currently bound, or StandardUser.
//
// Navigation only happens when the current URL does not already indicate the
// dashboard. A navigation failure leaves the session authenticated.
func (m *Manager) NavigateToDashboard(class AccountClass) (browser.Handle, error) {
	if class == None {
		class = m.account
		if class == None {
			class = StandardUser
		}
	}
	if _, ok := landings[class]; !ok {
		return nil, fmt.Errorf("unknown account class %s", class)
	}

	h := m.handle
	if !m.authenticated || m.account != class {
		var err error
		if h, err = m.Login(class); err != nil {
			return nil, err
		}
	}

	dest := landings[class]
	if strings.Contains(h.CurrentURL(), dest.fragment) {
		return h, nil
	}

	target := m.settings.BaseURL + dest.path
	m.log.Debugf("Navigating to %s dashboard at %s", class, target)
	if err := h.Navigate(target); err != nil {
		m.metrics.RecordNavigation(class.String(), false)
		return nil, fmt.Errorf("failed to navigate to %s: %w", target, err)
	}

	wait := browser.WaitOptions{Timeout: m.settings.NavigationTimeout, Interval: m.settings.PollInterval}
	if err := browser.WaitUntil(h, dest.condition(), wait); err != nil {
		m.metrics.RecordNavigation(class.String(), false)
		return nil, &NavigationTimeoutError{
			Account: class,
			Target:  target,
			Timeout: m.settings.NavigationTimeout,
			URL:     h.CurrentURL(),
			Err:     err,
		}
	}
	m.metrics.RecordNavigation(class.String(), true)
	return h, nil
}

// IsLoggedIn reports whether a completed login is bound to a live handle.
func (m *Manager) IsLoggedIn() bool {
	return m.authenticated && m.handle != nil
}

// AccountClass returns the class bound to the handle, or None.
func (m *Manager) AccountClass() AccountClass {
	return m.account
}

// Identifier returns the identifier logged in on the handle, or "".
func (m *Manager) Identifier() string {
	return m.identifier
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	switch {
	case m.handle == nil:
		return Uninitialized
	case m.authenticated:
		return Authenticated
	default:
		return HandleReady
	}
}

// Settings returns a copy of the effective settings.
func (m *Manager) Settings() Settings {
	s := m.settings
	s.Credentials = make(map[AccountClass]Credential, len(m.settings.Credentials))
	for class, cred := range m.settings.Credentials {
		s.Credentials[class] = cred
	}
	return s
}

// Cleanup closes the handle, if any, and resets all session state. Errors
// from closing are logged and counted, never returned. Safe to call any number
// of times.
func (m *Manager) Cleanup() {
	if m.handle != nil {
		err := m.handle.Close()
		m.metrics.RecordCleanup(err != nil)
		if err != nil {
			m.log.Warnf("Ignoring cleanup failure: %v", &CleanupError{Err: err})
		} else {
			m.log.Debugf("Browser handle closed")
		}
	}
	m.handle = nil
	m.authenticated = false
	m.account = None
	m.identifier = ""
}

// ResetSession discards the current identity so the next login starts fresh.
func (m *Manager) ResetSession() {
	m.Cleanup()
}
