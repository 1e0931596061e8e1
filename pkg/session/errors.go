package session

import (
	"fmt"
	"time"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

// ElementNotFoundError is returned when the login form is missing a field.
type ElementNotFoundError = browser.ElementNotFoundError

// HandleCreationError reports that the browser could not be started.
type HandleCreationError struct {
	Err error
}

func (e *HandleCreationError) Error() string {
	return fmt.Sprintf("failed to create browser handle: %v", e.Err)
}

// Unwrap returns the driver error
func (e *HandleCreationError) Unwrap() error {
	return e.Err
}

// LoginTimeoutError reports that no landing-page signal appeared after
// submitting the login form.
type LoginTimeoutError struct {
	Account    AccountClass
	Identifier string
	Timeout    time.Duration

	// URL is where the browser was when the wait gave up
	URL string
	Err error
}

func (e *LoginTimeoutError) Error() string {
	return fmt.Sprintf("login as %s (%s) did not reach the landing page within %s (at %s)",
		e.Account, e.Identifier, e.Timeout, e.URL)
}

// Unwrap returns the underlying wait error
func (e *LoginTimeoutError) Unwrap() error {
	return e.Err
}

// NavigationTimeoutError reports that the dashboard marker never appeared
// after navigating to the dashboard.
type NavigationTimeoutError struct {
	Account AccountClass
	Target  string
	Timeout time.Duration
	URL     string
	Err     error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("%s dashboard %s not reached within %s (at %s)", e.Account, e.Target, e.Timeout, e.URL)
}

// Unwrap returns the underlying wait error
func (e *NavigationTimeoutError) Unwrap() error {
	return e.Err
}

// CleanupError wraps a failure to close the browser handle. Cleanup logs it
// and never returns it.
type CleanupError struct {
	Err error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("failed to close browser handle: %v", e.Err)
}

// Unwrap returns the close error
func (e *CleanupError) Unwrap() error {
	return e.Err
}
