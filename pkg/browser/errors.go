package browser

import (
	"errors"
	"fmt"
	"time"
)

// ErrHandleClosed is returned by handle operations after Close.
var ErrHandleClosed = errors.New("browser handle is closed")

// TimeoutError reports that a bounded wait expired before its condition held.
type TimeoutError struct {
	Condition string
	Timeout   time.Duration

	// LastErr is the last error the condition returned while polling, if any
	LastErr error
}

func (e *TimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("timed out after %s waiting for %s: %v", e.Timeout, e.Condition, e.LastErr)
	}
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Condition)
}

// Unwrap returns the last polling error
func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

// ElementNotFoundError reports that a required element did not appear within its wait.
type ElementNotFoundError struct {
	Locator Locator
	Timeout time.Duration
	Err     error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found: %s (waited %s)", e.Locator, e.Timeout)
}

// Unwrap returns the underlying wait error
func (e *ElementNotFoundError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is, or wraps, a bounded-wait timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsNotFound reports whether err is, or wraps, an ElementNotFoundError.
func IsNotFound(err error) bool {
	var nf *ElementNotFoundError
	return errors.As(err, &nf)
}
