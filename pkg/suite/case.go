package suite

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
	"github.com/entrhq/securedocs-e2e/pkg/logging"
	"github.com/entrhq/securedocs-e2e/pkg/pages"
	"github.com/entrhq/securedocs-e2e/pkg/session"
)

// Case is one end-to-end scenario.
type Case struct {
	// Name is unique across the registry, e.g. "login-user"
	Name string

	// Category groups related cases, e.g. "auth"
	Category string

	// Account is logged in by the runner before Run. None leaves the
	// session untouched so the case can drive login itself.
	Account session.AccountClass

	Description string

	Run func(ctx context.Context, env *Env) error
}

// ID is the case's category-qualified name, e.g. "auth/login-user".
func (c Case) ID() string {
	if c.Category == "" {
		return c.Name
	}
	return c.Category + "/" + c.Name
}

// Env is what a case gets to work with.
type Env struct {
	// Session is the worker's manager. It is already logged in as
	// Case.Account when that is not None.
	Session *session.Manager

	// Handle is the authenticated handle for Case.Account, nil for None
	Handle browser.Handle

	Site pages.Site
	Log  *logging.Logger

	// Artifacts is a directory the case may write files into
	Artifacts string

	// Attempt counts from 1
	Attempt int
}

// SkipError marks a case as skipped rather than failed.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "skipped: " + e.Reason
}

// Skip returns an error that makes the runner record the case as skipped.
func Skip(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// IsSkip reports whether err is, or wraps, a SkipError.
func IsSkip(err error) bool {
	var se *SkipError
	return errors.As(err, &se)
}
