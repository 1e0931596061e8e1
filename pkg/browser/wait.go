package browser

import (
	"fmt"
	"strings"
	"time"
)

// Condition is a predicate polled by WaitUntil.
type Condition struct {
	// Name describes the condition in timeout errors
	Name string

	// Check reports whether the condition currently holds. A returned error
	// does not end the wait; it is kept as the last error and polling continues.
	Check func(h Handle) (bool, error)
}

// WaitOptions bounds a wait.
type WaitOptions struct {
	Timeout  time.Duration
	Interval time.Duration
}

// WaitUntil polls cond until it holds or opts.Timeout elapses. The condition is
// always checked at least once, so a zero timeout is a single check.
func WaitUntil(h Handle, cond Condition, opts WaitOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}

	deadline := time.Now().Add(opts.Timeout)
	var lastErr error
	for {
		ok, err := cond.Check(h)
		if err != nil {
			lastErr = err
		}
		if ok {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &TimeoutError{Condition: cond.Name, Timeout: opts.Timeout, LastErr: lastErr}
		}
		time.Sleep(min(opts.Interval, remaining))
	}
}

// ElementPresent holds once at least one element matches loc.
func ElementPresent(loc Locator) Condition {
	return Condition{
		Name: fmt.Sprintf("element %s present", loc),
		Check: func(h Handle) (bool, error) {
			els, err := h.Query(loc)
			if err != nil {
				return false, err
			}
			return len(els) > 0, nil
		},
	}
}

// ElementClickable holds once some element matching loc is visible and enabled.
func ElementClickable(loc Locator) Condition {
	return Condition{
		Name: fmt.Sprintf("element %s clickable", loc),
		Check: func(h Handle) (bool, error) {
			els, err := h.Query(loc)
			if err != nil {
				return false, err
			}
			for _, el := range els {
				if clickable(el) {
					return true, nil
				}
			}
			return false, nil
		},
	}
}

// URLContains holds once the current URL contains fragment.
func URLContains(fragment string) Condition {
	return Condition{
		Name: fmt.Sprintf("url containing %q", fragment),
		Check: func(h Handle) (bool, error) {
			return strings.Contains(h.CurrentURL(), fragment), nil
		},
	}
}

// TextContains holds once the visible page text contains text.
func TextContains(text string) Condition {
	return Condition{
		Name: fmt.Sprintf("page text containing %q", text),
		Check: func(h Handle) (bool, error) {
			got, err := PageText(h)
			if err != nil {
				return false, err
			}
			return strings.Contains(got, text), nil
		},
	}
}

// AnyOf holds as soon as one of conds holds. Conditions are checked in order
// on every poll.
func AnyOf(conds ...Condition) Condition {
	names := make([]string, 0, len(conds))
	for _, c := range conds {
		names = append(names, c.Name)
	}
	return Condition{
		Name: "any of [" + strings.Join(names, ", ") + "]",
		Check: func(h Handle) (bool, error) {
			var firstErr error
			for _, c := range conds {
				ok, err := c.Check(h)
				if ok {
					return true, nil
				}
				if err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return false, firstErr
		},
	}
}

// Not holds while cond does not.
func Not(cond Condition) Condition {
	return Condition{
		Name: "not " + cond.Name,
		Check: func(h Handle) (bool, error) {
			ok, err := cond.Check(h)
			if err != nil {
				return false, err
			}
			return !ok, nil
		},
	}
}

// FindElement waits for loc to match and returns the first match. Timeout and
// polling follow opts.
func FindElement(h Handle, loc Locator, opts WaitOptions) (Element, error) {
	els, err := FindElements(h, loc, opts)
	if err != nil {
		return nil, err
	}
	return els[0], nil
}

// FindElements waits for loc to match at least one element.
func FindElements(h Handle, loc Locator, opts WaitOptions) ([]Element, error) {
	var found []Element
	cond := Condition{
		Name: fmt.Sprintf("element %s present", loc),
		Check: func(h Handle) (bool, error) {
			els, err := h.Query(loc)
			if err != nil {
				return false, err
			}
			found = els
			return len(els) > 0, nil
		},
	}
	if err := WaitUntil(h, cond, opts); err != nil {
		return nil, &ElementNotFoundError{Locator: loc, Timeout: opts.Timeout, Err: err}
	}
	return found, nil
}

// FindClickable waits for a visible, enabled element matching loc.
func FindClickable(h Handle, loc Locator, opts WaitOptions) (Element, error) {
	var found Element
	cond := Condition{
		Name: fmt.Sprintf("element %s clickable", loc),
		Check: func(h Handle) (bool, error) {
			els, err := h.Query(loc)
			if err != nil {
				return false, err
			}
			for _, el := range els {
				if clickable(el) {
					found = el
					return true, nil
				}
			}
			return false, nil
		},
	}
	if err := WaitUntil(h, cond, opts); err != nil {
		return nil, &ElementNotFoundError{Locator: loc, Timeout: opts.Timeout, Err: err}
	}
	return found, nil
}

func clickable(el Element) bool {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}
	enabled, err := el.Enabled()
	return err == nil && enabled
}
