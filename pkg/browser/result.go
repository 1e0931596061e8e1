package browser

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the outcome of an operation that may fail benignly.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindNotFound
	KindTimeout
	KindDriver
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	case KindDriver:
		return "driver"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Result carries either a value or a classified failure. It is used for
// existence checks where "not there" is an expected answer rather than an error.
type Result[T any] struct {
	Value T
	Kind  ErrorKind
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps a failure, classifying err.
func Fail[T any](err error) Result[T] {
	return Result[T]{Kind: Classify(err), Err: err}
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool {
	return r.Kind == KindNone
}

// Unwrap returns the value or the error, for callers that want to escalate.
func (r Result[T]) Unwrap() (T, error) {
	if r.Kind == KindNone {
		return r.Value, nil
	}
	err := r.Err
	if err == nil {
		err = errors.New(r.Kind.String())
	}
	return r.Value, err
}

// Classify maps an error to its ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case IsNotFound(err):
		return KindNotFound
	case IsTimeout(err):
		return KindTimeout
	default:
		return KindDriver
	}
}

// Probe checks once, without waiting, whether loc matches an element. A miss is
// KindNotFound; only driver failures are reported as KindDriver.
func Probe(h Handle, loc Locator) Result[Element] {
	els, err := h.Query(loc)
	if err != nil {
		return Result[Element]{Kind: KindDriver, Err: err}
	}
	if len(els) == 0 {
		return Result[Element]{Kind: KindNotFound, Err: &ElementNotFoundError{Locator: loc}}
	}
	return Ok(els[0])
}

// ProbeWithin waits for loc as opts allow and classifies the outcome.
func ProbeWithin(h Handle, loc Locator, opts WaitOptions) Result[Element] {
	el, err := FindElement(h, loc, opts)
	if err != nil {
		var te *TimeoutError
		if errors.As(err, &te) && te.LastErr != nil && !IsNotFound(te.LastErr) {
			return Result[Element]{Kind: KindDriver, Err: err}
		}
		return Result[Element]{Kind: KindNotFound, Err: err}
	}
	return Ok(el)
}
