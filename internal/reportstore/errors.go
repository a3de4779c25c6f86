package reportstore

import (
	"errors"
	"fmt"
)

type Kind int

const (
	NotFound Kind = iota + 1
	HTTPError
	ParseError
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case HTTPError:
		return "http_error"
	case ParseError:
		return "parse_error"
	default:
		return "unknown"
	}
}

// LoadError is the only error kind returned by the store's accessors,
// apart from context cancellation of the caller.
type LoadError struct {
	Kind   Kind
	Path   string
	Status int
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s: %s", e.Path, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

func IsKind(err error, kind Kind) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == kind
}

func IsNotFound(err error) bool { return IsKind(err, NotFound) }

func asLoadError(path string, err error) error {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	return &LoadError{Kind: HTTPError, Path: path, Err: err}
}
