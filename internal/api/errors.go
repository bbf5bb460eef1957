package api

import (
	"errors"
	"fmt"
)

// Kind classifies a data source failure.
type Kind int

const (
	// KindNetwork covers transport failures: unreachable host, timeout,
	// cancellation, truncated body.
	KindNetwork Kind = iota + 1
	// KindUnexpectedShape means the server answered with a body that
	// matches none of the accepted response shapes.
	KindUnexpectedShape
	// KindRejected means the server answered but refused the operation.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network failure"
	case KindUnexpectedShape:
		return "unexpected response shape"
	case KindRejected:
		return "operation rejected"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is.
var (
	ErrNetwork         = errors.New("network failure")
	ErrUnexpectedShape = errors.New("unexpected response shape")
	ErrRejected        = errors.New("operation rejected")
)

// Error is returned by every Client method.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the Kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrUnexpectedShape:
		return e.Kind == KindUnexpectedShape
	case ErrRejected:
		return e.Kind == KindRejected
	}
	return false
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}
