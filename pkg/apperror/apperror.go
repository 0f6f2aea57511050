package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping
type Kind int

const (
	// KindValidation — malformed or missing required input. Recoverable by the caller.
	KindValidation Kind = iota
	// KindUnauthenticated — no actor identity supplied where one is required.
	KindUnauthenticated
	// KindNotFound — a referenced record does not resolve.
	KindNotFound
	// KindForbidden — the authenticated actor lacks standing for the operation.
	KindForbidden
	// KindConflict — the record exists but is not in the precondition state.
	KindConflict
	// KindStore — unexpected persistence or dispatch failure; internal detail is
	// logged and never exposed to guest-facing callers.
	KindStore
)

// Error carries a classification kind alongside the message
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Msg: msg}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Store wraps an unexpected failure from the data store or dispatcher
func Store(msg string, err error) *Error {
	return &Error{Kind: KindStore, Msg: msg, Err: err}
}

// KindOf extracts the kind of err, defaulting to KindStore for untyped errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
