package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into the closed set of failure modes the
// application distinguishes. Business logic branches on Kind; transport
// status codes are assigned only at the HTTP boundary.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation covers bad input rejected before any mutation,
	// including insufficient stock and unknown products in a cart.
	KindValidation
	KindNotFound
	// KindConflict is a duplicate unique key. During sync reconciliation
	// a conflict on push is treated as success, not failure.
	KindConflict
	// KindTransaction is a multi-row write that aborted and rolled back.
	KindTransaction
	// KindNetwork is a transient transport failure, safe to retry.
	KindNetwork
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransaction:
		return "transaction"
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error carries a kind, a human-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUnknown if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
