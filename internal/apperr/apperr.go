// Package apperr defines the tagged failure kinds that cross the service boundary.
package apperr

import "errors"

// Kind classifies a failure for the HTTP boundary.
type Kind int

const (
	// Unexpected is the zero value so that unclassified errors never leak as client errors.
	Unexpected Kind = iota
	NotFound
	Duplicate
	Validation
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Duplicate:
		return "duplicate"
	case Validation:
		return "validation"
	default:
		return "unexpected"
	}
}

// Error carries a kind and a caller-safe message, optionally wrapping the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind with no cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an Error of the given kind that keeps err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewNotFound reports a missing record.
func NewNotFound(message string) *Error { return New(NotFound, message) }

// NewDuplicate reports a uniqueness conflict.
func NewDuplicate(message string) *Error { return New(Duplicate, message) }

// NewValidation reports input the caller must fix.
func NewValidation(message string) *Error { return New(Validation, message) }

// KindOf reports the kind of the first *Error in err's chain.
// Anything else, including nil, is Unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unexpected
}

// MessageOf returns the caller-safe message of the first *Error in err's chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
