package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for translation to an HTTP status at the
// controller boundary. Services return kinded errors; controllers never
// inspect error strings.
type Kind int

const (
	// KindInternal is the default for anything unclassified.
	KindInternal Kind = iota
	// KindInvalidRequest covers malformed input: missing fields, out-of-range counts.
	KindInvalidRequest
	// KindUnauthorized means the admin gate failed.
	KindUnauthorized
	// KindNotFound means a link, attempt, quiz or template is absent.
	KindNotFound
	// KindConflict covers already-submitted attempts and exhausted attempt quotas.
	KindConflict
	// KindExpired means a link or attempt deadline has passed.
	KindExpired
	// KindUpstreamUnavailable means the generative backend or persistence is unreachable.
	KindUpstreamUnavailable
	// KindValidationFailed covers template variable/placeholder mismatches.
	KindValidationFailed
)

// Error carries a kind, a user-safe message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a kinded error with a user-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a kinded error with a formatted user-safe message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a kinded error. The cause is logged server-side
// but never shown to clients.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithDetails attaches actionable detail strings (admin-side validation only).
func (e *Error) WithDetails(details ...string) *Error {
	e.Details = append(e.Details, details...)
	return e
}

// KindOf extracts the kind from err, or KindInternal when err is not kinded.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
