// Package kycerrors defines the structured error taxonomy of the KYC core.
// Every error surfaced to callers carries a stable kind that can be branched
// on programmatically, plus a human-readable message.
package kycerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	// KindNotFound - referenced record or subject does not exist.
	// Non-retryable without a different id.
	KindNotFound Kind = "not_found"
	// KindValidation - missing or empty required field. Caller must correct
	// the request.
	KindValidation Kind = "validation_error"
	// KindInvalidTransition - approve/reject attempted on a record that is
	// not pending. Caller should refresh state before deciding again.
	KindInvalidTransition Kind = "invalid_transition"
	// KindConflict - a concurrent transition raced and won. Retryable after
	// reloading the record and re-evaluating the decision.
	KindConflict Kind = "conflict"
	// KindUpstreamUnavailable - the subject directory or another upstream
	// failed during enrichment. Recovered locally with degraded data.
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindInternal - unexpected failure, not part of the public taxonomy.
	KindInternal Kind = "internal"
)

// Error is a structured error with a stable kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds a not_found error.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a validation_error.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition builds an invalid_transition error.
func InvalidTransition(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a conflict error.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Upstream builds an upstream_unavailable error wrapping the cause.
func Upstream(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Internal wraps an unexpected failure.
func Internal(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
