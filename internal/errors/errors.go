// Package errors defines the application-wide error taxonomy (spec §7) and
// its mapping onto HTTP status codes at the server boundary.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an AppError per the spec's error taxonomy, independent of
// the underlying Go error type.
type Kind string

const (
	KindValidation  Kind = "validation"   // reject: malformed input
	KindAuth        Kind = "auth"         // reject: bad API key / rate quota
	KindTransient   Kind = "transient"    // retry with backoff
	KindPermanent   Kind = "permanent"    // surface, do not retry
	KindModelOutput Kind = "model_output" // recovered locally, counted
	KindIntegrity   Kind = "integrity"    // logged and skipped
	KindSecurity    Kind = "security"     // filtered, safe message surfaced
	KindFatal       Kind = "fatal"        // abort worker, keep service up
	KindInternal    Kind = "internal"     // uncategorized
)

// AppError carries a taxonomy Kind alongside a user-safe message and the
// wrapped cause, so handlers can map Kind to a status code without
// re-inspecting error strings.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// New constructs an AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap attaches kind and message to an existing error.
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// HTTPStatus maps a Kind to the spec §7 propagation policy.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return 422
	case KindAuth:
		return 401
	case KindSecurity:
		return 200 // safe refusal, not an error response
	case KindPermanent, KindTransient, KindModelOutput, KindIntegrity, KindFatal, KindInternal:
		return 500
	default:
		return 500
	}
}

// As attempts to retrieve an *AppError from an arbitrary error chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	ok := stderrors.As(err, &ae)
	return ae, ok
}
