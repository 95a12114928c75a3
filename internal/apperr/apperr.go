// Package apperr defines the closed set of error kinds the API can report
// and how each one maps to an HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport purposes.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Causes produced by the application itself. Causes raised by stored
// procedures are passed through verbatim and are not listed here.
const (
	CodeUnexpected         = "unexpected_error"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeInvalidCredentials = "invalid_credentials"
	CodeOTPInvalid         = "otp_invalid"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeTokenUsed          = "token_used"
	CodeInvalidBody        = "invalid_body"
	CodeEmailNotSent       = "email_not_sent"
	CodeUnsupportedMedia   = "unsupported_media_type"
)

// Error is the application error type. Cause is the client-facing string;
// Err, when set, is the underlying failure and is never sent to clients.
type Error struct {
	Kind  Kind
	Cause string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Cause, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind and cause, so sentinel
// values can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Cause == t.Cause
}

func Validation(cause string) *Error {
	return &Error{Kind: KindValidation, Cause: cause}
}

func Unauthorized(cause string) *Error {
	return &Error{Kind: KindUnauthorized, Cause: cause}
}

func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Cause: CodeForbidden}
}

func NotFound(cause string) *Error {
	return &Error{Kind: KindNotFound, Cause: cause}
}

// Internal wraps an unexpected failure. The client only ever sees
// unexpected_error.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Cause: CodeUnexpected, Err: err}
}

// Wrap attaches an underlying error to a classified error without changing
// what the client sees.
func Wrap(e *Error, err error) *Error {
	return &Error{Kind: e.Kind, Cause: e.Cause, Err: err}
}

// From extracts the *Error from err's chain. Unknown errors become internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// Status returns the HTTP status for err.
func Status(err error) int {
	return From(err).Kind.Status()
}

// Cause returns the client-facing cause for err.
func Cause(err error) string {
	ae := From(err)
	if ae.Kind == KindInternal {
		return CodeUnexpected
	}
	return ae.Cause
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

var (
	ErrInvalidCredentials = Validation(CodeInvalidCredentials)
	ErrOTPInvalid         = Unauthorized(CodeOTPInvalid)
	ErrInvalidToken       = Unauthorized(CodeInvalidToken)
	ErrTokenExpired       = Unauthorized(CodeTokenExpired)
	ErrTokenUsed          = Unauthorized(CodeTokenUsed)
	ErrUnauthorized       = Unauthorized(CodeUnauthorized)
)
