// Package apperr defines the closed set of failure kinds produced by the
// auth, repository and handler layers, and the stable messages shown to
// clients for each of them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind tags an application error. The set is closed: every layer produces
// one of these and the HTTP layer maps each one to exactly one status.
type Kind string

const (
	KindUnauthenticated     Kind = "unauthenticated"
	KindInvalidCredential   Kind = "invalid_credential"
	KindExpiredCredential   Kind = "expired_credential"
	KindMalformedCredential Kind = "malformed_credential"
	KindValidationFailed    Kind = "validation_failed"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUnexpected          Kind = "unexpected"
)

// Kinds lists every Kind.
var Kinds = []Kind{
	KindUnauthenticated,
	KindInvalidCredential,
	KindExpiredCredential,
	KindMalformedCredential,
	KindValidationFailed,
	KindNotFound,
	KindConflict,
	KindUpstreamUnavailable,
	KindUnexpected,
}

// Error is a tagged application error. Code selects the client-facing
// message from the catalog; Err is the internal cause and is only logged.
type Error struct {
	Kind  Kind
	Code  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Code
	if e.Field != "" {
		msg += " (field " + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind and code, so sentinel values
// such as ErrExpenseNotFound work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code && (t.Field == "" || e.Field == t.Field)
}

// New returns an error of the given kind with a catalog code.
func New(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

// Wrap tags an internal cause.
func Wrap(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

// Validation reports an invalid field.
func Validation(field, code string) *Error {
	return &Error{Kind: KindValidationFailed, Code: code, Field: field}
}

// Validationf is Validation with an internal detail for the logs.
func Validationf(field, code, format string, args ...any) *Error {
	return &Error{Kind: KindValidationFailed, Code: code, Field: field, Err: fmt.Errorf(format, args...)}
}

// From extracts the application error from err. Untagged errors become
// KindUnexpected so nothing escapes the taxonomy.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(KindUnexpected, CodeUnexpected, err)
}

// KindOf returns the kind of err, or KindUnexpected for untagged errors.
func KindOf(err error) Kind {
	return From(err).Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNoCredential      = New(KindUnauthenticated, CodeAuthMissing)
	ErrInvalidCredential = New(KindInvalidCredential, CodeAuthInvalid)
	ErrExpiredCredential = New(KindExpiredCredential, CodeAuthExpired)
	ErrNoSubject         = New(KindMalformedCredential, CodeAuthMalformed)
	ErrBadLogin          = New(KindInvalidCredential, CodeAuthBadLogin)
	ErrEmailTaken        = New(KindConflict, CodeUserExists)
	ErrUserNotFound      = New(KindNotFound, CodeUserNotFound)
	ErrExpenseNotFound   = New(KindNotFound, CodeExpenseNotFound)
	ErrGoalNotFound      = New(KindNotFound, CodeGoalNotFound)
)
