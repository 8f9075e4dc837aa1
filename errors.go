package astore

import (
	"errors"
	"strconv"
	"strings"
)

// Error is the astore error domain type.
//
// Errors coming from the SDK should be able to be inspected as ([errors.As])
// an *Error at some point in the error chain. Callers are expected to test
// classes of failure with [errors.Is] against a declared [ErrorKind] rather
// than matching message text:
//
//	if errors.Is(err, astore.ErrNotFound) { ... }
//
// The SDK creates an Error at the system boundary (the HTTP round trip or a
// response decode) and does not re-wrap in another Error above that.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string

	// Status is the HTTP status code that produced this error, when the
	// error was derived from a completed response. Zero for transport and
	// decode failures.
	Status int
}

// Assert this implements all the cool features.
var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	switch e.Kind {
	case ErrBadRequest,
		ErrUnauthorized,
		ErrForbidden,
		ErrNotFound,
		ErrConflict,
		ErrInternal,
		ErrUnavailable,
		ErrResponse,
		ErrTransport,
		ErrDecode:
		b.WriteString(string(e.Kind))
	default:
		b.WriteString("???")
	}
	b.WriteString("]")
	if e.Status != 0 {
		b.WriteString(" (")
		b.WriteString(strconv.Itoa(e.Status))
		b.WriteString(")")
	}
	b.WriteString(": ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is].
//
// It compares the error kind. Callers should compare against a declared
// [ErrorKind] over a specific error.
func (e *Error) Is(kind error) bool {
	return errors.Is(e.Kind, kind)
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error {
	return e.Inner
}

// ErrorKind represents classes of errors to be checked against.
type ErrorKind string

// Defined error kinds.
//
// The first seven correspond one-to-one with HTTP status codes the server
// emits; ErrResponse covers any other non-2xx status. ErrTransport and
// ErrDecode never carry a status: the former means the request never
// completed (connection, TLS, or timeout failure) and the latter means the
// response completed but could not be decoded.
var (
	ErrBadRequest   = ErrorKind("bad request")         // 400
	ErrUnauthorized = ErrorKind("unauthorized")        // 401
	ErrForbidden    = ErrorKind("forbidden")           // 403
	ErrNotFound     = ErrorKind("not found")           // 404
	ErrConflict     = ErrorKind("conflict")            // 409
	ErrInternal     = ErrorKind("internal")            // 500
	ErrUnavailable  = ErrorKind("service unavailable") // 503
	ErrResponse     = ErrorKind("response")            // any other >=400 status
	ErrTransport    = ErrorKind("transport")           // request never completed
	ErrDecode       = ErrorKind("decode")              // response unparseable
)

// Error implements error.
func (e ErrorKind) Error() string {
	return string(e)
}
