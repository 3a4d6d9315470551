// Package errors provides the engine's structured error taxonomy.
package errors

// Import as perr to avoid clashing with the standard library.

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an engine failure. Values are stable on the wire.
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeValidation is for malformed filter, page or batch parameters
	ErrorCodeValidation

	// ErrorCodeSafetyRejected is for items still in use at delete time
	ErrorCodeSafetyRejected

	// ErrorCodeRepository is for content store read/write failures
	ErrorCodeRepository

	// ErrorCodeNotFound is for items missing from the content store
	ErrorCodeNotFound

	// ErrorCodeCache is for cache failures; never surfaced to callers
	ErrorCodeCache

	// ErrorCodeUnauthorized is for missing or invalid credentials
	ErrorCodeUnauthorized

	// ErrorCodeForbidden is for missing capabilities or anti-forgery tokens
	ErrorCodeForbidden
)

// String returns the wire name of the code
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeValidation:
		return "validation_error"
	case ErrorCodeSafetyRejected:
		return "safety_rejected"
	case ErrorCodeRepository:
		return "repository_error"
	case ErrorCodeNotFound:
		return "not_found"
	case ErrorCodeCache:
		return "cache_error"
	case ErrorCodeUnauthorized:
		return "unauthorized"
	case ErrorCodeForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// HTTPStatusCode turns an ErrorCode into an http status code
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeValidation:
		return http.StatusBadRequest
	case ErrorCodeSafetyRejected:
		return http.StatusConflict
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is the structured error type.
// msg is operator facing; code is machine facing; field names the offending
// input; details carries usage explanations for safety rejections.
type Error struct {
	orig    error
	msg     string
	code    ErrorCode
	field   string
	op      string
	details []string
}

// Wire is the JSON form returned by the gateway
type Wire struct {
	Code    string   `json:"code"`
	Message string   `json:"error"`
	Field   string   `json:"field,omitempty"`
	Details []string `json:"usageExplanations,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Message returns the message without the wrapped cause
func (e *Error) Message() string { return e.msg }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Details returns a copy of the attached details
func (e *Error) Details() []string {
	if len(e.details) == 0 {
		return nil
	}
	out := make([]string, len(e.details))
	copy(out, e.details)
	return out
}

// ToWire converts an *Error to a Wire payload
func (e *Error) ToWire() Wire {
	return Wire{Code: e.code.String(), Message: e.msg, Field: e.field, Details: e.Details()}
}

// WireFrom converts any error into a Wire payload
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown.String(), Message: err.Error()}
}

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// WithField attaches a field (copy-on-write). Foreign errors are returned unchanged.
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label (copy-on-write). Foreign errors are returned unchanged.
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with a formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// Validationf returns a validation error for field
func Validationf(field, format string, a ...any) error {
	return &Error{code: ErrorCodeValidation, msg: fmt.Sprintf(format, a...), field: field}
}

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// SafetyRejected returns a refusal carrying the item's current usage explanations
func SafetyRejected(msg string, explanations []string) error {
	details := make([]string, len(explanations))
	copy(details, explanations)
	return &Error{code: ErrorCodeSafetyRejected, msg: msg, details: details}
}

// Repository wraps a content store failure
func Repository(orig error, op string) error {
	if e, ok := As(orig); ok && (e.code == ErrorCodeRepository || e.code == ErrorCodeNotFound) {
		return orig
	}
	return &Error{code: ErrorCodeRepository, msg: "content repository failure", op: op, orig: orig}
}

// Cache wraps a cache failure
func Cache(orig error, op string) error {
	return &Error{code: ErrorCodeCache, msg: "cache failure", op: op, orig: orig}
}
