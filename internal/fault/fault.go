// Package fault defines the error taxonomy shared by the enrollment and
// identification paths. Codes describe what went wrong in domain terms,
// not HTTP terms; the web layer maps them to status codes.
package fault

import (
	"errors"
	"fmt"
)

// Code represents a domain error category.
type Code string

const (
	// CodeValidation marks a malformed or incomplete request. No external
	// call was made, so no compensation is ever needed.
	CodeValidation Code = "validation_failed"
	// CodeNotFound marks a legitimate negative result, not a failure.
	CodeNotFound Code = "not_found"
	// CodeService marks a failed call to an external system.
	CodeService Code = "service_error"
	// CodeNoFace means the biometric index could not extract a usable
	// face from the submitted image.
	CodeNoFace Code = "no_face_detected"
	// CodeInconsistent means the join invariant between the biometric
	// index and the identity store has been violated.
	CodeInconsistent Code = "inconsistent_state"
	// CodeInternal covers everything else.
	CodeInternal Code = "internal_error"
)

// Error wraps domain or infrastructure failures with a stable code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new fault with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a new fault with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a fault wrapping an existing error. If the wrapped error
// already carries a code, that code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of err, or CodeInternal if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode checks whether err is a fault with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
