// Package errors provides a structured error type shared across punktf's
// packages, with a stable code per category so callers and tests can branch
// on failure kind without string matching.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique, stable error category.
type ErrorCode string

const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrIO           ErrorCode = "IO"

	// Profile errors
	ErrProfileParse    ErrorCode = "PROFILE_PARSE"
	ErrProfileSchema   ErrorCode = "PROFILE_SCHEMA"
	ErrCyclicExtends   ErrorCode = "CYCLIC_EXTENDS"
	ErrProfileNotFound ErrorCode = "PROFILE_NOT_FOUND"

	// Template errors
	ErrTemplateSyntax    ErrorCode = "TEMPLATE_SYNTAX"
	ErrUndefinedVariable ErrorCode = "UNDEFINED_VARIABLE"
	ErrNonUtf8           ErrorCode = "NON_UTF8"

	// Deploy errors
	ErrMergeConflict ErrorCode = "MERGE_CONFLICT"
	ErrHookFailed    ErrorCode = "HOOK_FAILED"
	ErrDeployIO      ErrorCode = "DEPLOY_IO"
)

// PunktfError is a structured error carrying a stable code, a human message,
// arbitrary key/value details and an optional wrapped cause.
type PunktfError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface.
func (e *PunktfError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface.
func (e *PunktfError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is; two PunktfErrors are equal if their codes match,
// regardless of message or details.
func (e *PunktfError) Is(target error) bool {
	var targetErr *PunktfError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a PunktfError with the given code and message.
func New(code ErrorCode, message string) *PunktfError {
	return &PunktfError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a PunktfError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *PunktfError {
	return &PunktfError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error under the given code, returning nil if err is nil.
func Wrap(err error, code ErrorCode, message string) *PunktfError {
	if err == nil {
		return nil
	}
	return &PunktfError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error under the given code with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PunktfError {
	if err == nil {
		return nil
	}
	return &PunktfError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail attaches a single detail and returns the receiver for chaining.
func (e *PunktfError) WithDetail(key string, value interface{}) *PunktfError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails merges multiple details and returns the receiver for chaining.
func (e *PunktfError) WithDetails(details map[string]interface{}) *PunktfError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode reports whether err is a PunktfError of the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	var punktfErr *PunktfError
	if errors.As(err, &punktfErr) {
		return punktfErr.Code == code
	}
	return false
}

// GetErrorCode returns err's code, or ErrUnknown if err is not a PunktfError.
func GetErrorCode(err error) ErrorCode {
	var punktfErr *PunktfError
	if errors.As(err, &punktfErr) {
		return punktfErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns err's details, or nil if err is not a PunktfError.
func GetErrorDetails(err error) map[string]interface{} {
	var punktfErr *PunktfError
	if errors.As(err, &punktfErr) {
		return punktfErr.Details
	}
	return nil
}
