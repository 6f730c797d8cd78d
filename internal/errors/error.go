// Package errors provides coded errors for the dashboard.
//
// Codes are grouped by range:
//   - General errors (1-99)
//   - Validation errors (100-199): bad query parameters, bad configuration
//   - Data errors (200-299): empty results surfaced as errors by renderers
//   - Retrieval errors (700-799): fetching or parsing the remote price files
//
// Usage:
//
//	err := errors.Wrap(errors.ErrCodeFetchFailed, "fetch brent", cause)
//	if errors.IsRetrievalError(err) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates an Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause with a code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf wraps cause with a code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the first *Error in err's chain, or ErrCodeUnknown.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}

// HasCode reports whether err carries code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsRetrievalError reports whether err came from fetching or parsing a price source.
func IsRetrievalError(err error) bool {
	return GetCode(err).IsRetrieval()
}
