package geom

import (
	"errors"
	"fmt"
)

// ErrorCode classifies codec and construction failures.
type ErrorCode string

const (
	ErrCodeMalformedWKT    ErrorCode = "MALFORMED_WKT"
	ErrCodeMalformedWKB    ErrorCode = "MALFORMED_WKB"
	ErrCodeInvalidGeometry ErrorCode = "INVALID_GEOMETRY"
	ErrCodeTypeMismatch    ErrorCode = "TYPE_MISMATCH"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrMalformedWKT    = &Error{Code: ErrCodeMalformedWKT, Message: "malformed WKT"}
	ErrMalformedWKB    = &Error{Code: ErrCodeMalformedWKB, Message: "malformed WKB"}
	ErrInvalidGeometry = &Error{Code: ErrCodeInvalidGeometry, Message: "invalid geometry"}
	ErrTypeMismatch    = &Error{Code: ErrCodeTypeMismatch, Message: "geometry type mismatch"}
)

// Error is the single error type returned by this package.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates an error with the given code.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// wrapError adds context to err. The code of an inner *Error is preserved so
// a nested failure keeps its classification.
func wrapError(err error, code ErrorCode, format string, args ...interface{}) *Error {
	var inner *Error
	if errors.As(err, &inner) {
		code = inner.Code
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// IsErrorCode reports whether err (or anything it wraps) carries code.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// GetErrorCode returns the code of the outermost *Error in err's chain.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
