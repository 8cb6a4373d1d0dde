package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Oracle error codes
const (
	ErrOracleTimeout   ErrorCode = "ORACLE_TIMEOUT"
	ErrOracleMalformed ErrorCode = "ORACLE_MALFORMED_RESPONSE"
)

// Turn and session error codes
const (
	ErrTurnExecution       ErrorCode = "TURN_EXECUTION_FAILURE"
	ErrCancelled           ErrorCode = "CANCELLED_BY_OPERATOR"
	ErrSequenceCapExceeded ErrorCode = "SEQUENCE_CAP_EXCEEDED"
	ErrCompactionFailed    ErrorCode = "COMPACTION_FAILED"
	ErrInvalidSession      ErrorCode = "INVALID_SESSION"
)

// Error represents a structured error with code, message, and cause.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// GetErrorCode extracts the error code from an error, unwrapping as
// needed.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
