// Package errors provides structured error types for the Flowscope engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, server, and coordinator
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND: Resource not found
//   - INVARIANT_VIOLATION: Graph consistency check failures (always a bug)
//   - PRECONDITION_FAILED: Operation preconditions not met
//   - TIMEOUT / CANCELLED / OPERATION_FAILED: Coordinator failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownEndpoint, "edge %s references unknown node %s", edgeID, nodeID)
//	if errors.Is(err, errors.ErrCodeUnknownEndpoint) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeOperationFailed, origErr, "layout pass failed")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidID       Code = "INVALID_ID"
	ErrCodeDuplicateID     Code = "DUPLICATE_ID"
	ErrCodeUnknownEndpoint Code = "UNKNOWN_ENDPOINT"
	ErrCodeInvalidSnapshot Code = "INVALID_SNAPSHOT"

	// Resource not found errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeNodeNotFound      Code = "NODE_NOT_FOUND"
	ErrCodeContainerNotFound Code = "CONTAINER_NOT_FOUND"
	ErrCodeEdgeNotFound      Code = "EDGE_NOT_FOUND"

	// Graph consistency errors
	ErrCodeInvariantViolation Code = "INVARIANT_VIOLATION"
	ErrCodePreconditionFailed Code = "PRECONDITION_FAILED"

	// Coordinator errors
	ErrCodeOperationFailed Code = "OPERATION_FAILED"
	ErrCodeTimeout         Code = "TIMEOUT"
	ErrCodeCancelled       Code = "CANCELLED"
	ErrCodeQueueClosed     Code = "QUEUE_CLOSED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsTimeout reports whether err is a coordinator timeout.
// Timeouts are distinct from generic operation failures so callers can
// tell "never finished" apart from "threw an error".
func IsTimeout(err error) bool {
	return Is(err, ErrCodeTimeout)
}

// IsCancelled reports whether err is a queue cancellation.
func IsCancelled(err error) bool {
	return Is(err, ErrCodeCancelled)
}
