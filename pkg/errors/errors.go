// Package errors provides structured error types for goalgraph.
//
// Core packages (goal, layout, progress) use plain sentinel errors; this
// package adds machine-readable codes for the surfaces that cross a process
// boundary - the store, the HTTP API, and the CLI - so callers can branch on
// a code instead of matching message text.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNodeNotFound, "no node %s", id)
//	if errors.Is(err, errors.ErrCodeNodeNotFound) {
//	    // 404
//	}
//
//	// Wrap an underlying failure
//	err := errors.Wrap(errors.ErrCodeSyncWrite, cause, "persist document %s", docID)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes, grouped by category.
const (
	// Input validation
	ErrCodeInvalidNode         Code = "INVALID_NODE"
	ErrCodeInvalidStatus       Code = "INVALID_STATUS"
	ErrCodeInvalidRelationship Code = "INVALID_RELATIONSHIP"
	ErrCodeCycleDetected       Code = "CYCLE_DETECTED"

	// Resource not found
	ErrCodeNodeNotFound     Code = "NODE_NOT_FOUND"
	ErrCodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"

	// Store / synchronization
	ErrCodeSyncFetch     Code = "SYNC_FETCH_FAILED"
	ErrCodeSyncWrite     Code = "SYNC_WRITE_FAILED"
	ErrCodeSyncSubscribe Code = "SYNC_SUBSCRIBE_FAILED"

	// Unexpected internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// Is reports whether err carries the given error code.
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
