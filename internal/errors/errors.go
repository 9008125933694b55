// Package errors provides standardized domain errors with codes for the pathflow pipeline.
//
// Usage:
//
//	// In components - return typed errors
//	if mgr.state == stateStopped {
//	    return errors.ManagerDone("manager already stopped")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrManagerDone) {
//	    return
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeValidation:
//	        log.Debug("event rejected", "reason", domainErr.Message)
//	    case errors.CodeWatcherFault:
//	        log.Error("watcher died", "error", domainErr)
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the pipeline.
const (
	CodeValidation    Code = "VALIDATION"
	CodeTransientIO   Code = "TRANSIENT_IO"
	CodeWatcherFault  Code = "WATCHER_FAULT"
	CodeCallbackFault Code = "CALLBACK_FAULT"
	CodeQueueClosed   Code = "QUEUE_CLOSED"
	CodeManagerDone   Code = "MANAGER_DONE"
	CodeInternal      Code = "INTERNAL"
)

// Fatal reports whether an error with this code should terminate the pipeline.
// Per-event failures (validation, transient IO, callback faults) never are;
// a dead watcher only kills its own goroutine.
func (c Code) Fatal() bool {
	switch c {
	case CodeValidation, CodeTransientIO, CodeWatcherFault, CodeCallbackFault:
		return false
	default:
		return true
	}
}

// Error is a domain error with a code, message, and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Fatal reports whether this error should terminate the pipeline.
func (e *Error) Fatal() bool {
	return e.Code.Fatal()
}

// Wrap returns a new error with the given cause attached.
func (e *Error) Wrap(cause error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		cause:   cause,
	}
}

// Sentinel errors for errors.Is checks.
var (
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrTransientIO   = &Error{Code: CodeTransientIO, Message: "transient io failure"}
	ErrWatcherFault  = &Error{Code: CodeWatcherFault, Message: "watcher fault"}
	ErrCallbackFault = &Error{Code: CodeCallbackFault, Message: "consumer callback fault"}
	ErrQueueClosed   = &Error{Code: CodeQueueClosed, Message: "queue closed"}
	ErrManagerDone   = &Error{Code: CodeManagerDone, Message: "manager already run"}
)

// Constructor helpers.

// Validation creates a per-event validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a formatted validation error.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// TransientIO creates a retriable IO error.
func TransientIO(msg string, cause error) *Error {
	return &Error{Code: CodeTransientIO, Message: msg, cause: cause}
}

// WatcherFault creates a watcher-goroutine error.
func WatcherFault(msg string, cause error) *Error {
	return &Error{Code: CodeWatcherFault, Message: msg, cause: cause}
}

// CallbackFault creates a consumer-callback error.
func CallbackFault(msg string, cause error) *Error {
	return &Error{Code: CodeCallbackFault, Message: msg, cause: cause}
}

// ManagerDone creates a manager lifecycle error.
func ManagerDone(msg string) *Error {
	return &Error{Code: CodeManagerDone, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: cause}
}
