// Package verrors provides structured error types for vizhost.
//
// Every registry and rendering operation reports failure through a coded
// error value rather than a panic: the container/DOM-like boundary the
// registry sits on is inherently racy (a surface can disappear between a
// call being issued and executed), so callers treat failures as ordinary
// outcomes to re-issue or ignore, never as exceptional control flow.
//
// # Error Codes
//
// Codes follow the registry's failure taxonomy:
//   - NOT_FOUND_*: the instance, node, edge, or session does not exist
//   - PRECONDITION_* / INVALID_*: the operation's inputs were unusable
//     (missing container, malformed config, unsupported layout)
//   - RENDER_FAILED / CAPTURE_FAILED / STORE_FAILED: the wrapped external
//     library (graphviz, echarts, chromedp, a store) reported an error
//
// # Usage
//
//	err := verrors.New(verrors.CodeInstanceNotFound, "no instance %q", id)
//	if verrors.Is(err, verrors.CodeInstanceNotFound) {
//	    // Treat as the boolean-false outcome it represents.
//	}
//
//	// Wrap an external-library error at the boundary:
//	err := verrors.Wrap(verrors.CodeRenderFailed, renderErr, "snapshot %q", id)
package verrors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the registry's failure taxonomy.
const (
	// Not-found: the referenced instance or element does not exist.
	CodeInstanceNotFound Code = "NOT_FOUND_INSTANCE"
	CodeNodeNotFound     Code = "NOT_FOUND_NODE"
	CodeEdgeNotFound     Code = "NOT_FOUND_EDGE"
	CodeSessionNotFound  Code = "NOT_FOUND_SESSION"

	// Precondition: inputs were unusable before any external call was made.
	CodeContainerMissing Code = "PRECONDITION_CONTAINER"
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeInvalidLayout    Code = "INVALID_LAYOUT"
	CodeInvalidConfig    Code = "INVALID_CONFIG"
	CodeInvalidFormat    Code = "INVALID_FORMAT"

	// External: the wrapped library or backing store failed.
	CodeRenderFailed  Code = "RENDER_FAILED"
	CodeCaptureFailed Code = "CAPTURE_FAILED"
	CodeStoreFailed   Code = "STORE_FAILED"

	// Internal: unexpected states that indicate a vizhost bug.
	CodeInternal Code = "INTERNAL_ERROR"
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
// Returns empty string if the error chain holds no *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// NotFound reports whether err is any of the not-found codes. The registry
// returns these for operations addressed at ids that no longer exist, which
// callers commonly treat as a silent no-op.
func NotFound(err error) bool {
	switch GetCode(err) {
	case CodeInstanceNotFound, CodeNodeNotFound, CodeEdgeNotFound, CodeSessionNotFound:
		return true
	}
	return false
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
