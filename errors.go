package hotbench

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a structured benchmark error with operation and
// device context.
type Error struct {
	Op     string    // Operation that failed (e.g., "probe", "submit", "unregister")
	Device string    // Device display name ("" if not applicable)
	Code   ErrorCode // High-level error category
	Msg    string    // Human-readable message
	Inner  error     // Wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	if e.Device != "" {
		parts = append(parts, fmt.Sprintf("device=%q", e.Device))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Inner != nil && e.Msg == "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Inner)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("hotbench: %s (%s)", msg, strings.Join(parts, ", "))
	}

	return fmt.Sprintf("hotbench: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is provides errors.Is support: two benchmark errors match when their
// codes match, so sentinel values like ErrPoolExhausted compare by
// category rather than by pointer.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}

	return false
}

// ErrorCode represents high-level error categories
type ErrorCode string

const (
	ErrCodePoolExhausted ErrorCode = "task pool exhausted"
	ErrCodeProbeFailed   ErrorCode = "probe failed"
	ErrCodeSubmitFailed  ErrorCode = "submit failed"
	ErrCodeQualification ErrorCode = "qualification failed"
	ErrCodeTeardown      ErrorCode = "teardown failed"
	ErrCodeInvalidConfig ErrorCode = "invalid configuration"
)

// ErrPoolExhausted is returned by TaskPool.Acquire when every task is
// in flight. The engine treats it as fatal: the pool is sized to the
// expected device count, so running dry means the benchmark is
// overcommitted and its results are no longer meaningful.
var ErrPoolExhausted = &Error{Op: "acquire", Code: ErrCodePoolExhausted, Msg: "no free tasks"}

// Error constructors

// NewError creates a new structured error
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{
		Op:   op,
		Code: code,
		Msg:  msg,
	}
}

// NewDeviceError creates a new device-specific error
func NewDeviceError(op, device string, code ErrorCode, msg string) *Error {
	return &Error{
		Op:     op,
		Device: device,
		Code:   code,
		Msg:    msg,
	}
}

// WrapError wraps an existing error with benchmark context
func WrapError(op, device string, code ErrorCode, inner error) *Error {
	if inner == nil {
		return nil
	}

	// If it's already a structured error, keep its category and chain
	// unless the caller is recategorizing it.
	if be, ok := inner.(*Error); ok && code == be.Code {
		return &Error{
			Op:     op,
			Device: device,
			Code:   be.Code,
			Msg:    be.Msg,
			Inner:  be.Inner,
		}
	}

	return &Error{
		Op:     op,
		Device: device,
		Code:   code,
		Inner:  inner,
	}
}

// IsCode checks if an error matches a specific error code
func IsCode(err error, code ErrorCode) bool {
	var benchErr *Error
	if errors.As(err, &benchErr) {
		return benchErr.Code == code
	}
	return false
}
