// Package errors defines the structured error codes shared across the
// stores, stages, and the HTTP front end.
package errors

import "fmt"

// Code classifies a Loom error.
type Code string

const (
	ErrStorage        Code = "STORAGE"         // 500: store read/write or serialization failure
	ErrStage          Code = "STAGE"           // 500: a stage's internal failure
	ErrNotFound       Code = "NOT_FOUND"       // 404
	ErrInvalidRequest Code = "INVALID_REQUEST" // 400
)

// Error is a structured error with a code and optional details.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewStorage wraps a store read/write failure.
func NewStorage(op string, cause error) *Error {
	return &Error{
		Code:    ErrStorage,
		Message: fmt.Sprintf("%s: %v", op, cause),
		Details: map[string]any{"op": op},
		Cause:   cause,
	}
}

// NewStage wraps a stage failure without losing which stage failed.
func NewStage(stage string, cause error) *Error {
	return &Error{
		Code:    ErrStage,
		Message: fmt.Sprintf("stage %s: %v", stage, cause),
		Details: map[string]any{"stage": stage},
		Cause:   cause,
	}
}

// NewNotFound reports a missing resource.
func NewNotFound(what string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("not found: %s", what),
	}
}

// NewInvalidRequest reports a malformed request to the front end.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}
