// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown errors
//   - Configuration errors (100-199): Invalid knobs, periods, thresholds, score weights
//   - Bar input errors (200-299): Missing columns, unordered bars, unreadable sources
//   - Strategy errors (400-499): Registry lookups and strategy configuration
//   - Position state errors (500-599): Open/close invariant violations
//   - Backtest errors (600-699): Driver setup and run errors
//   - Journal errors (700-799): Signal persistence and schema compatibility
//
// Sparse history is never an error: the evaluation components return neutral
// values instead. Only caller contract violations surface here.
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeMissingColumn, "column %s is missing", "volume")
//	if errors.HasCode(err, errors.ErrCodeMissingColumn) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error or an *InvariantViolationError.
// Returns ErrCodeUnknown otherwise.
func GetCode(err error) ErrorCode {
	var invariant *InvariantViolationError
	if errors.As(err, &invariant) {
		return ErrCodeStateInvariantViolation
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InvariantViolationError reports a broken position invariant. It is a driver
// bug, never a data problem, so callers must abort the run instead of recovering.
type InvariantViolationError struct {
	InstrumentID string // Instrument whose state was corrupted
	BarIndex     int    // Bar index being evaluated
	Invariant    string // Short description of the violated rule
}

// NewInvariantViolationError creates a new InvariantViolationError.
func NewInvariantViolationError(instrumentID string, barIndex int, invariant string) *InvariantViolationError {
	return &InvariantViolationError{
		InstrumentID: instrumentID,
		BarIndex:     barIndex,
		Invariant:    invariant,
	}
}

// Error implements the error interface.
func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("[%d] state invariant violated for instrument %s at bar %d: %s",
		ErrCodeStateInvariantViolation, e.InstrumentID, e.BarIndex, e.Invariant)
}

// IsInvariantViolation checks if an error is an InvariantViolationError.
func IsInvariantViolation(err error) bool {
	var invariantErr *InvariantViolationError

	return errors.As(err, &invariantErr)
}
