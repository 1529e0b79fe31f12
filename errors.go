package gusparse

// Structured error types mirroring the status vocabulary returned by every
// library operation.

import (
	"errors"
	"fmt"
)

// Status identifies the outcome category of an operation. A nil error from
// any entry point corresponds to StatusSuccess; every non-nil error carries
// one of the remaining codes.
type Status int

const (
	// StatusSuccess indicates the operation completed.
	StatusSuccess Status = iota
	// StatusInvalidHandle indicates a nil or destroyed handle.
	StatusInvalidHandle
	// StatusInvalidPointer indicates a required buffer or descriptor was nil.
	StatusInvalidPointer
	// StatusInvalidSize indicates a negative dimension or an inconsistent
	// leading dimension.
	StatusInvalidSize
	// StatusInvalidValue indicates an out-of-range enum or scalar argument.
	StatusInvalidValue
	// StatusNotImplemented indicates an unsupported matrix type.
	StatusNotImplemented
	// StatusArchMismatch indicates an unsupported wavefront width.
	StatusArchMismatch
	// StatusMemoryError indicates a device allocation failure.
	StatusMemoryError
	// StatusInternalError indicates a kernel execution failure.
	StatusInternalError
)

// String returns the status as a string.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusInvalidHandle:
		return "InvalidHandle"
	case StatusInvalidPointer:
		return "InvalidPointer"
	case StatusInvalidSize:
		return "InvalidSize"
	case StatusInvalidValue:
		return "InvalidValue"
	case StatusNotImplemented:
		return "NotImplemented"
	case StatusArchMismatch:
		return "ArchMismatch"
	case StatusMemoryError:
		return "MemoryError"
	case StatusInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// SparseError represents a structured error with context.
type SparseError struct {
	Status  Status // Status code reported to the caller
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface.
func (e *SparseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gusparse %s error in %s: %s (caused by: %v)",
			e.Status, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("gusparse %s error in %s: %s", e.Status, e.Op, e.Message)
}

// Unwrap allows error chain inspection.
func (e *SparseError) Unwrap() error {
	return e.Err
}

// StatusOf maps an error back to its status code. A nil error is
// StatusSuccess; errors from outside the library map to StatusInternalError.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var se *SparseError
	if errors.As(err, &se) {
		return se.Status
	}
	return StatusInternalError
}

// Common error constructors

func errInvalidHandle(op string) error {
	return &SparseError{Status: StatusInvalidHandle, Op: op, Message: "nil handle"}
}

func errInvalidPointer(op, arg string) error {
	return &SparseError{Status: StatusInvalidPointer, Op: op, Message: "nil pointer: " + arg}
}

func errInvalidSize(op, message string) error {
	return &SparseError{Status: StatusInvalidSize, Op: op, Message: message}
}

func errInvalidValue(op, message string) error {
	return &SparseError{Status: StatusInvalidValue, Op: op, Message: message}
}

func errNotImplemented(op, message string) error {
	return &SparseError{Status: StatusNotImplemented, Op: op, Message: message}
}

func errArchMismatch(op string, waveSize int) error {
	return &SparseError{
		Status:  StatusArchMismatch,
		Op:      op,
		Message: fmt.Sprintf("unsupported wavefront size %d", waveSize),
	}
}

func errMemory(op, message string, err error) error {
	return &SparseError{Status: StatusMemoryError, Op: op, Message: message, Err: err}
}

func errInternal(op, message string, err error) error {
	return &SparseError{Status: StatusInternalError, Op: op, Message: message, Err: err}
}

// IsMemoryError checks if an error is a memory error.
func IsMemoryError(err error) bool {
	return StatusOf(err) == StatusMemoryError
}

// IsInvalidArg checks if an error is any of the argument-contract statuses.
func IsInvalidArg(err error) bool {
	switch StatusOf(err) {
	case StatusInvalidPointer, StatusInvalidSize, StatusInvalidValue:
		return true
	}
	return false
}
