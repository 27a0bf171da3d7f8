package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreIO indicates the event, timeline or status persistence is unavailable.
	// Fatal to the current operation; callers retry or surface it.
	ErrStoreIO = errors.New("store unavailable")

	// ErrDecode indicates a single persisted record could not be decoded.
	ErrDecode = errors.New("malformed record")

	// ErrCapabilityUnavailable indicates an optional extraction dependency is missing.
	// Extraction degrades instead of failing.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrExtraction indicates a native or optical extraction step failed.
	ErrExtraction = errors.New("extraction failed")

	// ErrHandlerTimeout indicates a bounded operation exceeded its budget.
	ErrHandlerTimeout = errors.New("handler timeout")

	// ErrUnsupportedFormat indicates a file type with no handler.
	// Not a failure: it is a classification outcome.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDuplicateContent indicates content that was already accepted.
	// Not a failure: it is a dedupe outcome.
	ErrDuplicateContent = errors.New("duplicate content")

	// ErrCancelled indicates the operator stopped processing.
	ErrCancelled = errors.New("cancelled")
)

// StoreIOError wraps a persistence failure with the operation that failed.
type StoreIOError struct {
	Op  string
	Err error
}

// NewStoreIOError wraps err as a StoreIOError for op.
func NewStoreIOError(op string, err error) *StoreIOError {
	return &StoreIOError{Op: op, Err: err}
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreIOError) Unwrap() error { return e.Err }

// Is reports ErrStoreIO as a match so callers can test the class. An
// operation that was cancelled is not a store failure and does not match.
func (e *StoreIOError) Is(target error) bool {
	return target == ErrStoreIO && !IsInterrupted(e.Err)
}

// IsInterrupted reports whether err comes from a cancelled or expired context
// rather than from the operation itself.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// DecodeError reports one persisted record that could not be decoded.
// Position is the store-specific location (sequence number or line).
type DecodeError struct {
	Position int64
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode record at %d: %v", e.Position, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports ErrDecode as a match.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// ExtractionFailure reports a failed extraction strategy for a file.
type ExtractionFailure struct {
	Strategy Method
	Path     string
	Err      error
}

func (e *ExtractionFailure) Error() string {
	return fmt.Sprintf("%s extraction of %s: %v", e.Strategy, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractionFailure) Unwrap() error { return e.Err }

// Is reports ErrExtraction as a match.
func (e *ExtractionFailure) Is(target error) bool { return target == ErrExtraction }

// StatusForError maps a per-file error to the terminal status it produces.
func StatusForError(err error) Status {
	switch {
	case err == nil:
		return StatusProcessed
	case errors.Is(err, ErrHandlerTimeout), errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return StatusCancelled
	case errors.Is(err, ErrUnsupportedFormat):
		return StatusRejected
	case errors.Is(err, ErrDuplicateContent):
		return StatusDuplicate
	default:
		return StatusError
	}
}
