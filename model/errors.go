package model

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrValidation marks recoverable, field-level input problems.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates an unknown protocol or file id.
	ErrNotFound = errors.New("not found")
	// ErrPermission indicates the capture device was denied.
	ErrPermission = errors.New("permission denied")
	// ErrPersistence wraps durable-tier read/write failures.
	ErrPersistence = errors.New("persistence failure")
	// ErrSubmission wraps service-layer failures of a final submit.
	ErrSubmission = errors.New("submission failed")
	// ErrProtocolConflict indicates the protocol is already taken.
	ErrProtocolConflict = errors.New("protocol already registered")
	// ErrInvalidTransition rejects a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrTooLarge rejects media above the accepted size.
	ErrTooLarge = errors.New("file too large")
)

// ValidationError holds field-level messages keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// SubmissionError is a failed final submit. The draft stays intact so the
// citizen can retry.
type SubmissionError struct {
	Retryable bool
	Err       error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return ErrSubmission.Error()
	}
	return ErrSubmission.Error() + ": " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSubmission}
	}
	return []error{ErrSubmission, e.Err}
}
