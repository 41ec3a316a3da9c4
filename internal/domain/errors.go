package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation is the umbrella for rejected user input.
	ErrValidation = errors.New("validation failed")
	// ErrDepartmentNotFound is returned when a department name does not resolve.
	ErrDepartmentNotFound = errors.New("department not found")
	// ErrParticipantNotFound is returned when no participant matches the lookup.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrParticipantExists signals a uniqueness violation on the matriculation number.
	ErrParticipantExists = errors.New("participant already exists")
	// ErrQuestionNotFound indicates a question id is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidQuestion indicates a question breaks its data invariants.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrAttemptNotFound is returned when an attempt id is unknown or expired.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrAttemptComplete is returned when every question of an attempt was answered.
	ErrAttemptComplete = errors.New("quiz attempt complete")
	// ErrStaleAnswer rejects an answer aimed at a question other than the current one.
	ErrStaleAnswer = errors.New("answer does not match current question")
	// ErrConflict is a retryable concurrent-modification failure.
	ErrConflict = errors.New("concurrent update conflict")
)

// ValidationError carries per-field messages. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// NewValidationError builds a ValidationError without field details.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidQuestion(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuestion, fmt.Sprintf(format, args...))
}
