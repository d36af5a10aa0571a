package core

import (
	"errors"
	"fmt"
	"time"
)

// StageError is a stage-fatal failure. It aborts the remaining pipeline.
type StageError struct {
	Stage     string
	Cause     error
	Timestamp time.Time
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// ValidationError is a schema violation found after a stage's own
// defaulting pass.
type ValidationError struct {
	Stage     string
	Field     string
	Message   string
	Value     any
	Timestamp time.Time
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed in %s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("validation failed in %s.%s: %s (value: %v)", e.Stage, e.Field, e.Message, e.Value)
}

var (
	ErrCancelled         = errors.New("generation cancelled")
	ErrUnexpected        = errors.New("unexpected failure")
	ErrConsumerGone      = errors.New("progress consumer gone")
	ErrMissingDependency = errors.New("required input from an earlier stage is missing")
)

// NewStageError creates a new StageError with timestamp
func NewStageError(stage string, cause error) *StageError {
	return &StageError{
		Stage:     stage,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewValidationError creates a new ValidationError with timestamp
func NewValidationError(stage, field, message string, value any) *ValidationError {
	return &ValidationError{
		Stage:     stage,
		Field:     field,
		Message:   message,
		Value:     value,
		Timestamp: time.Now(),
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsStageError checks if an error aborted a stage
func IsStageError(err error) bool {
	if err == nil {
		return false
	}
	var stageErr *StageError
	return errors.As(err, &stageErr)
}
