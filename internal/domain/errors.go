package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrRecordNotFound  = errors.New("personal record not found")
	ErrProfileNotFound = errors.New("user profile not found")
	ErrGameNotFound    = errors.New("game not found")
	ErrGameNotPlayable = errors.New("game is not playable")
	ErrNoSubmission    = errors.New("no submission in progress")
	ErrSubmissionBusy  = errors.New("submission already in progress")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInternalError   = errors.New("internal server error")
)

// ValidationError is a recoverable, field-level input error. It never
// moves a submission flow to a terminal state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// StoreError wraps a Record Store transport or auth failure. Callers decide
// per call-site whether to fail open (the evaluator) or fail loud (the
// submission flow).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("record store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// WriteError wraps a Leaderboard Store failure, on the write path and the
// top-scores read path alike.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("leaderboard store: %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsValidationError checks if an error is a field-level validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFoundError checks if an error is a not-found type error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrGameNotFound)
}
