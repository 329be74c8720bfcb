package player

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	ErrNotInProgress    = errors.New("quiz is not in progress")
	ErrInvalidOption    = errors.New("option index out of range")
	ErrInvalidQuestion  = errors.New("question index out of range")
)

// SessionInitError is returned by Start when a timed quiz could not be saved
// or its session could not be created. The player keeps running untimed.
type SessionInitError struct {
	Step string
	Err  error
}

func (e *SessionInitError) Error() string {
	return fmt.Sprintf("timer unavailable (%s failed): %v", e.Step, e.Err)
}

func (e *SessionInitError) Unwrap() error { return e.Err }

// ConfirmationRequiredError is returned by a manual Submit while questions
// are still unanswered. Nothing changes until the caller confirms.
type ConfirmationRequiredError struct {
	Unanswered int
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("%d question(s) unanswered; confirm to submit anyway", e.Unanswered)
}

// SaveError reports a failed persistence step after scoring. The score in the
// Result is still valid.
type SaveError struct {
	Step string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("could not save %s: %v", e.Step, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
