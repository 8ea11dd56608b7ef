package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a stage failure.
type ErrorKind string

const (
	KindTransport            ErrorKind = "transport_error"
	KindValidation           ErrorKind = "validation_error"
	KindRetryBudgetExhausted ErrorKind = "retry_budget_exhausted"
	KindCancellation         ErrorKind = "cancellation_requested"
)

var (
	ErrTransport            = errors.New("transport error")
	ErrValidation           = errors.New("validation error")
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
	ErrCanceled             = errors.New("cancellation requested")
)

var kindSentinels = map[ErrorKind]error{
	KindTransport:            ErrTransport,
	KindValidation:           ErrValidation,
	KindRetryBudgetExhausted: ErrRetryBudgetExhausted,
	KindCancellation:         ErrCanceled,
}

// StageError describes why a stage attempt, or a whole run, failed.
// When stored as a terminal error it is the record callers inspect.
type StageError struct {
	Kind     ErrorKind `json:"kind"`
	Stage    Stage     `json:"stage"`
	Attempts int       `json:"attempts"`
	Reason   string    `json:"reason"`

	// Err is the underlying cause. It is not serialized.
	Err error `json:"-"`
}

func (e *StageError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("stage %s: %s after %d attempt(s): %s", e.Stage, e.Kind, e.Attempts, e.Reason)
	}
	return fmt.Sprintf("stage %s: %s: %s", e.Stage, e.Kind, e.Reason)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the kind.
func (e *StageError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// NewTransportError wraps a generation client failure.
func NewTransportError(stage Stage, err error) *StageError {
	return &StageError{Kind: KindTransport, Stage: stage, Reason: err.Error(), Err: err}
}

// NewValidationError records a rejected structured result.
func NewValidationError(stage Stage, reason string) *StageError {
	return &StageError{Kind: KindValidation, Stage: stage, Reason: reason, Err: ErrValidation}
}

// NewBudgetExhausted converts the last attempt failure into a terminal error.
func NewBudgetExhausted(stage Stage, attempts int, last *StageError) *StageError {
	e := &StageError{Kind: KindRetryBudgetExhausted, Stage: stage, Attempts: attempts}
	if last != nil {
		e.Reason = fmt.Sprintf("%s: %s", last.Kind, last.Reason)
		e.Err = last
	}
	return e
}

// NewCancellation records an external cancellation observed before stage.
func NewCancellation(stage Stage, cause error) *StageError {
	reason := "run canceled"
	if cause != nil {
		reason = cause.Error()
	}
	return &StageError{Kind: KindCancellation, Stage: stage, Reason: reason, Err: cause}
}
