package domain

import (
	"errors"
	"fmt"
)

// Aggregation errors. Every one of them is fatal for the evaluation round
// and is returned to the immediate caller without retry.
var (
	// ErrEmptyInput indicates that no juror evaluations were supplied.
	ErrEmptyInput = errors.New("no evaluations provided")

	// ErrNoResponses indicates that evaluations were supplied but none of
	// them scored any response.
	ErrNoResponses = errors.New("no responses found in evaluations")

	// ErrUnknownStrategy indicates that a custom strategy name is not
	// registered at invocation time.
	ErrUnknownStrategy = errors.New("custom strategy not registered")

	// ErrInvalidStrategyResult indicates that a custom strategy returned a
	// value that does not satisfy the VotingResult contract.
	ErrInvalidStrategyResult = errors.New("custom strategy returned an invalid voting result")

	// ErrMissingStrategyName indicates that the custom method was selected
	// without naming a strategy.
	ErrMissingStrategyName = errors.New("strategy name required for custom voting method")

	// ErrUnknownMethod indicates a voting method outside the recognized set.
	ErrUnknownMethod = errors.New("unknown voting method")
)

// Model construction errors.
var (
	// ErrInvalidWeight indicates a juror weight that is negative or not finite.
	ErrInvalidWeight = errors.New("juror weight must be a finite non-negative number")

	// ErrDuplicateResponse indicates a response scored twice by the same juror.
	ErrDuplicateResponse = errors.New("duplicate response id in juror evaluation")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// StrategyError reports a failure attributed to a named custom strategy.
// It wraps one of ErrUnknownStrategy, ErrInvalidStrategyResult, or the error
// returned by the strategy itself.
type StrategyError struct {
	// Name is the registered strategy name that was invoked.
	Name string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface for StrategyError.
func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *StrategyError) Unwrap() error { return e.Err }

// NewStrategyError creates a StrategyError for the named strategy.
func NewStrategyError(name string, err error) *StrategyError {
	return &StrategyError{Name: name, Err: err}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap lets callers match configuration failures with errors.Is.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
