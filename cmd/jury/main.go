// Command jury evaluates candidate responses with a panel of LLM jurors.
package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes.
const (
	ExitSuccess          = 0 // Verdict produced
	ExitEvaluationFailed = 1 // Jurors or aggregation failed
	ExitError            = 2 // Configuration or runtime error
)

// EvaluationFailedError indicates that the inputs were valid but no verdict
// could be produced.
type EvaluationFailedError struct {
	Err error
}

func (e *EvaluationFailedError) Error() string {
	return "evaluation failed: " + e.Err.Error()
}

func (e *EvaluationFailedError) Unwrap() error { return e.Err }

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var evalErr *EvaluationFailedError
	if errors.As(err, &evalErr) {
		return ExitEvaluationFailed
	}
	return ExitError
}
