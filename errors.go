package reporter

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-reporter/exitcodes"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// ErrSessionEnded is returned when a session is ended more than once
var ErrSessionEnded = errors.New("session already ended")

var (
	_ cli.ExitCoder = (*RuntimeError)(nil)
	_ cli.ExitCoder = (*TestFailureError)(nil)
)

// RuntimeError means no trustworthy report could be produced: bad configuration,
// an unreadable event stream, a go test run that broke down, or a failed report write.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// ExitCode implements cli.ExitCoder
func (e *RuntimeError) ExitCode() int {
	return exitcodes.RuntimeErr
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError means the report was written and records at least one failed test
type TestFailureError struct {
	Summary types.Summary
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("%d of %d tests failed (%s)", e.Summary.Failed, e.Summary.Total, e.Summary)
}

// ExitCode implements cli.ExitCoder
func (e *TestFailureError) ExitCode() int {
	return exitcodes.TestFailure
}

// NewTestFailureError creates a new TestFailureError for a finished run
func NewTestFailureError(summary types.Summary) *TestFailureError {
	return &TestFailureError{Summary: summary}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}
