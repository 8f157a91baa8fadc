package main

import (
	"errors"
	"fmt"

	"github.com/chazu/spiral/pkg/geometry"
	"github.com/chazu/spiral/pkg/prompt"
	"github.com/chazu/spiral/pkg/repair"
	"github.com/chazu/spiral/pkg/stair"
)

// Exit codes.
const (
	ExitError      = 1
	ExitViolations = 2
	ExitAborted    = 3
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: ExitError,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var fatal *repair.FatalError
	if errors.As(err, &fatal) {
		e := NewCLIError("staircase is outside buildable limits", "Change the listed values and run again; these cannot be repaired", err)
		e.ExitCode = ExitViolations
		return e
	}

	switch {
	case errors.Is(err, repair.ErrAborted):
		e := NewCLIError("build aborted", "", nil)
		e.ExitCode = ExitAborted
		return e
	case errors.Is(err, ErrSourceInvalid):
		return NewCLIError("could not evaluate source", "Fix the reported line and run again", err)
	case errors.Is(err, prompt.ErrNoInput):
		return NewCLIError("no decision was made", "Run with --policy accept|ignore|abort for unattended builds", err)
	case errors.Is(err, repair.ErrInvalidDecision):
		return NewCLIError("invalid decision", "Choose one of the offered options", err)
	case errors.Is(err, stair.ErrLandingInfeasible):
		return NewCLIError("a mid-landing is required but the stair has too few treads", "Increase the total rotation or lower the height", err)
	case errors.Is(err, geometry.ErrGeometryDefect):
		return NewCLIError("internal geometry error", "Please report this with the input values", err)
	}

	return err
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cliErr *CLIError
	if errors.As(MapError(err), &cliErr) {
		return cliErr.ExitCode
	}
	return ExitError
}
