package cli

import (
	"errors"
	"strings"

	"github.com/MilitaerMilitz/2D-Kailexcraft/exitcode"
	"github.com/MilitaerMilitz/2D-Kailexcraft/progress"
)

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// withKindCode picks the exit code from the error kind.
func withKindCode(err error) error {
	if err == nil {
		return nil
	}
	var coded *ExitError
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, progress.ErrInterrupted), errors.Is(err, progress.ErrPreempted):
		return withExitCode(exitcode.Interrupted, err)
	case errors.Is(err, progress.ErrIntegrityMismatch):
		return withExitCode(exitcode.IntegrityMismatch, err)
	case errors.Is(err, progress.ErrInvalidArgument):
		return withExitCode(exitcode.InvalidUsage, err)
	default:
		return withExitCode(exitcode.RuntimeFailure, err)
	}
}

func mapExitCode(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var coded *ExitError
	if errors.As(err, &coded) {
		return coded.Code
	}
	message := err.Error()
	if strings.Contains(message, "unknown command") || strings.Contains(message, "unknown flag") {
		return exitcode.InvalidUsage
	}
	return exitcode.RuntimeFailure
}
