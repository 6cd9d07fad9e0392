package progress

import (
	"errors"
	"fmt"
)

// Error kinds reported by tasks and the pack orchestrator. Match them with
// errors.Is.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrIOFailure         = errors.New("io failure")
	ErrIntegrityMismatch = errors.New("integrity mismatch")
	ErrInterrupted       = errors.New("interrupted")
	// ErrPreempted resolves a Signal whose watch was displaced by a newer one.
	ErrPreempted = errors.New("monitor preempted")
)

// OpError records a failed operation together with its error kind.
type OpError struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalidArg(op, path, format string, args ...any) error {
	return &OpError{Kind: ErrInvalidArgument, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

func ioFailure(op, path string, err error) error {
	return &OpError{Kind: ErrIOFailure, Op: op, Path: path, Err: err}
}

// KindOf returns the error kind carried by err, or nil when err has none.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidArgument, ErrIntegrityMismatch, ErrInterrupted, ErrPreempted, ErrIOFailure} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
