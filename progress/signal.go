package progress

import (
	"context"
	"sync"
)

// Signal is a one-shot completion latch. It is resolved exactly once; later
// resolutions are ignored.
type Signal struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Resolve completes the signal with err and reports whether this call was
// the one that resolved it.
func (s *Signal) Resolve(err error) bool {
	resolved := false
	s.once.Do(func() {
		s.err = err
		close(s.done)
		resolved = true
	})
	return resolved
}

func (s *Signal) Done() <-chan struct{} { return s.done }

// Err returns the resolution error, or nil while the signal is pending.
func (s *Signal) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Wait blocks until the signal resolves or ctx is done. An abandoned wait
// reports ErrInterrupted.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return &OpError{Kind: ErrInterrupted, Op: "wait", Err: ctx.Err()}
	}
}
