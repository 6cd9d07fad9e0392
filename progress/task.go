// Package progress runs long filesystem and network operations as tasks
// whose progress is derived from the filesystem, and watches them with a
// polling Monitor that feeds a UI sink.
package progress

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a task.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateRunning:
		return "Running"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Task is a started-once operation whose progress can be polled.
type Task interface {
	// TotalSize is fixed at construction. A negative value means unknown.
	TotalSize() int64
	// ProcessedSize is re-derived from the filesystem on every call and is
	// -1 when it cannot be determined.
	ProcessedSize() int64
	Percentage() int
	// Start launches the task on its own goroutine. Later calls are no-ops.
	Start()
	Ready() bool
	// Failed is only meaningful once Ready reports true.
	Failed() bool
	Err() error
	// Cancel requests cooperative cancellation at the next chunk boundary.
	Cancel()
	Done() <-chan struct{}
}

// Percentage converts a processed/total pair into a value in [-1, 100].
// -1 means indeterminate: nothing measurable yet, or an unknown total.
func Percentage(processed, total int64) int {
	if processed < 0 || total <= 0 {
		return -1
	}
	pct := math.Floor(100 * float64(processed) / float64(total))
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// runner carries the state machine shared by every task kind.
type runner struct {
	op        string
	path      string
	total     int64
	work      func(ctx context.Context) error
	processed func() int64

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	state  atomic.Int32
	err    error
	done   chan struct{}
}

func newRunner(op, path string, total int64, work func(ctx context.Context) error, processed func() int64) *runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &runner{
		op:        op,
		path:      path,
		total:     total,
		work:      work,
		processed: processed,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (r *runner) TotalSize() int64 { return r.total }

func (r *runner) ProcessedSize() int64 { return r.processed() }

func (r *runner) Percentage() int { return Percentage(r.ProcessedSize(), r.total) }

// State reports the current lifecycle state.
func (r *runner) State() State { return State(r.state.Load()) }

func (r *runner) Start() {
	r.once.Do(func() {
		r.state.Store(int32(StateRunning))
		go r.run()
	})
}

func (r *runner) run() {
	defer r.cancel()

	err := r.work(r.ctx)
	if err != nil {
		r.err = r.classify(err)
		log.Printf("progress: %s %s failed: %v", r.op, r.path, r.err)
		r.state.Store(int32(StateFailed))
	} else {
		r.state.Store(int32(StateSucceeded))
	}
	close(r.done)
}

func (r *runner) classify(err error) error {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	if r.ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return &OpError{Kind: ErrInterrupted, Op: r.op, Path: r.path, Err: err}
	}
	return ioFailure(r.op, r.path, err)
}

func (r *runner) Ready() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *runner) Failed() bool {
	return r.Ready() && r.State() == StateFailed
}

func (r *runner) Err() error {
	if !r.Ready() {
		return nil
	}
	return r.err
}

func (r *runner) Cancel() { r.cancel() }

func (r *runner) Done() <-chan struct{} { return r.done }
