package progress

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// DefaultInterval is the polling period of a Monitor.
const DefaultInterval = 500 * time.Millisecond

// Sink receives progress updates. percent is in [-1, 100]; -1 means
// indeterminate.
type Sink interface {
	Progress(message string, percent int)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(message string, percent int)

func (f SinkFunc) Progress(message string, percent int) { f(message, percent) }

type discardSink struct{}

func (discardSink) Progress(string, int) {}

// Option configures a Monitor.
type Option func(*Monitor)

// WithCancelOnPreempt controls whether a task whose watch is displaced by a
// newer Watch call is cancelled. It defaults to true.
func WithCancelOnPreempt(cancel bool) Option {
	return func(m *Monitor) { m.cancelOnPreempt = cancel }
}

// Monitor polls at most one task at a time and forwards its progress to a
// sink. Watching a new task stops the previous watch before the new one
// starts ticking.
type Monitor struct {
	sink            Sink
	interval        time.Duration
	cancelOnPreempt bool

	mu     sync.Mutex
	active *watch
}

type watch struct {
	task    Task
	message string
	signal  *Signal
	stop    chan struct{}
	stopped chan struct{}
}

func NewMonitor(sink Sink, interval time.Duration, opts ...Option) *Monitor {
	if sink == nil {
		sink = discardSink{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	m := &Monitor{
		sink:            sink,
		interval:        interval,
		cancelOnPreempt: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Watch starts polling task and returns the signal that resolves once the
// task is ready: with nil on success, with the task's error on failure, or
// with ErrPreempted if another Watch or Stop comes first.
func (m *Monitor) Watch(task Task, message string) *Signal {
	w := &watch{
		task:    task,
		message: message,
		signal:  NewSignal(),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev := m.active; prev != nil {
		m.preempt(prev)
		m.active = nil
	}

	// The first tick runs before Watch returns.
	if m.tick(w) {
		close(w.stopped)
		return w.signal
	}
	m.active = w
	go m.loop(w)
	return w.signal
}

// Stop ends the active watch, if any, as if it had been preempted.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		m.preempt(m.active)
		m.active = nil
	}
}

// Report pushes a one-off update to the sink, for steps that are not
// backed by a task.
func (m *Monitor) Report(message string, percent int) {
	m.sink.Progress(message, percent)
}

// Active reports whether a watch is currently ticking.
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// preempt must be called with m.mu held.
func (m *Monitor) preempt(w *watch) {
	close(w.stop)
	<-w.stopped
	if w.signal.Resolve(ErrPreempted) {
		log.Printf("progress: watch %q preempted", w.message)
		if m.cancelOnPreempt {
			w.task.Cancel()
		}
	}
}

func (m *Monitor) loop(w *watch) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	finished := false
	for !finished {
		select {
		case <-w.stop:
			close(w.stopped)
			return
		case <-ticker.C:
			finished = m.tick(w)
		}
	}
	close(w.stopped)

	m.mu.Lock()
	if m.active == w {
		m.active = nil
	}
	m.mu.Unlock()
}

func (m *Monitor) tick(w *watch) bool {
	if !w.task.Ready() {
		m.sink.Progress(w.message, w.task.Percentage())
		return false
	}
	if w.task.Failed() {
		err := w.task.Err()
		if err == nil {
			err = &OpError{Kind: ErrIOFailure, Op: w.message}
		}
		w.signal.Resolve(err)
		return true
	}
	w.signal.Resolve(nil)
	return true
}

// Run watches task on m, starts it and waits for it. When ctx ends first
// the task is cancelled and awaited, and the error is ErrInterrupted.
// A nil monitor waits on the task directly.
func Run(ctx context.Context, m *Monitor, task Task, message string) error {
	if m == nil {
		task.Start()
		select {
		case <-task.Done():
			return task.Err()
		case <-ctx.Done():
			task.Cancel()
			<-task.Done()
			return &OpError{Kind: ErrInterrupted, Op: message, Err: ctx.Err()}
		}
	}

	signal := m.Watch(task, message)
	task.Start()
	err := signal.Wait(ctx)
	if errors.Is(err, ErrInterrupted) && ctx.Err() != nil {
		task.Cancel()
		<-task.Done()
		if signal.Resolve(err) {
			m.release(signal)
		}
	}
	return err
}

// release stops the watch owning signal if it is still the active one.
func (m *Monitor) release(signal *Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.active.signal == signal {
		close(m.active.stop)
		<-m.active.stopped
		m.active = nil
	}
}
