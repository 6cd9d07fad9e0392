// Package ui turns progress updates into terminal output.
package ui

import (
	"fmt"
	"io"
	"sync"
)

// LogSink writes one line per change of message or percentage.
type LogSink struct {
	mu      sync.Mutex
	out     io.Writer
	message string
	percent int
	started bool
}

func NewLogSink(out io.Writer) *LogSink {
	return &LogSink{out: out}
}

func (s *LogSink) Progress(message string, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started && message == s.message && percent == s.percent {
		return
	}
	s.started = true
	s.message = message
	s.percent = percent

	if percent < 0 {
		fmt.Fprintf(s.out, "%s...\n", message)
		return
	}
	fmt.Fprintf(s.out, "%s: %d%%\n", message, percent)
}
