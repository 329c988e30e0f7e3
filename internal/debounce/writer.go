// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// package debounce provides a batched-write scheduler. Rapid successive
// writes collapse into at most one physical write per delay window,
// keeping profile and history persistence from amplifying every
// keystroke into a disk write.
package debounce // import "github.com/toeirei/querydeck/internal/debounce"

import (
	"sync"
	"time"

	"github.com/toeirei/querydeck/internal/logging"
)

// DefaultDelay is the flush delay used when none is configured.
const DefaultDelay = 500 * time.Millisecond

// writerState is the explicit state machine for a Writer. Modeling
// "write during flush schedules another flush" as a transition keeps
// the race testable instead of relying on incidental callback ordering.
type writerState int

const (
	stateIdle writerState = iota
	stateScheduled
	stateWriting
	stateWritingDirty
)

// Writer coalesces writes of the latest value of T. A write arriving
// while a flush is in flight is queued and flushed once the in-flight
// write completes; intermediate values between two flushes may be
// coalesced, but no write is silently dropped.
type Writer[T any] struct {
	mu      sync.Mutex
	st      writerState
	pending T
	delay   time.Duration
	timer   *time.Timer
	writeFn func(T) error
	name    string
}

// NewWriter returns a Writer that invokes writeFn with the most recent
// value at most once per delay window. The name only labels log lines.
func NewWriter[T any](name string, delay time.Duration, writeFn func(T) error) *Writer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Writer[T]{delay: delay, writeFn: writeFn, name: name}
}

// Write replaces the pending value and (re)schedules a flush.
func (w *Writer[T]) Write(value T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = value
	switch w.st {
	case stateIdle:
		w.st = stateScheduled
		w.timer = time.AfterFunc(w.delay, w.onTimer)
	case stateScheduled:
		w.timer.Reset(w.delay)
	case stateWriting:
		w.st = stateWritingDirty
	case stateWritingDirty:
		// Latest value already staged.
	}
}

// Flush writes the pending value now, if any, and returns the write
// error so callers that need synchronous confirmation (CLI handlers)
// can observe it. A flush while not dirty is a no-op.
func (w *Writer[T]) Flush() error {
	w.mu.Lock()
	if w.st != stateScheduled {
		w.mu.Unlock()
		return nil
	}
	w.stopTimer()
	return w.flushLocked()
}

// Cancel clears any pending timer and discards unflushed state. A value
// staged during an in-flight flush is discarded too: the dirty flag is
// lowered so the flush does not resurrect the zeroed value in a
// follow-up write.
func (w *Writer[T]) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopTimer()
	var zero T
	w.pending = zero
	switch w.st {
	case stateScheduled:
		w.st = stateIdle
	case stateWritingDirty:
		w.st = stateWriting
	}
}

// Close performs a best-effort final flush. A write scheduled in the
// final window before process exit may legitimately be lost if the
// process terminates first; that window is accepted and documented.
func (w *Writer[T]) Close() error {
	return w.Flush()
}

func (w *Writer[T]) onTimer() {
	w.mu.Lock()
	if w.st != stateScheduled {
		w.mu.Unlock()
		return
	}
	if err := w.flushLocked(); err != nil {
		logging.Errorf("debounce: %s flush failed: %v", w.name, err)
	}
}

// flushLocked writes the pending value. It is entered holding the
// mutex, releases it around the write function, and unlocks before
// returning.
func (w *Writer[T]) flushLocked() error {
	value := w.pending
	w.st = stateWriting
	w.mu.Unlock()

	err := w.writeFn(value)

	w.mu.Lock()
	dirty := w.st == stateWritingDirty
	w.st = stateIdle
	if dirty {
		// A write landed during the flush; run a follow-up with the
		// newer value rather than dropping it.
		w.st = stateScheduled
		w.timer = time.AfterFunc(0, w.onTimer)
	}
	w.mu.Unlock()
	return err
}

func (w *Writer[T]) stopTimer() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
