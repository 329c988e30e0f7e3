// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package debounce

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects flushed values behind a mutex.
type recorder struct {
	mu     sync.Mutex
	values []string
	err    error
	gate   chan struct{} // when non-nil, the write blocks until signaled
}

func (r *recorder) write(v string) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
	return r.err
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestWriter_CoalescesBurst(t *testing.T) {
	rec := &recorder{}
	w := NewWriter("test", 30*time.Millisecond, rec.write)

	w.Write("one")
	w.Write("two")
	w.Write("three")

	assert.Eventually(t, func() bool {
		return len(rec.got()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"three"}, rec.got())

	// Nothing else arrives after the window.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []string{"three"}, rec.got())
}

func TestWriter_FlushIsNoOpWhenClean(t *testing.T) {
	rec := &recorder{}
	w := NewWriter("test", time.Hour, rec.write)

	require.NoError(t, w.Flush())
	assert.Empty(t, rec.got())
}

func TestWriter_FlushReturnsWriteError(t *testing.T) {
	rec := &recorder{err: errors.New("disk full")}
	w := NewWriter("test", time.Hour, rec.write)

	w.Write("value")
	err := w.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWriter_CancelDiscards(t *testing.T) {
	rec := &recorder{}
	w := NewWriter("test", 20*time.Millisecond, rec.write)

	w.Write("doomed")
	w.Cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.got())
	require.NoError(t, w.Flush())
	assert.Empty(t, rec.got())
}

func TestWriter_CancelDuringDirtyFlushDropsStagedValue(t *testing.T) {
	rec := &recorder{gate: make(chan struct{})}
	w := NewWriter("test", 10*time.Millisecond, rec.write)

	w.Write("first")
	// Wait for the flush to start (it blocks on the gate), stage a dirty
	// write, then cancel it while the flush is still in flight. The
	// follow-up flush must not run, or it would write the zero value over
	// the data just flushed.
	time.Sleep(30 * time.Millisecond)
	w.Write("staged")
	w.Cancel()
	close(rec.gate)

	assert.Eventually(t, func() bool {
		return len(rec.got()) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"first"}, rec.got())
}

func TestWriter_WriteDuringFlushTriggersFollowUp(t *testing.T) {
	rec := &recorder{gate: make(chan struct{})}
	w := NewWriter("test", 10*time.Millisecond, rec.write)

	w.Write("first")
	// Wait for the flush to start (it blocks on the gate), then land a
	// second write mid-flight.
	time.Sleep(30 * time.Millisecond)
	w.Write("second")
	close(rec.gate)

	assert.Eventually(t, func() bool {
		return len(rec.got()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"first", "second"}, rec.got())
}

func TestWriter_CloseFlushesPending(t *testing.T) {
	rec := &recorder{}
	w := NewWriter("test", time.Hour, rec.write)

	w.Write("pending")
	require.NoError(t, w.Close())
	assert.Equal(t, []string{"pending"}, rec.got())
}

func TestWriter_DefaultDelay(t *testing.T) {
	w := NewWriter[int]("test", 0, func(int) error { return nil })
	assert.Equal(t, DefaultDelay, w.delay)
}
