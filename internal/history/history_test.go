// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package history

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toeirei/querydeck/internal/logging"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	// Long delay keeps debounced writes pending until Flush.
	return NewStore(path, time.Minute), path
}

func TestAppend_NewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	s.Append("c1", "SELECT 1", time.Now(), time.Millisecond, 1, nil)
	s.Append("c1", "SELECT 2", time.Now(), time.Millisecond, 1, nil)

	items := s.List()
	require.Len(t, items, 2)
	assert.Equal(t, "SELECT 2", items[0].Query)
	assert.Equal(t, "SELECT 1", items[1].Query)
	assert.NotEqual(t, items[0].ID, items[1].ID)
}

func TestAppend_RecordsError(t *testing.T) {
	s, _ := newTestStore(t)
	s.Append("c1", "SELECT nope", time.Now(), time.Millisecond, 0, errors.New("no such column"))

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, "no such column", items[0].Error)
}

func TestAppend_CapsAtMaxEntries(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < MaxEntries+10; i++ {
		s.Append("c1", fmt.Sprintf("SELECT %d", i), time.Now(), 0, 0, nil)
	}
	items := s.List()
	require.Len(t, items, MaxEntries)
	// Newest survives, oldest fell off.
	assert.Equal(t, fmt.Sprintf("SELECT %d", MaxEntries+9), items[0].Query)
	assert.Equal(t, "SELECT 10", items[MaxEntries-1].Query)
}

func TestForConnection_Filters(t *testing.T) {
	s, _ := newTestStore(t)
	s.Append("c1", "SELECT a", time.Now(), 0, 0, nil)
	s.Append("c2", "SELECT b", time.Now(), 0, 0, nil)
	s.Append("c1", "SELECT c", time.Now(), 0, 0, nil)

	items := s.ForConnection("c1")
	require.Len(t, items, 2)
	assert.Equal(t, "SELECT c", items[0].Query)
	assert.Equal(t, "SELECT a", items[1].Query)
}

func TestClearForConnection(t *testing.T) {
	s, _ := newTestStore(t)
	s.Append("c1", "SELECT a", time.Now(), 0, 0, nil)
	s.Append("c2", "SELECT b", time.Now(), 0, 0, nil)
	s.ClearForConnection("c1")

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, "c2", items[0].ConnectionID)
	assert.Empty(t, s.ForConnection("c1"))
}

func TestFlush_PersistsAndReloads(t *testing.T) {
	s, path := newTestStore(t)
	s.Append("c1", "SELECT 1", time.Now().UTC(), 5*time.Millisecond, 3, nil)
	require.NoError(t, s.Flush())

	// A fresh store over the same file sees the entry.
	reloaded := NewStore(path, time.Minute)
	items := reloaded.List()
	require.Len(t, items, 1)
	assert.Equal(t, "SELECT 1", items[0].Query)
	assert.Equal(t, int64(5), items[0].DurationMs)
	assert.Equal(t, 3, items[0].RowCount)
}

func TestEnsureLoaded_MalformedFileYieldsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{{not json"), 0o600))
	s := NewStore(path, time.Minute)
	assert.Empty(t, s.List())
}

func TestEnsureLoaded_UnreadableFileLoggedNotSurfaced(t *testing.T) {
	var buf bytes.Buffer
	logging.L.SetOutput(&buf)
	defer logging.L.SetOutput(os.Stderr)

	// A directory at the history path makes the read fail with a
	// present-but-unreadable error, not a missing-file one.
	dir := t.TempDir()
	s := NewStore(dir, time.Minute)
	assert.Empty(t, s.List())
	assert.Contains(t, buf.String(), "cannot read")

	// A genuinely missing file stays silent.
	buf.Reset()
	s = NewStore(filepath.Join(dir, "history.json"), time.Minute)
	assert.Empty(t, s.List())
	assert.Empty(t, buf.String())
}
