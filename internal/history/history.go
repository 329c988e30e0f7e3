// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// package history keeps the query history: an append-only, capped list
// of executed statements, newest first, persisted as a JSON array
// through the same debounced-write path as the profile store.
package history // import "github.com/toeirei/querydeck/internal/history"

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/toeirei/querydeck/internal/debounce"
	"github.com/toeirei/querydeck/internal/logging"
	"github.com/toeirei/querydeck/internal/model"
)

// MaxEntries caps the history; older entries fall off the end.
const MaxEntries = 100

// Store holds the in-memory history and schedules persistence.
type Store struct {
	mu     sync.Mutex
	path   string
	items  []model.QueryHistoryItem
	loaded bool
	writer *debounce.Writer[[]model.QueryHistoryItem]
}

// NewStore returns a history store over the file at path.
func NewStore(path string, delay time.Duration) *Store {
	s := &Store{path: path}
	s.writer = debounce.NewWriter("history", delay, s.writeFile)
	return s
}

// Append records one executed statement at the head of the history and
// schedules a debounced write. The entry id is generated here.
func (s *Store) Append(connectionID, query string, executedAt time.Time, duration time.Duration, rowCount int, execErr error) model.QueryHistoryItem {
	item := model.QueryHistoryItem{
		ID:           uuid.NewString(),
		ConnectionID: connectionID,
		Query:        query,
		ExecutedAt:   executedAt,
		DurationMs:   duration.Milliseconds(),
		RowCount:     rowCount,
	}
	if execErr != nil {
		item.Error = execErr.Error()
	}

	s.mu.Lock()
	s.ensureLoaded()
	s.items = append([]model.QueryHistoryItem{item}, s.items...)
	if len(s.items) > MaxEntries {
		s.items = s.items[:MaxEntries]
	}
	snapshot := append([]model.QueryHistoryItem(nil), s.items...)
	s.mu.Unlock()

	s.writer.Write(snapshot)
	return item
}

// List returns the history, newest first.
func (s *Store) List() []model.QueryHistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	return append([]model.QueryHistoryItem(nil), s.items...)
}

// ForConnection returns the history entries for one connection id,
// newest first.
func (s *Store) ForConnection(connectionID string) []model.QueryHistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	var out []model.QueryHistoryItem
	for _, item := range s.items {
		if item.ConnectionID == connectionID {
			out = append(out, item)
		}
	}
	return out
}

// ClearForConnection drops all entries for a removed connection and
// schedules a write.
func (s *Store) ClearForConnection(connectionID string) {
	s.mu.Lock()
	s.ensureLoaded()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ConnectionID != connectionID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	snapshot := append([]model.QueryHistoryItem(nil), s.items...)
	s.mu.Unlock()

	s.writer.Write(snapshot)
}

// Flush forces any staged debounced write out to disk.
func (s *Store) Flush() error { return s.writer.Flush() }

// ensureLoaded lazily reads the history file. Malformed content yields
// an empty history; a data-quality problem here is not worth failing a
// query over.
func (s *Store) ensureLoaded() {
	if s.loaded {
		return
	}
	s.loaded = true
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warnf("history: cannot read %s, starting empty: %v", s.path, err)
		}
		return
	}
	if len(data) == 0 {
		return
	}
	var items []model.QueryHistoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		logging.Warnf("history: malformed file %s, starting empty: %v", s.path, err)
		return
	}
	if len(items) > MaxEntries {
		items = items[:MaxEntries]
	}
	s.items = items
}

func (s *Store) writeFile(items []model.QueryHistoryItem) error {
	if items == nil {
		items = []model.QueryHistoryItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}
