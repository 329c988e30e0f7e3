// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// package state holds the single application state tree and the pure
// reducer that advances it. Effects dispatch actions into the Store;
// the UI subscribes to snapshots. Nothing outside the reducer mutates
// AppState.
package state // import "github.com/toeirei/querydeck/internal/state"

import (
	"sync"

	"github.com/toeirei/querydeck/internal/model"
)

// View names the screen the UI collaborator is showing.
type View string

const (
	ViewConnections View = "connections"
	ViewTables      View = "tables"
	ViewTableData   View = "tableData"
	ViewQuery       View = "query"
)

// TableData caches one table's loaded page.
type TableData struct {
	Rows   []model.Row
	Total  int
	Limit  int
	Offset int
	Sort   *model.SortConfig
}

// SearchState is the active table search, if any.
type SearchState struct {
	Table string
	Term  string
	Rows  []model.Row
	Total int
}

// AppState is the aggregate state tree. It is owned exclusively by the
// Store and advanced only through Reduce.
type AppState struct {
	View               View
	Loading            bool
	Err                string
	Status             string
	ActiveConnectionID string
	ActiveDialect      string
	Connections        []model.ConnectionProfile
	Tables             []model.TableInfo
	Columns            map[string][]model.ColumnInfo
	Data               map[string]TableData
	Search             SearchState
	QueryResult        *model.QueryResult
	History            []model.QueryHistoryItem
}

// NewAppState returns the initial state.
func NewAppState() AppState {
	return AppState{
		View:    ViewConnections,
		Columns: map[string][]model.ColumnInfo{},
		Data:    map[string]TableData{},
	}
}

// Store serializes dispatches against the state tree. Effects run on
// separate goroutines; the mutex guarantees the reducer is never
// re-entered mid-update.
type Store struct {
	mu    sync.Mutex
	state AppState
	subs  []func(AppState)
}

// NewStore returns a Store holding the initial state.
func NewStore() *Store {
	return &Store{state: NewAppState()}
}

// Dispatch advances the state through the reducer and notifies
// subscribers with the resulting snapshot.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	snapshot := s.state
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// State returns the current snapshot.
func (s *Store) State() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a callback invoked after every dispatch. The UI
// collaborator uses this to re-render.
func (s *Store) Subscribe(fn func(AppState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
