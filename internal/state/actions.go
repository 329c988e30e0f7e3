// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package state

import "github.com/toeirei/querydeck/internal/model"

// Action is the marker interface for state transitions. Every concrete
// action is a plain value; the reducer switches over the closed set.
type Action interface {
	isAction()
}

// SetLoading toggles the global loading flag around an effect.
type SetLoading struct {
	Loading bool
}

// SetError records a human-readable failure message. Effects convert
// every lower-level error into this before it reaches the user.
type SetError struct {
	Message string
}

// ClearError resets the failure message.
type ClearError struct{}

// SetStatus records a transient status line.
type SetStatus struct {
	Message string
}

// SetView switches the active screen.
type SetView struct {
	View View
}

// SetConnections replaces the saved connection list.
type SetConnections struct {
	Connections []model.ConnectionProfile
}

// SetActiveConnection records a successful connect.
type SetActiveConnection struct {
	ID      string
	Dialect string
}

// ClearActiveConnection records a disconnect, dropping every cache tied
// to the old session.
type ClearActiveConnection struct{}

// SetTables replaces the table list for the active connection.
type SetTables struct {
	Tables []model.TableInfo
}

// SetColumns caches one table's column metadata.
type SetColumns struct {
	Table   string
	Columns []model.ColumnInfo
}

// SetTableData caches one loaded page of a table.
type SetTableData struct {
	Table string
	Data  TableData
}

// SetCellValue patches a single cached cell after a successful edit, so
// the view reflects the write without a refetch.
type SetCellValue struct {
	Table    string
	RowIndex int
	Column   string
	Value    any
}

// SetSearchResults replaces the search state.
type SetSearchResults struct {
	Search SearchState
}

// ClearSearch resets the search state.
type ClearSearch struct{}

// SetQueryResult replaces the ad-hoc query result.
type SetQueryResult struct {
	Result *model.QueryResult
}

// SetHistory replaces the visible query history.
type SetHistory struct {
	Items []model.QueryHistoryItem
}

func (SetLoading) isAction()            {}
func (SetError) isAction()              {}
func (ClearError) isAction()            {}
func (SetStatus) isAction()             {}
func (SetView) isAction()               {}
func (SetConnections) isAction()        {}
func (SetActiveConnection) isAction()   {}
func (ClearActiveConnection) isAction() {}
func (SetTables) isAction()             {}
func (SetColumns) isAction()            {}
func (SetTableData) isAction()          {}
func (SetCellValue) isAction()          {}
func (SetSearchResults) isAction()      {}
func (ClearSearch) isAction()           {}
func (SetQueryResult) isAction()        {}
func (SetHistory) isAction()            {}
