// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package state

import "github.com/toeirei/querydeck/internal/model"

// Reduce is the pure transition function. It is total: an unrecognized
// action returns the input state unchanged. Maps are copied before
// modification so earlier snapshots stay valid.
func Reduce(s AppState, action Action) AppState {
	switch a := action.(type) {
	case SetLoading:
		s.Loading = a.Loading
	case SetError:
		s.Err = a.Message
		s.Loading = false
	case ClearError:
		s.Err = ""
	case SetStatus:
		s.Status = a.Message
	case SetView:
		s.View = a.View
	case SetConnections:
		s.Connections = a.Connections
	case SetActiveConnection:
		s.ActiveConnectionID = a.ID
		s.ActiveDialect = a.Dialect
		s.View = ViewTables
	case ClearActiveConnection:
		s.ActiveConnectionID = ""
		s.ActiveDialect = ""
		s.Tables = nil
		s.Columns = map[string][]model.ColumnInfo{}
		s.Data = map[string]TableData{}
		s.Search = SearchState{}
		s.QueryResult = nil
		s.View = ViewConnections
	case SetTables:
		s.Tables = a.Tables
	case SetColumns:
		cols := copyColumns(s.Columns)
		cols[a.Table] = a.Columns
		s.Columns = cols
	case SetTableData:
		data := copyData(s.Data)
		data[a.Table] = a.Data
		s.Data = data
	case SetCellValue:
		cached, ok := s.Data[a.Table]
		if !ok || a.RowIndex < 0 || a.RowIndex >= len(cached.Rows) {
			return s
		}
		rows := make([]model.Row, len(cached.Rows))
		copy(rows, cached.Rows)
		row := make(model.Row, len(rows[a.RowIndex]))
		for k, v := range rows[a.RowIndex] {
			row[k] = v
		}
		row[a.Column] = a.Value
		rows[a.RowIndex] = row
		cached.Rows = rows
		data := copyData(s.Data)
		data[a.Table] = cached
		s.Data = data
	case SetSearchResults:
		s.Search = a.Search
	case ClearSearch:
		s.Search = SearchState{}
	case SetQueryResult:
		s.QueryResult = a.Result
		s.View = ViewQuery
	case SetHistory:
		s.History = a.Items
	}
	return s
}

func copyColumns(m map[string][]model.ColumnInfo) map[string][]model.ColumnInfo {
	out := make(map[string][]model.ColumnInfo, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyData(m map[string]TableData) map[string]TableData {
	out := make(map[string]TableData, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
