// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package effects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/toeirei/querydeck/internal/db"
	"github.com/toeirei/querydeck/internal/dialect"
	"github.com/toeirei/querydeck/internal/model"
	"github.com/toeirei/querydeck/internal/state"
)

// ErrNoPrimaryKey rejects cell edits on tables without a primary key,
// before any SQL is issued.
var ErrNoPrimaryKey = errors.New("table has no primary key")

// LoadTables refreshes the table list for the active connection. With
// force false, an automatic refresh inside the throttle window is
// quietly skipped.
func (r *Runner) LoadTables(ctx context.Context, force bool) error {
	if !r.shouldRefresh("tables", force) {
		return nil
	}
	return r.run("loadTables", func() error {
		return r.withConnection(ctx, func(ctx context.Context, h *db.Handle) error {
			tables, err := r.fetchTables(ctx, h)
			if err != nil {
				return err
			}
			r.store.Dispatch(state.SetTables{Tables: tables})
			return nil
		})
	})
}

func (r *Runner) fetchTables(ctx context.Context, h *db.Handle) ([]model.TableInfo, error) {
	res, err := h.Query(ctx, dialect.BuildTableListQuery(h.Dialect()))
	if err != nil {
		return nil, err
	}
	tables := make([]model.TableInfo, 0, len(res.Rows))
	for _, row := range res.Rows {
		t := model.TableInfo{}
		if v, ok := row["table_name"]; ok {
			t.Name = fmt.Sprintf("%v", v)
			if s, ok := row["table_schema"]; ok && h.Dialect() == dialect.PostgreSQL {
				t.Schema = fmt.Sprintf("%v", s)
			}
		} else if v, ok := row["name"]; ok {
			t.Name = fmt.Sprintf("%v", v)
		}
		if t.Name != "" {
			tables = append(tables, t)
		}
	}
	return tables, nil
}

// LoadColumns introspects one table and caches the normalized column
// metadata.
func (r *Runner) LoadColumns(ctx context.Context, table model.TableInfo) error {
	return r.run("loadColumns", func() error {
		return r.withConnection(ctx, func(ctx context.Context, h *db.Handle) error {
			cols, err := r.fetchColumns(ctx, h, table)
			if err != nil {
				return err
			}
			r.store.Dispatch(state.SetColumns{Table: table.String(), Columns: cols})
			return nil
		})
	})
}

func (r *Runner) fetchColumns(ctx context.Context, h *db.Handle, table model.TableInfo) ([]model.ColumnInfo, error) {
	q, params := dialect.BuildColumnIntrospectionQuery(h.Dialect(), table)
	res, err := h.Query(ctx, q, params...)
	if err != nil {
		return nil, err
	}
	cols := make([]model.ColumnInfo, 0, len(res.Rows))
	for _, row := range res.Rows {
		cols = append(cols, dialect.MapColumnRow(h.Dialect(), row))
	}
	return cols, nil
}

// LoadTableRows loads one page of a table, with an optional sort. The
// result carries a generation stamp; if a newer fetch for the same
// table completed meanwhile, this result is discarded rather than
// overwriting fresher state.
func (r *Runner) LoadTableRows(ctx context.Context, table model.TableInfo, limit, offset int, sort *model.SortConfig, force bool) error {
	key := "rows:" + table.String()
	if !r.shouldRefresh(key, force) {
		return nil
	}
	gen := r.beginGeneration(key)
	return r.run("loadTableRows", func() error {
		return r.withConnection(ctx, func(ctx context.Context, h *db.Handle) error {
			d := h.Dialect()
			dataSQL := dialect.BuildTableDataQuery(d, table, limit, offset, sort)
			res, err := h.Query(ctx, dataSQL)
			if err != nil {
				return err
			}
			countRes, err := h.Query(ctx, "SELECT COUNT(*) AS count FROM "+dialect.BuildTableReference(d, table))
			if err != nil {
				return err
			}
			if !r.isCurrentGeneration(key, gen) {
				return nil
			}
			r.store.Dispatch(state.SetTableData{
				Table: table.String(),
				Data: state.TableData{
					Rows:   res.Rows,
					Total:  countValue(countRes),
					Limit:  limit,
					Offset: offset,
					Sort:   sort,
				},
			})
			return nil
		})
	})
}

// SearchTable runs the shared-WHERE count and data pair over every
// column of the table.
func (r *Runner) SearchTable(ctx context.Context, table model.TableInfo, term string, limit, offset int) error {
	key := "search:" + table.String()
	gen := r.beginGeneration(key)
	return r.run("searchTable", func() error {
		return r.withConnection(ctx, func(ctx context.Context, h *db.Handle) error {
			cols, err := r.columnsFor(ctx, h, table)
			if err != nil {
				return err
			}
			q := dialect.BuildSearchQueries(h.Dialect(), table, cols, term, limit, offset)
			countRes, err := h.Query(ctx, q.CountSQL, q.Params...)
			if err != nil {
				return err
			}
			res, err := h.Query(ctx, q.DataSQL, q.Params...)
			if err != nil {
				return err
			}
			if !r.isCurrentGeneration(key, gen) {
				return nil
			}
			r.store.Dispatch(state.SetSearchResults{Search: state.SearchState{
				Table: table.String(),
				Term:  term,
				Rows:  res.Rows,
				Total: countValue(countRes),
			}})
			return nil
		})
	})
}

// UpdateTableFieldValue issues a single-column UPDATE filtered on all
// primary-key columns by their prior row values. It requires at least
// one primary-key column, rejecting the edit before any SQL otherwise,
// and returns false without issuing SQL when the value is unchanged.
func (r *Runner) UpdateTableFieldValue(ctx context.Context, table model.TableInfo, row model.Row, rowIndex int, column string, newValue any) (bool, error) {
	changed := false
	err := r.run("updateTableFieldValue", func() error {
		if prior, ok := row[column]; ok && valueEqual(prior, newValue) {
			return nil
		}
		return r.withConnection(ctx, func(ctx context.Context, h *db.Handle) error {
			cols, err := r.columnsFor(ctx, h, table)
			if err != nil {
				return err
			}
			var pks []model.ColumnInfo
			for _, c := range cols {
				if c.IsPrimaryKey {
					pks = append(pks, c)
				}
			}
			if len(pks) == 0 {
				return fmt.Errorf("%w: %s", ErrNoPrimaryKey, table)
			}

			d := h.Dialect()
			var b strings.Builder
			fmt.Fprintf(&b, "UPDATE %s SET %s = $1 WHERE ",
				dialect.BuildTableReference(d, table), dialect.QuoteIdentifier(d, column))
			params := []any{newValue}
			for i, pk := range pks {
				if i > 0 {
					b.WriteString(" AND ")
				}
				fmt.Fprintf(&b, "%s = $%d", dialect.QuoteIdentifier(d, pk.Name), len(params)+1)
				params = append(params, row[pk.Name])
			}
			if _, err := h.Execute(ctx, b.String(), params...); err != nil {
				return err
			}
			changed = true
			r.store.Dispatch(state.SetCellValue{
				Table:    table.String(),
				RowIndex: rowIndex,
				Column:   column,
				Value:    newValue,
			})
			return nil
		})
	})
	return changed, err
}

// columnsFor serves column metadata from the state cache, introspecting
// on a miss.
func (r *Runner) columnsFor(ctx context.Context, h *db.Handle, table model.TableInfo) ([]model.ColumnInfo, error) {
	if cols, ok := r.store.State().Columns[table.String()]; ok && len(cols) > 0 {
		return cols, nil
	}
	cols, err := r.fetchColumns(ctx, h, table)
	if err != nil {
		return nil, err
	}
	r.store.Dispatch(state.SetColumns{Table: table.String(), Columns: cols})
	return cols, nil
}

// countValue reads the count from a COUNT(*) result, tolerating the
// integer shapes different drivers return.
func countValue(res *model.QueryResult) int {
	if len(res.Rows) == 0 {
		return 0
	}
	for _, v := range res.Rows[0] {
		switch t := v.(type) {
		case int64:
			return int(t)
		case int:
			return t
		case float64:
			return int(t)
		case string:
			n := 0
			fmt.Sscanf(t, "%d", &n)
			return n
		}
	}
	return 0
}

// valueEqual compares a cached cell against an incoming edit through
// their string forms, since drivers hand back differently typed values
// for the same column.
func valueEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
