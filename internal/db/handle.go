// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/toeirei/querydeck/internal/dialect"
	"github.com/toeirei/querydeck/internal/logging"
	"github.com/toeirei/querydeck/internal/model"
	"github.com/uptrace/bun"
)

// Handle is one pooled connection to a database. Effects open a Handle
// per call and close it in a guaranteed-cleanup step, so a Handle never
// outlives the operation that opened it.
type Handle struct {
	dialect    dialect.Dialect
	bun        *bun.DB
	closeGrace time.Duration

	connectOnce sync.Once
	connectErr  error
	closed      atomic.Bool
}

// Dialect returns the engine this handle talks to.
func (h *Handle) Dialect() dialect.Dialect { return h.dialect }

// Connect verifies the connection with a ping. It is idempotent; the
// first query connects implicitly when Connect was never called.
func (h *Handle) Connect(ctx context.Context) error {
	h.connectOnce.Do(func() {
		h.connectErr = Translate(h.bun.PingContext(ctx))
	})
	return h.connectErr
}

// Query runs a row-returning statement. Placeholders are Postgres-style
// $1..$n and are rewritten per dialect before execution. Driver errors
// come back translated into the shared taxonomy.
func (h *Handle) Query(ctx context.Context, sqlText string, params ...any) (*model.QueryResult, error) {
	sqlText, params = dialect.Parameterize(sqlText, h.dialect, params)
	rows, err := h.bun.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, Translate(err)
	}
	defer func() { _ = rows.Close() }()

	fields, err := rows.Columns()
	if err != nil {
		return nil, Translate(err)
	}

	result := &model.QueryResult{Fields: fields}
	scan := make([]any, len(fields))
	for i := range scan {
		scan[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, Translate(err)
		}
		row := make(model.Row, len(fields))
		for i, name := range fields {
			row[name] = normalizeValue(*scan[i].(*any))
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, Translate(err)
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

// Execute runs a non-row statement and returns the affected row count.
func (h *Handle) Execute(ctx context.Context, sqlText string, params ...any) (int64, error) {
	sqlText, params = dialect.Parameterize(sqlText, h.dialect, params)
	res, err := h.bun.ExecContext(ctx, sqlText, params...)
	if err != nil {
		return 0, Translate(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report this; the statement still ran.
		return 0, nil
	}
	return affected, nil
}

// Close shuts the pool down. It is idempotent and tolerant of a hanging
// or erroring pool: the close races a bounded grace period, and on
// timeout the handle logs a warning and resolves anyway so the caller
// is never left blocked.
func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- h.bun.Close() }()
	select {
	case err := <-done:
		return Translate(err)
	case <-time.After(h.closeGrace):
		logging.Warnf("db: %s pool did not close within %s, abandoning", h.dialect, h.closeGrace)
		return nil
	}
}

// normalizeValue flattens driver-specific scan types. Byte slices
// become strings so the UI and exporters see printable values.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return v
	}
}
