// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package effects

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/toeirei/querydeck/internal/db"
	"github.com/toeirei/querydeck/internal/dialect"
	"github.com/toeirei/querydeck/internal/model"
	"github.com/toeirei/querydeck/internal/state"
)

// RunQuery executes an ad-hoc statement against the active connection,
// records it in the history (success or failure) and publishes the
// result.
func (r *Runner) RunQuery(ctx context.Context, sqlText string) (*model.QueryResult, error) {
	var result *model.QueryResult
	err := r.run("runQuery", func() error {
		return r.withConnection(ctx, func(ctx context.Context, h *db.Handle) error {
			start := time.Now()
			res, qerr := h.Query(ctx, sqlText)
			rowCount := 0
			if res != nil {
				rowCount = res.RowCount
			}
			r.mu.Lock()
			connID := r.activeID
			r.mu.Unlock()
			r.history.Append(connID, sqlText, start, time.Since(start), rowCount, qerr)
			r.store.Dispatch(state.SetHistory{Items: r.history.List()})
			if qerr != nil {
				return qerr
			}
			result = res
			r.store.Dispatch(state.SetQueryResult{Result: res})
			return nil
		})
	})
	return result, err
}

// LoadHistory publishes the persisted query history.
func (r *Runner) LoadHistory() {
	r.store.Dispatch(state.SetHistory{Items: r.history.List()})
}

// ExportTableData writes a full table as gzip-compressed JSON rows to
// dir and returns the written path. Downstream formatters (CSV, TOON)
// consume the same QueryResult shape; this effect only covers the
// built-in archive format.
func (r *Runner) ExportTableData(ctx context.Context, table model.TableInfo, dir string) (string, error) {
	var path string
	err := r.run("exportTableData", func() error {
		return r.withConnection(ctx, func(ctx context.Context, h *db.Handle) error {
			res, err := h.Query(ctx, "SELECT * FROM "+dialect.BuildTableReference(h.Dialect(), table))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create export directory: %w", err)
			}
			name := fmt.Sprintf("%s-%s.json.gz", table.Name, time.Now().Format("20060102-150405"))
			path = filepath.Join(dir, name)
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			zw := gzip.NewWriter(f)
			enc := json.NewEncoder(zw)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res.Rows); err != nil {
				_ = zw.Close()
				_ = f.Close()
				return fmt.Errorf("failed to encode export: %w", err)
			}
			if err := zw.Close(); err != nil {
				_ = f.Close()
				return fmt.Errorf("failed to finish export: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close export file: %w", err)
			}
			r.store.Dispatch(state.SetStatus{Message: fmt.Sprintf("Exported %d rows to %s", res.RowCount, path)})
			return nil
		})
	})
	return path, err
}
