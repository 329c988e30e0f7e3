// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHandle(t *testing.T) *Handle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	f := NewFactory(Options{})
	h, err := f.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHandle_ConnectAndQuery(t *testing.T) {
	ctx := context.Background()
	h := openTestHandle(t)
	require.NoError(t, h.Connect(ctx))

	_, err := h.Execute(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	affected, err := h.Execute(ctx, `INSERT INTO users (name) VALUES ($1), ($2)`, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	result, err := h.Query(ctx, `SELECT id, name FROM users WHERE name = $1`, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, result.Fields)
	require.Equal(t, 1, result.RowCount)
	assert.Equal(t, "alice", result.Rows[0]["name"])
}

func TestHandle_QueryEmptyResult(t *testing.T) {
	ctx := context.Background()
	h := openTestHandle(t)
	_, err := h.Execute(ctx, `CREATE TABLE empty_t (id INTEGER)`)
	require.NoError(t, err)

	result, err := h.Query(ctx, `SELECT id FROM empty_t`)
	require.NoError(t, err)
	assert.Zero(t, result.RowCount)
	assert.Empty(t, result.Rows)
	assert.Equal(t, []string{"id"}, result.Fields)
}

func TestHandle_QueryErrorTranslated(t *testing.T) {
	ctx := context.Background()
	h := openTestHandle(t)
	_, err := h.Query(ctx, `SELECT * FROM no_such_table`)
	var database *DatabaseError
	require.ErrorAs(t, err, &database)
}

func TestHandle_CloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	f := NewFactory(Options{})
	h, err := f.Open("sqlite", path)
	require.NoError(t, err)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
}

func TestHandle_RepeatedPlaceholderParam(t *testing.T) {
	ctx := context.Background()
	h := openTestHandle(t)
	_, err := h.Execute(ctx, `CREATE TABLE pairs (a TEXT, b TEXT)`)
	require.NoError(t, err)
	_, err = h.Execute(ctx, `INSERT INTO pairs (a, b) VALUES ($1, $1)`, "same")
	require.NoError(t, err)

	result, err := h.Query(ctx, `SELECT a, b FROM pairs`)
	require.NoError(t, err)
	require.Equal(t, 1, result.RowCount)
	assert.Equal(t, "same", result.Rows[0]["a"])
	assert.Equal(t, "same", result.Rows[0]["b"])
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, "bytes", normalizeValue([]byte("bytes")))
	assert.Equal(t, int64(7), normalizeValue(int64(7)))
	assert.Nil(t, normalizeValue(nil))
}
