// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package dialect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toeirei/querydeck/internal/model"
)

func TestBuildTableReference(t *testing.T) {
	assert.Equal(t, `"users"`, BuildTableReference(PostgreSQL, model.TableInfo{Name: "users"}))
	assert.Equal(t, `"public"."users"`, BuildTableReference(PostgreSQL, model.TableInfo{Schema: "public", Name: "users"}))
	assert.Equal(t, "`users`", BuildTableReference(MySQL, model.TableInfo{Name: "users"}))
}

func TestBuildTableDataQuery_Pagination(t *testing.T) {
	table := model.TableInfo{Name: "users"}

	for _, d := range []Dialect{PostgreSQL, SQLite} {
		q := BuildTableDataQuery(d, table, 5, 10, nil)
		assert.True(t, strings.HasSuffix(q, "LIMIT 5 OFFSET 10"), "%s: %q", d, q)
	}

	q := BuildTableDataQuery(MySQL, table, 5, 10, nil)
	assert.True(t, strings.HasSuffix(q, "LIMIT 10, 5"), "%q", q)
}

func TestBuildTableDataQuery_Sort(t *testing.T) {
	table := model.TableInfo{Name: "users"}
	sort := &model.SortConfig{Column: "name", Direction: model.SortDesc}
	q := BuildTableDataQuery(PostgreSQL, table, 5, 0, sort)
	assert.Equal(t, `SELECT * FROM "users" ORDER BY "name" DESC LIMIT 5 OFFSET 0`, q)
}

func TestBuildSearchWhereClause_ZeroColumns(t *testing.T) {
	for _, d := range []Dialect{PostgreSQL, MySQL, SQLite} {
		assert.Equal(t, "1=1", BuildSearchWhereClause(d, nil))
	}
}

func TestBuildSearchWhereClause_Postgres(t *testing.T) {
	got := BuildSearchWhereClause(PostgreSQL, []string{"name", "email"})
	want := `CAST("name" AS TEXT) ILIKE $1 OR CAST("email" AS TEXT) ILIKE $2`
	assert.Equal(t, want, got)
}

func TestBuildSearchExpression_LowerWrap(t *testing.T) {
	got := BuildSearchExpression(MySQL, "name", 1)
	assert.Equal(t, "LOWER(CAST(`name` AS CHAR)) LIKE LOWER($1)", got)

	got = BuildSearchExpression(SQLite, "name", 1)
	assert.Equal(t, `LOWER(CAST("name" AS TEXT)) LIKE LOWER($1)`, got)
}

func TestBuildSearchQueries(t *testing.T) {
	table := model.TableInfo{Name: "users"}
	cols := []model.ColumnInfo{
		{Name: "email"},
		{Name: "id", IsPrimaryKey: true},
	}
	q := BuildSearchQueries(PostgreSQL, table, cols, "alice", 25, 50)

	require.Contains(t, q.CountSQL, "SELECT COUNT(*) AS count FROM \"users\" WHERE ")
	require.Contains(t, q.DataSQL, `ORDER BY "id" ASC`)
	require.Contains(t, q.DataSQL, "LIMIT 25 OFFSET 50")

	// Shared WHERE: both queries carry the same predicates.
	wherePart := q.CountSQL[strings.Index(q.CountSQL, "WHERE"):]
	assert.Contains(t, q.DataSQL, wherePart)

	require.Len(t, q.Params, 2)
	for _, p := range q.Params {
		assert.Equal(t, "%alice%", p)
	}
}

func TestBuildSearchQueries_NoPrimaryKey(t *testing.T) {
	table := model.TableInfo{Name: "logs"}
	cols := []model.ColumnInfo{{Name: "msg"}, {Name: "level"}}
	q := BuildSearchQueries(SQLite, table, cols, "err", 10, 0)
	assert.Contains(t, q.DataSQL, `ORDER BY "msg" ASC`)
}
