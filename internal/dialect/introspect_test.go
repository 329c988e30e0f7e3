// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package dialect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/toeirei/querydeck/internal/model"
)

func TestBuildColumnIntrospectionQuery_SQLite(t *testing.T) {
	q, params := BuildColumnIntrospectionQuery(SQLite, model.TableInfo{Name: "users"})
	assert.Equal(t, `PRAGMA table_info("users")`, q)
	assert.Empty(t, params)
}

func TestBuildColumnIntrospectionQuery_Postgres(t *testing.T) {
	q, params := BuildColumnIntrospectionQuery(PostgreSQL, model.TableInfo{Name: "users"})
	assert.Contains(t, q, "information_schema.columns")
	assert.Contains(t, q, "PRIMARY KEY")
	assert.Contains(t, q, "EXISTS")
	assert.Equal(t, []any{"public", "users"}, params)

	_, params = BuildColumnIntrospectionQuery(PostgreSQL, model.TableInfo{Schema: "app", Name: "users"})
	assert.Equal(t, []any{"app", "users"}, params)
}

func TestBuildColumnIntrospectionQuery_MySQL(t *testing.T) {
	q, params := BuildColumnIntrospectionQuery(MySQL, model.TableInfo{Name: "users"})
	assert.Contains(t, q, "information_schema.columns")
	assert.Contains(t, q, "column_key")
	assert.Equal(t, []any{"", "users"}, params)
}

func TestBuildTableListQuery_ExcludesSystemSchemas(t *testing.T) {
	q := BuildTableListQuery(PostgreSQL)
	assert.Contains(t, q, "pg_catalog")
	assert.Contains(t, q, "information_schema")
	assert.Contains(t, q, "NOT IN")

	q = BuildTableListQuery(SQLite)
	assert.Contains(t, q, "sqlite_master")
	assert.Contains(t, q, "NOT LIKE 'sqlite_%'")
}

func TestMapColumnRow_SQLite(t *testing.T) {
	row := model.Row{
		"name":       "id",
		"type":       "INTEGER",
		"notnull":    int64(1),
		"dflt_value": nil,
		"pk":         int64(1),
	}
	col := MapColumnRow(SQLite, row)
	assert.Equal(t, model.ColumnInfo{
		Name:         "id",
		DataType:     "INTEGER",
		Nullable:     false,
		IsPrimaryKey: true,
	}, col)
}

func TestMapColumnRow_Postgres(t *testing.T) {
	row := model.Row{
		"column_name":    "email",
		"data_type":      "text",
		"is_nullable":    "YES",
		"column_default": nil,
		"is_primary_key": false,
	}
	col := MapColumnRow(PostgreSQL, row)
	assert.True(t, col.Nullable)
	assert.False(t, col.IsPrimaryKey)
	assert.Equal(t, "email", col.Name)
}

func TestMapColumnRow_NullableCaseInsensitive(t *testing.T) {
	for _, v := range []string{"NO", "no", "No"} {
		row := model.Row{"column_name": "a", "data_type": "text", "is_nullable": v}
		assert.False(t, MapColumnRow(PostgreSQL, row).Nullable, "is_nullable=%q", v)
	}
}

func TestMapColumnRow_MySQLPrimaryKey(t *testing.T) {
	row := model.Row{
		"column_name": "id",
		"data_type":   "int",
		"is_nullable": "NO",
		"column_key":  "PRI",
	}
	col := MapColumnRow(MySQL, row)
	assert.True(t, col.IsPrimaryKey)

	row["column_key"] = "MUL"
	assert.False(t, MapColumnRow(MySQL, row).IsPrimaryKey)
}

func TestMapColumnRow_UpperCaseKeys(t *testing.T) {
	// MySQL servers can return upper-cased metadata column names.
	row := model.Row{
		"COLUMN_NAME": "id",
		"DATA_TYPE":   "int",
		"IS_NULLABLE": "NO",
		"COLUMN_KEY":  "PRI",
	}
	col := MapColumnRow(MySQL, row)
	assert.Equal(t, "id", col.Name)
	assert.True(t, col.IsPrimaryKey)
	assert.True(t, strings.EqualFold(col.DataType, "int"))
}

func TestMapColumnRow_ByteSliceValues(t *testing.T) {
	row := model.Row{
		"column_name": []byte("name"),
		"data_type":   []byte("varchar"),
		"is_nullable": []byte("YES"),
		"column_key":  []byte(""),
	}
	col := MapColumnRow(MySQL, row)
	assert.Equal(t, "name", col.Name)
	assert.Equal(t, "varchar", col.DataType)
	assert.True(t, col.Nullable)
}
