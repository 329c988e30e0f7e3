// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package dialect

import (
	"fmt"
	"strings"

	"github.com/toeirei/querydeck/internal/model"
)

// BuildColumnIntrospectionQuery returns the query that lists a table's
// columns. SQLite uses PRAGMA table_info; Postgres and MySQL read
// information_schema.columns, with Postgres additionally computing
// primary-key membership from the constraint metadata. Placeholders are
// Postgres-style; run through Parameterize before executing on MySQL.
func BuildColumnIntrospectionQuery(d Dialect, table model.TableInfo) (string, []any) {
	switch d {
	case SQLite:
		return fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdentifier(d, table.Name)), nil
	case PostgreSQL:
		schema := table.Schema
		if schema == "" {
			schema = "public"
		}
		q := `SELECT c.column_name, c.data_type, c.is_nullable, c.column_default,
  EXISTS (
    SELECT 1
    FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu
      ON tc.constraint_name = kcu.constraint_name
     AND tc.table_schema = kcu.table_schema
    WHERE tc.constraint_type = 'PRIMARY KEY'
      AND tc.table_schema = c.table_schema
      AND tc.table_name = c.table_name
      AND kcu.column_name = c.column_name
  ) AS is_primary_key
FROM information_schema.columns c
WHERE c.table_schema = $1 AND c.table_name = $2
ORDER BY c.ordinal_position`
		return q, []any{schema, table.Name}
	default: // MySQL
		q := `SELECT column_name, data_type, is_nullable, column_default, column_key
FROM information_schema.columns
WHERE table_schema = COALESCE(NULLIF($1, ''), DATABASE()) AND table_name = $2
ORDER BY ordinal_position`
		return q, []any{table.Schema, table.Name}
	}
}

// BuildTableListQuery returns the query listing user tables for the
// dialect. System schemas (pg_catalog, information_schema) are
// excluded.
func BuildTableListQuery(d Dialect) string {
	switch d {
	case SQLite:
		return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	case PostgreSQL:
		return `SELECT table_schema, table_name
FROM information_schema.tables
WHERE table_type = 'BASE TABLE'
  AND table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY table_schema, table_name`
	default: // MySQL
		return `SELECT table_schema, table_name
FROM information_schema.tables
WHERE table_type = 'BASE TABLE' AND table_schema = DATABASE()
ORDER BY table_name`
	}
}

// MapColumnRow normalizes one driver row from the introspection query
// into a ColumnInfo. Nullability is a case-insensitive check against
// "NO"; MySQL marks primary keys with column_key = "PRI".
func MapColumnRow(d Dialect, row model.Row) model.ColumnInfo {
	switch d {
	case SQLite:
		return model.ColumnInfo{
			Name:         rowString(row, "name"),
			DataType:     rowString(row, "type"),
			Nullable:     rowInt(row, "notnull") == 0,
			Default:      rowString(row, "dflt_value"),
			IsPrimaryKey: rowInt(row, "pk") > 0,
		}
	case MySQL:
		return model.ColumnInfo{
			Name:         rowString(row, "column_name"),
			DataType:     rowString(row, "data_type"),
			Nullable:     !strings.EqualFold(rowString(row, "is_nullable"), "NO"),
			Default:      rowString(row, "column_default"),
			IsPrimaryKey: strings.EqualFold(rowString(row, "column_key"), "PRI"),
		}
	default: // PostgreSQL
		return model.ColumnInfo{
			Name:         rowString(row, "column_name"),
			DataType:     rowString(row, "data_type"),
			Nullable:     !strings.EqualFold(rowString(row, "is_nullable"), "NO"),
			Default:      rowString(row, "column_default"),
			IsPrimaryKey: rowBool(row, "is_primary_key"),
		}
	}
}

// rowString reads a column from a scanned row, tolerating the mixed
// concrete types drivers hand back ([]byte, string, nil). MySQL in
// particular returns column names upper-cased depending on server
// configuration, so lookup falls back to the upper-case key.
func rowString(row model.Row, key string) string {
	v, ok := row[key]
	if !ok {
		v = row[strings.ToUpper(key)]
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func rowInt(row model.Row, key string) int {
	v, ok := row[key]
	if !ok {
		v = row[strings.ToUpper(key)]
	}
	switch t := v.(type) {
	case int64:
		return int(t)
	case int:
		return t
	case float64:
		return int(t)
	case []byte:
		n := 0
		fmt.Sscanf(string(t), "%d", &n)
		return n
	case string:
		n := 0
		fmt.Sscanf(t, "%d", &n)
		return n
	default:
		return 0
	}
}

func rowBool(row model.Row, key string) bool {
	v, ok := row[key]
	if !ok {
		v = row[strings.ToUpper(key)]
	}
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case string:
		return strings.EqualFold(t, "t") || strings.EqualFold(t, "true") || t == "1"
	case []byte:
		s := string(t)
		return strings.EqualFold(s, "t") || strings.EqualFold(s, "true") || s == "1"
	default:
		return false
	}
}
