// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// package dialect centralizes every piece of engine-specific SQL:
// identifier quoting, pagination, placeholder syntax, column
// introspection and search predicates. Call sites stay dialect-agnostic
// and each rule is unit-testable without a live database.
package dialect // import "github.com/toeirei/querydeck/internal/dialect"

import (
	"fmt"
	"strings"
)

// Dialect identifies one of the supported relational engines.
type Dialect string

const (
	PostgreSQL Dialect = "postgresql"
	MySQL      Dialect = "mysql"
	SQLite     Dialect = "sqlite"
)

// aliases maps legacy and shorthand names onto canonical dialects.
// Older profile files were written with driver names like "pg" or
// "sqlite3"; normalization funnels through here.
var aliases = map[string]Dialect{
	"postgresql": PostgreSQL,
	"postgres":   PostgreSQL,
	"pg":         PostgreSQL,
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"maria":      MySQL,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
}

// Parse resolves a dialect name, accepting legacy aliases. An unknown
// name is a configuration error for the caller.
func Parse(s string) (Dialect, error) {
	if d, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unsupported dialect: %q", s)
}

// IsSupported reports whether s names a supported engine, directly or
// via an alias.
func IsSupported(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String returns the canonical dialect name.
func (d Dialect) String() string { return string(d) }

// QuoteIdentifier quotes an identifier for the dialect, doubling any
// embedded quote character. Postgres and SQLite use double quotes,
// MySQL uses backticks.
func QuoteIdentifier(d Dialect, ident string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// Parameterize rewrites $1..$n placeholders to ? for engines that use
// positional question marks, reordering (and duplicating, if a
// placeholder repeats) the parameter slice to match. Postgres SQL and
// params pass through unchanged.
func Parameterize(sql string, d Dialect, params []any) (string, []any) {
	if d == PostgreSQL {
		return sql, params
	}
	var out strings.Builder
	var reordered []any
	for i := 0; i < len(sql); i++ {
		if sql[i] != '$' {
			out.WriteByte(sql[i])
			continue
		}
		j := i + 1
		for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
			j++
		}
		if j == i+1 {
			// A bare $ is not a placeholder.
			out.WriteByte(sql[i])
			continue
		}
		n := 0
		for _, c := range sql[i+1 : j] {
			n = n*10 + int(c-'0')
		}
		out.WriteByte('?')
		if n >= 1 && n <= len(params) {
			reordered = append(reordered, params[n-1])
		}
		i = j - 1
	}
	return out.String(), reordered
}
