// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package dialect

import (
	"fmt"
	"strings"

	"github.com/toeirei/querydeck/internal/model"
)

// BuildTableReference returns the quoted, schema-qualified table
// reference for the dialect.
func BuildTableReference(d Dialect, table model.TableInfo) string {
	if table.Schema != "" {
		return QuoteIdentifier(d, table.Schema) + "." + QuoteIdentifier(d, table.Name)
	}
	return QuoteIdentifier(d, table.Name)
}

// BuildTableDataQuery builds the paginated SELECT for a table view.
// Pagination syntax is LIMIT n OFFSET o for Postgres/SQLite and
// LIMIT o, n for MySQL. A sort, when active, orders by the quoted
// column before pagination applies.
func BuildTableDataQuery(d Dialect, table model.TableInfo, limit, offset int, sort *model.SortConfig) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(BuildTableReference(d, table))
	if sort != nil && sort.Column != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(QuoteIdentifier(d, sort.Column))
		b.WriteString(" ")
		b.WriteString(string(sort.Direction))
	}
	b.WriteString(paginationClause(d, limit, offset))
	return b.String()
}

func paginationClause(d Dialect, limit, offset int) string {
	if d == MySQL {
		return fmt.Sprintf(" LIMIT %d, %d", offset, limit)
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

// BuildSearchExpression returns one search predicate for a single
// column. Postgres casts to TEXT and uses ILIKE; MySQL and SQLite cast
// to CHAR/TEXT and lower both sides. The placeholder index is 1-based
// Postgres syntax; run the result through Parameterize for the other
// engines.
func BuildSearchExpression(d Dialect, column string, placeholder int) string {
	quoted := QuoteIdentifier(d, column)
	switch d {
	case PostgreSQL:
		return fmt.Sprintf("CAST(%s AS TEXT) ILIKE $%d", quoted, placeholder)
	case MySQL:
		return fmt.Sprintf("LOWER(CAST(%s AS CHAR)) LIKE LOWER($%d)", quoted, placeholder)
	default:
		return fmt.Sprintf("LOWER(CAST(%s AS TEXT)) LIKE LOWER($%d)", quoted, placeholder)
	}
}

// BuildSearchWhereClause ORs one predicate per column. Zero columns
// yields the tautology 1=1 so callers can always append the clause.
func BuildSearchWhereClause(d Dialect, columns []string) string {
	if len(columns) == 0 {
		return "1=1"
	}
	exprs := make([]string, len(columns))
	for i, col := range columns {
		exprs[i] = BuildSearchExpression(d, col, i+1)
	}
	return strings.Join(exprs, " OR ")
}

// SearchQueries pairs a COUNT query with a paginated data query that
// share one WHERE clause.
type SearchQueries struct {
	CountSQL string
	DataSQL  string
	Params   []any
}

// BuildSearchQueries builds the count and data queries for a table
// search. The data query orders by the primary key when the table has
// one, else by the first column, so paging over results is stable.
// The search term is matched as a contains pattern against every
// column.
func BuildSearchQueries(d Dialect, table model.TableInfo, columns []model.ColumnInfo, term string, limit, offset int) SearchQueries {
	names := make([]string, len(columns))
	orderCol := ""
	for i, c := range columns {
		names[i] = c.Name
		if c.IsPrimaryKey && orderCol == "" {
			orderCol = c.Name
		}
	}
	if orderCol == "" && len(columns) > 0 {
		orderCol = columns[0].Name
	}

	where := BuildSearchWhereClause(d, names)
	ref := BuildTableReference(d, table)

	countSQL := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s WHERE %s", ref, where)

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s WHERE %s", ref, where)
	if orderCol != "" {
		fmt.Fprintf(&b, " ORDER BY %s ASC", QuoteIdentifier(d, orderCol))
	}
	b.WriteString(paginationClause(d, limit, offset))

	pattern := "%" + term + "%"
	params := make([]any, len(names))
	for i := range params {
		params[i] = pattern
	}
	return SearchQueries{CountSQL: countSQL, DataSQL: b.String(), Params: params}
}
