// Package query builds parameterized PostgreSQL SELECT statements from a
// projection of view names onto table columns.
package query

import (
	"strings"
)

// ProjectionMap binds view names (the names clients filter and sort by) to
// alias-qualified columns of one table. View names resolve case-insensitively.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns map[string]string
	ordered []string
}

// NewProjectionMap creates a ProjectionMap for schema.table under alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project maps column to viewName. Columns are selected in projection order.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns[strings.ToLower(viewName)] = qualified
	p.ordered = append(p.ordered, qualified)
	return p
}

// Table returns the table reference used in FROM clauses (schema.table alias).
func (p *ProjectionMap) Table() string {
	return p.schema + "." + p.table + " " + p.alias
}

// Column resolves a view name to its qualified column.
func (p *ProjectionMap) Column(viewName string) (string, bool) {
	col, ok := p.columns[strings.ToLower(viewName)]
	return col, ok
}

// Columns returns the select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.ordered, ", ")
}
