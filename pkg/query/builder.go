package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// SortField is one ORDER BY term, named by view name.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields parses a comma-separated sort expression such as
// "mode,-scannedAt". A leading "-" sorts descending. Returns nil for "".
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// condition is a WHERE term; each '?' in clause is bound to the next arg.
type condition struct {
	clause string
	args   []any
}

// Builder accumulates conditions and ordering for a projection and renders
// them with sequential $n placeholders.
//
// Filter methods name fields the caller controls and panic on a field that
// is not projected. Sort fields usually come from clients, so unknown ones
// are dropped instead.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder that orders by defaultSort unless
// OrderByFields selects at least one known field.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// Build renders a SELECT over all matching rows.
func (b *Builder) Build() (string, []any) {
	where, args := b.whereClause()
	return b.selectFrom() + where + b.orderBy(), args
}

// BuildCount renders a COUNT(*) over all matching rows.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.whereClause()
	return "SELECT COUNT(*) FROM " + b.projection.Table() + where, args
}

// BuildPage renders a SELECT for one 1-based page of matching rows.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.whereClause()
	sql := fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d",
		b.selectFrom(), where, b.orderBy(), pageSize, (page-1)*pageSize)
	return sql, args
}

// BuildSingle renders a SELECT of the row whose idField equals id. Other
// conditions are ignored.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return fmt.Sprintf("%s WHERE %s = $1", b.selectFrom(), b.column(idField)), []any{id}
}

// OrderByFields replaces the default ordering.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// WhereEquals adds field = value. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	return b.compare(field, "=", value)
}

// WhereAtLeast adds field >= value. No-op for nil values.
func (b *Builder) WhereAtLeast(field string, value any) *Builder {
	return b.compare(field, ">=", value)
}

// WhereAtMost adds field <= value. No-op for nil values.
func (b *Builder) WhereAtMost(field string, value any) *Builder {
	return b.compare(field, "<=", value)
}

// WhereContains adds a case-insensitive substring match. No-op for nil or empty values.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.where(b.column(field)+" ILIKE ?", "%"+*value+"%")
}

// WhereSearch matches search as a substring of any of fields. No-op for nil
// or empty search.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	terms := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		terms[i] = b.column(field) + " ILIKE ?"
		args[i] = "%" + *search + "%"
	}
	return b.where("("+strings.Join(terms, " OR ")+")", args...)
}

// WhereJSONContains adds a JSONB containment test (field @> value) with
// value encoded as JSON. No-op for nil values.
func (b *Builder) WhereJSONContains(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("query: encode %s: %v", field, err))
	}
	return b.where(b.column(field)+" @> ?::jsonb", string(encoded))
}

func (b *Builder) compare(field, op string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.where(b.column(field)+" "+op+" ?", value)
}

func (b *Builder) where(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

func (b *Builder) column(field string) string {
	col, ok := b.projection.Column(field)
	if !ok {
		panic(fmt.Sprintf("query: field %q is not projected", field))
	}
	return col
}

func (b *Builder) selectFrom() string {
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.Table()
}

func (b *Builder) whereClause() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var sb strings.Builder
	var args []any

	sb.WriteString(" WHERE ")
	for i, c := range b.conditions {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		parts := strings.Split(c.clause, "?")
		for j, part := range parts {
			sb.WriteString(part)
			if j < len(c.args) {
				args = append(args, c.args[j])
				fmt.Fprintf(&sb, "$%d", len(args))
			}
		}
	}

	return sb.String(), args
}

func (b *Builder) orderBy() string {
	terms := b.sortTerms(b.sort)
	if len(terms) == 0 {
		terms = b.sortTerms(b.defaultSort)
	}
	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

func (b *Builder) sortTerms(fields []SortField) []string {
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := b.projection.Column(f.Field)
		if !ok {
			continue
		}
		if f.Descending {
			terms = append(terms, col+" DESC")
		} else {
			terms = append(terms, col+" ASC")
		}
	}
	return terms
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
