// Package relation implements the small in-memory relational layer the
// pipeline is built on. A Relation is an unordered bag of rows sharing one
// declared column schema; stages never mutate a relation in place, they
// produce new ones.
//
// The operators here (Project, Distinct, LeftJoin, AddColumn) are deliberately
// explicit: join keys and projected columns are validated against the schema
// when the operator runs, so a misspelled column surfaces as an error instead
// of silently producing empty output.
package relation

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Type is the logical type of a column.
type Type string

const (
	String  Type = "string"
	Int     Type = "int"
	Float   Type = "float"
	Decimal Type = "decimal" // fixed-point money/volume values, held as float64
	Date    Type = "date"
	Bool    Type = "bool"
)

// Column declares one column of a relation schema.
type Column struct {
	Name     string
	Type     Type
	Nullable bool
}

// Schema is an ordered list of column declarations.
type Schema struct {
	Columns []Column
}

// Row is a single record keyed by column name. Values are nil, string, int,
// float64, bool, or time.Time depending on the column type.
type Row = map[string]any

// Relation is an immutable-by-convention bag of rows with a fixed schema.
type Relation struct {
	Schema Schema
	Rows   []Row
}

// Col returns the declaration for name and whether it exists.
func (s Schema) Col(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the column names in declaration order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Has reports whether the schema declares name.
func (s Schema) Has(name string) bool {
	_, ok := s.Col(name)
	return ok
}

// Count returns the row cardinality.
func (r *Relation) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Rename returns a copy of the relation with column old renamed to new in
// both the schema and every row. Renaming a column the schema does not
// declare is an error; the relation is left untouched.
func (r *Relation) Rename(old, new string) (*Relation, error) {
	if !r.Schema.Has(old) {
		return nil, fmt.Errorf("rename %s: no such column", old)
	}
	cols := make([]Column, len(r.Schema.Columns))
	copy(cols, r.Schema.Columns)
	for i := range cols {
		if cols[i].Name == old {
			cols[i].Name = new
		}
	}
	rows := make([]Row, len(r.Rows))
	for i, row := range r.Rows {
		nr := make(Row, len(row))
		for k, v := range row {
			if k == old {
				nr[new] = v
			} else {
				nr[k] = v
			}
		}
		rows[i] = nr
	}
	return &Relation{Schema: Schema{Columns: cols}, Rows: rows}, nil
}

// SortedNames is a helper for deterministic error messages.
func (s Schema) SortedNames() []string {
	names := s.Names()
	sort.Strings(names)
	return names
}

// encodeValue appends a canonical textual encoding of v to b. The encoding
// distinguishes nil from empty string and keeps dates stable regardless of
// wall-clock location.
func encodeValue(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteByte(0x00)
	case string:
		b.WriteString(t)
	case time.Time:
		b.WriteString(t.UTC().Format("2006-01-02T15:04:05"))
	default:
		fmt.Fprint(b, t)
	}
}
