package relation

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// keySep separates encoded field values inside a composite key. 0x1f is the
// ASCII unit separator and does not occur in the staging data.
const keySep = 0x1f

// encodeKey builds the canonical composite key of row over cols.
func encodeKey(row Row, cols []string) string {
	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteByte(keySep)
		}
		encodeValue(&b, row[c])
	}
	return b.String()
}

// hashIndex buckets row indexes by the xxh3 hash of their composite key.
// Collisions are resolved by comparing the encoded keys themselves, so two
// distinct keys hashing alike never merge.
type hashIndex struct {
	cols    []string
	buckets map[uint64][]indexEntry
}

type indexEntry struct {
	key  string
	rows []int
}

func buildIndex(rel *Relation, cols []string) *hashIndex {
	idx := &hashIndex{cols: cols, buckets: make(map[uint64][]indexEntry)}
	for i, row := range rel.Rows {
		idx.add(encodeKey(row, cols), i)
	}
	return idx
}

func (ix *hashIndex) add(key string, rowIdx int) {
	h := xxh3.HashString(key)
	bucket := ix.buckets[h]
	for bi := range bucket {
		if bucket[bi].key == key {
			bucket[bi].rows = append(bucket[bi].rows, rowIdx)
			return
		}
	}
	ix.buckets[h] = append(bucket, indexEntry{key: key, rows: []int{rowIdx}})
}

func (ix *hashIndex) lookup(key string) []int {
	for _, e := range ix.buckets[xxh3.HashString(key)] {
		if e.key == key {
			return e.rows
		}
	}
	return nil
}

// Project returns a relation with only the named columns, in the given order.
// Every requested column must exist in the input schema.
func Project(r *Relation, cols ...string) (*Relation, error) {
	out := Schema{Columns: make([]Column, 0, len(cols))}
	for _, name := range cols {
		c, ok := r.Schema.Col(name)
		if !ok {
			return nil, fmt.Errorf("project: column %q not in schema (have %v)", name, r.Schema.SortedNames())
		}
		out.Columns = append(out.Columns, c)
	}
	rows := make([]Row, len(r.Rows))
	for i, src := range r.Rows {
		dst := make(Row, len(cols))
		for _, name := range cols {
			dst[name] = src[name]
		}
		rows[i] = dst
	}
	return &Relation{Schema: out, Rows: rows}, nil
}

// Distinct returns the relation with fully identical rows collapsed to one.
// The first occurrence wins; relative order of survivors is preserved even
// though relations are logically unordered, which keeps tests deterministic.
func Distinct(r *Relation) *Relation {
	return DistinctBy(r, r.Schema.Names()...)
}

// DistinctBy collapses rows sharing the same values in keyCols, keeping the
// first occurrence of each key.
func DistinctBy(r *Relation, keyCols ...string) *Relation {
	seen := &hashIndex{cols: keyCols, buckets: make(map[uint64][]indexEntry)}
	rows := make([]Row, 0, len(r.Rows))
	for i, row := range r.Rows {
		key := encodeKey(row, keyCols)
		if seen.lookup(key) != nil {
			continue
		}
		seen.add(key, i)
		rows = append(rows, row)
	}
	return &Relation{Schema: r.Schema, Rows: rows}
}

// UniqueOn reports whether no two rows of r share the same composite value
// over keyCols. The dimensional builder uses this as the fan-out precondition
// on the weather relation before the fact join.
func UniqueOn(r *Relation, keyCols ...string) bool {
	seen := &hashIndex{cols: keyCols, buckets: make(map[uint64][]indexEntry)}
	for i, row := range r.Rows {
		key := encodeKey(row, keyCols)
		if seen.lookup(key) != nil {
			return false
		}
		seen.add(key, i)
	}
	return true
}

// JoinKey pairs one left-side column with the right-side column it must equal.
type JoinKey struct {
	Left  string
	Right string
}

// LeftJoin joins every left row against right on the given key pairs and
// appends the take columns from the matching right row. Left rows without a
// match survive with nil in every taken column. When a key matches several
// right rows the left row is emitted once per match, as in SQL; callers that
// need a strict one-to-one enrichment must guarantee (or pre-collapse) a
// unique key on the right side, see UniqueOn.
func LeftJoin(left, right *Relation, on []JoinKey, take ...string) (*Relation, error) {
	leftCols := make([]string, len(on))
	rightCols := make([]string, len(on))
	for i, k := range on {
		if !left.Schema.Has(k.Left) {
			return nil, fmt.Errorf("left join: left column %q not in schema", k.Left)
		}
		if !right.Schema.Has(k.Right) {
			return nil, fmt.Errorf("left join: right column %q not in schema", k.Right)
		}
		leftCols[i] = k.Left
		rightCols[i] = k.Right
	}

	outSchema := Schema{Columns: make([]Column, 0, len(left.Schema.Columns)+len(take))}
	outSchema.Columns = append(outSchema.Columns, left.Schema.Columns...)
	for _, name := range take {
		c, ok := right.Schema.Col(name)
		if !ok {
			return nil, fmt.Errorf("left join: take column %q not in right schema", name)
		}
		if outSchema.Has(name) {
			return nil, fmt.Errorf("left join: take column %q collides with left schema", name)
		}
		c.Nullable = true // unmatched left rows carry nil
		outSchema.Columns = append(outSchema.Columns, c)
	}

	idx := buildIndex(right, rightCols)

	rows := make([]Row, 0, len(left.Rows))
	for _, lrow := range left.Rows {
		matches := idx.lookup(encodeKey(lrow, leftCols))
		if len(matches) == 0 {
			nr := make(Row, len(lrow)+len(take))
			for k, v := range lrow {
				nr[k] = v
			}
			for _, name := range take {
				nr[name] = nil
			}
			rows = append(rows, nr)
			continue
		}
		for _, ri := range matches {
			rrow := right.Rows[ri]
			nr := make(Row, len(lrow)+len(take))
			for k, v := range lrow {
				nr[k] = v
			}
			for _, name := range take {
				nr[name] = rrow[name]
			}
			rows = append(rows, nr)
		}
	}
	return &Relation{Schema: outSchema, Rows: rows}, nil
}

// AddColumn returns a relation extended with a computed column. The value
// function receives each row and returns the new column value; existing rows
// are copied, never mutated.
func AddColumn(r *Relation, col Column, value func(Row) any) (*Relation, error) {
	if r.Schema.Has(col.Name) {
		return nil, fmt.Errorf("add column: %q already in schema", col.Name)
	}
	cols := make([]Column, 0, len(r.Schema.Columns)+1)
	cols = append(cols, r.Schema.Columns...)
	cols = append(cols, col)
	rows := make([]Row, len(r.Rows))
	for i, src := range r.Rows {
		dst := make(Row, len(src)+1)
		for k, v := range src {
			dst[k] = v
		}
		dst[col.Name] = value(src)
		rows[i] = dst
	}
	return &Relation{Schema: Schema{Columns: cols}, Rows: rows}, nil
}
