// Package jsonrec reads a stream of JSON objects into a relation.
//
// It accepts the two shapes seen in staging data: a top-level array of
// objects spanning multiple lines, and concatenated/newline-delimited
// objects. Top-level values that are neither are rejected. All scalar values
// decode to strings, numbers (float64 via json.Number handling), bools, or
// nil; type repair is the cleansing stage's job, not the reader's.
package jsonrec

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/relation"
)

// Parser decodes JSON objects into relation rows.
type Parser struct{}

// NewParser constructs a Parser.
func NewParser() *Parser { return &Parser{} }

// Parse reads all objects from r. The resulting schema lists the union of the
// keys seen, in sorted order, all typed string-or-number as observed and
// nullable. The int return counts objects that decoded but were not JSON
// objects (soft-skipped).
func (p *Parser) Parse(r io.Reader) (*relation.Relation, int, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return &relation.Relation{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("json: read first token: %w", err)
	}

	var objs []map[string]any
	var skipped int

	switch d := tok.(type) {
	case json.Delim:
		switch d {
		case '[':
			for dec.More() {
				var m map[string]any
				if err := dec.Decode(&m); err != nil {
					return nil, skipped, fmt.Errorf("json: decode array element: %w", err)
				}
				objs = append(objs, m)
			}
			if _, err := dec.Token(); err != nil {
				return nil, skipped, fmt.Errorf("json: read array end: %w", err)
			}
		case '{':
			// First object already started; re-decode from scratch is not
			// possible with encoding/json tokens, so rebuild it field by field.
			m, err := decodeOpenObject(dec)
			if err != nil {
				return nil, skipped, err
			}
			objs = append(objs, m)
		default:
			return nil, skipped, fmt.Errorf("json: unexpected delimiter %v", d)
		}
	default:
		return nil, skipped, fmt.Errorf("json: top-level value must be an object or array, got %T", tok)
	}

	// Remaining concatenated objects, if any.
	for {
		var m map[string]any
		if err := dec.Decode(&m); err == io.EOF {
			break
		} else if err != nil {
			return nil, skipped, fmt.Errorf("json: decode object: %w", err)
		}
		objs = append(objs, m)
	}

	return relationFromObjects(objs), skipped, nil
}

// decodeOpenObject finishes decoding an object whose '{' token has already
// been consumed.
func decodeOpenObject(dec *json.Decoder) (map[string]any, error) {
	m := map[string]any{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: read key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("json: object key is %T, want string", keyTok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("json: decode value for %q: %w", key, err)
		}
		m[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("json: read object end: %w", err)
	}
	return m, nil
}

// relationFromObjects builds the relation: union of keys, sorted for a
// deterministic schema, values normalized (json.Number -> float64).
func relationFromObjects(objs []map[string]any) *relation.Relation {
	keySet := map[string]struct{}{}
	for _, m := range objs {
		for k := range m {
			keySet[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sch := relation.Schema{Columns: make([]relation.Column, len(keys))}
	for i, k := range keys {
		sch.Columns[i] = relation.Column{Name: k, Type: relation.String, Nullable: true}
	}

	rows := make([]relation.Row, len(objs))
	for i, m := range objs {
		row := make(relation.Row, len(keys))
		for _, k := range keys {
			row[k] = normalize(m[k])
		}
		rows[i] = row
	}
	return &relation.Relation{Schema: sch, Rows: rows}
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
