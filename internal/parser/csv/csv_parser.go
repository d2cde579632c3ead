// Package csv implements a streaming CSV reader that produces typed
// relations. It supports two modes mirroring the staging sources:
//
//   - Declared-schema mode (headerless input): columns are assigned
//     positionally from a relation.Schema and each value is coerced to the
//     declared type. Coercion failures soft-fail to nil, matching the
//     permissive read the warehouse inherited from its upstream.
//   - Header mode: the first row names the columns; types are either all
//     string or sniffed per column when InferTypes is set.
//
// It never buffers the whole input and tolerates real-world defects: UTF-8
// BOMs, unescaped quotes, and rows with a deviating field count (short rows
// are padded with nil, long rows truncated, both counted as soft failures).
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/parser/dates"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/relation"
)

// Options configures the CSV reader. All fields are optional; zero values
// select sensible defaults.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	// Mutually exclusive with Schema.
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing ASCII spaces from each field value.
	TrimSpace bool

	// Schema declares the expected columns for headerless input. Values are
	// coerced to the declared types.
	Schema *relation.Schema

	// DateFormat is the source pattern for date columns (e.g. "d/M/y").
	DateFormat string

	// InferTypes enables per-column type sniffing in header mode: a column
	// whose every non-empty value parses as int becomes int, else float when
	// every value parses as float, else string.
	InferTypes bool
}

// Parser reads CSV input according to Options. A Parser is reusable across
// inputs but not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

const utf8BOM = "\ufeff"

// Parse consumes r and returns the typed relation plus the number of soft
// failures (width mismatches and coercion failures). A header read error or a
// malformed stream is a hard error.
func (p *Parser) Parse(r io.Reader) (*relation.Relation, int, error) {
	cr := csv.NewReader(r)
	cr.Comma = ','
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	var soft int

	switch {
	case p.opt.Schema != nil:
		rel, n, err := p.parseDeclared(cr)
		return rel, n, err
	case p.opt.HasHeader:
		rel, n, err := p.parseHeader(cr)
		return rel, n, err
	default:
		return nil, soft, fmt.Errorf("csv: either Schema or HasHeader must be set")
	}
}

// parseDeclared reads headerless input against the declared schema.
func (p *Parser) parseDeclared(cr *csv.Reader) (*relation.Relation, int, error) {
	sch := *p.opt.Schema
	width := len(sch.Columns)
	var rows []relation.Row
	var soft int
	first := true

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, soft, fmt.Errorf("csv read: %w", err)
		}
		if first {
			first = false
			if len(rec) > 0 {
				rec[0] = strings.TrimPrefix(rec[0], utf8BOM)
			}
		}
		if len(rec) != width {
			soft++
		}
		row := make(relation.Row, width)
		for i, col := range sch.Columns {
			if i >= len(rec) {
				row[col.Name] = nil
				continue
			}
			v, ok := p.coerce(rec[i], col.Type)
			if !ok {
				soft++
			}
			row[col.Name] = v
		}
		rows = append(rows, row)
	}
	return &relation.Relation{Schema: sch, Rows: rows}, soft, nil
}

// parseHeader reads header-ful input, optionally sniffing column types.
func (p *Parser) parseHeader(cr *csv.Reader) (*relation.Relation, int, error) {
	h, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	headers := make([]string, len(h))
	for i, name := range h {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		headers[i] = name
	}

	var raw [][]string
	var soft int
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, soft, fmt.Errorf("csv read: %w", err)
		}
		if len(rec) != len(headers) {
			soft++
		}
		cp := make([]string, len(headers))
		for i := range headers {
			if i < len(rec) {
				v := rec[i]
				if p.opt.TrimSpace {
					v = strings.TrimSpace(v)
				}
				cp[i] = v
			}
		}
		raw = append(raw, cp)
	}

	types := make([]relation.Type, len(headers))
	for i := range types {
		types[i] = relation.String
	}
	if p.opt.InferTypes {
		for i := range headers {
			types[i] = inferColumnType(raw, i)
		}
	}

	sch := relation.Schema{Columns: make([]relation.Column, len(headers))}
	for i, name := range headers {
		sch.Columns[i] = relation.Column{Name: name, Type: types[i], Nullable: true}
	}

	rows := make([]relation.Row, len(raw))
	for ri, rec := range raw {
		row := make(relation.Row, len(headers))
		for i, name := range headers {
			v, ok := p.coerce(rec[i], types[i])
			if !ok {
				soft++
			}
			row[name] = v
		}
		rows[ri] = row
	}
	return &relation.Relation{Schema: sch, Rows: rows}, soft, nil
}

// coerce converts a raw field to the target type. Empty fields become nil.
// A failed conversion yields (nil, false) so callers can count it; the row
// itself survives.
func (p *Parser) coerce(s string, t relation.Type) (any, bool) {
	if p.opt.TrimSpace {
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return nil, true
	}
	switch t {
	case relation.String:
		return s, true
	case relation.Int:
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		return nil, false
	case relation.Float:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		return nil, false
	case relation.Decimal:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return roundCents(f), true
		}
		return nil, false
	case relation.Date:
		format := p.opt.DateFormat
		if format == "" {
			format = "yyyy-MM-dd"
		}
		if t, err := dates.Parse(format, s); err == nil {
			return t, true
		}
		return nil, false
	case relation.Bool:
		if b, err := strconv.ParseBool(s); err == nil {
			return b, true
		}
		return nil, false
	}
	return s, true
}

// roundCents rounds to two decimal places, the scale the money and volume
// columns are declared with.
func roundCents(f float64) float64 {
	if f < 0 {
		return float64(int64(f*100-0.5)) / 100
	}
	return float64(int64(f*100+0.5)) / 100
}

// inferColumnType sniffs the narrowest type that fits every non-empty value
// of column i: int, then float, else string.
func inferColumnType(rows [][]string, i int) relation.Type {
	sawValue := false
	isInt := true
	isFloat := true
	for _, rec := range rows {
		v := strings.TrimSpace(rec[i])
		if v == "" {
			continue
		}
		sawValue = true
		if isInt {
			if _, err := strconv.Atoi(v); err != nil {
				isInt = false
			}
		}
		if !isInt && isFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if !isInt && !isFloat {
			return relation.String
		}
	}
	switch {
	case !sawValue:
		return relation.String
	case isInt:
		return relation.Int
	case isFloat:
		return relation.Float
	}
	return relation.String
}
