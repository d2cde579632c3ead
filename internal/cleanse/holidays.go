package cleanse

import (
	"fmt"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/parser/dates"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/relation"
)

// HolidayDateFormat is the pattern the holidays feed writes its Date field in.
const HolidayDateFormat = "dd/MM/yy"

// Holidays returns the cleansing chain for the holidays source: coerce the
// Date field, then rename to canonical lowercase names.
func Holidays() Chain {
	return Chain{
		Stage: "holidays",
		Rules: []Rule{
			coerceDate{col: "Date", pattern: HolidayDateFormat},
			rename{from: "Date", to: "date"},
			rename{from: "Holiday", to: "holiday_name"},
		},
	}
}

// coerceDate parses string values of col with pattern into dates. Values that
// are already dates (a rerun over cleansed data) or nil pass through;
// unparseable strings become nil, mirroring a permissive cast.
type coerceDate struct {
	col     string
	pattern string
}

func (c coerceDate) Name() string {
	return fmt.Sprintf("coerce %s with pattern %s", c.col, c.pattern)
}

func (c coerceDate) Apply(r *relation.Relation) (*relation.Relation, error) {
	if !r.Schema.Has(c.col) {
		return nil, fmt.Errorf("column %q not in schema", c.col)
	}
	out, err := mapColumn(r, c.col, func(v any) any {
		s, ok := v.(string)
		if !ok {
			return v
		}
		t, err := dates.Parse(c.pattern, s)
		if err != nil {
			return nil
		}
		return t
	})
	if err != nil {
		return nil, err
	}
	// Reflect the coercion in the schema without touching the input's copy.
	cols := make([]relation.Column, len(out.Schema.Columns))
	copy(cols, out.Schema.Columns)
	for i := range cols {
		if cols[i].Name == c.col {
			cols[i].Type = relation.Date
		}
	}
	out.Schema = relation.Schema{Columns: cols}
	return out, nil
}
