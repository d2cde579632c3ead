// Package cleanse contains the source-specific repair stages applied between
// reading and the dimensional build. Rules are pure column-level fixes: a
// stage never filters rows, so output cardinality always equals input
// cardinality. Each rule is fault-isolated — a failing rule is reported
// through the chain's error callback and skipped, and the remaining rules
// still run on a best-effort basis.
package cleanse

import (
	"fmt"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/relation"
)

// Rule is a single named repair applied to a relation.
type Rule interface {
	Name() string
	Apply(r *relation.Relation) (*relation.Relation, error)
}

// Chain applies an ordered list of rules to one staging source.
type Chain struct {
	Stage string
	Rules []Rule
}

// Apply runs every rule in order. A rule that errors, or that violates the
// row-count preservation contract, is skipped: its input relation flows to
// the next rule unchanged and onErr receives the failure. The returned
// relation always has the same row count as the input.
func (c Chain) Apply(in *relation.Relation, onErr func(rule string, err error)) *relation.Relation {
	cur := in
	for _, rule := range c.Rules {
		out, err := rule.Apply(cur)
		if err != nil {
			if onErr != nil {
				onErr(rule.Name(), err)
			}
			continue
		}
		if out.Count() != cur.Count() {
			if onErr != nil {
				onErr(rule.Name(), fmt.Errorf("rule changed row count %d -> %d; skipped", cur.Count(), out.Count()))
			}
			continue
		}
		cur = out
	}
	return cur
}

// mapColumn returns a copy of r with f applied to column col in every row.
// Values f leaves alone (or rows where the column is nil) pass through.
func mapColumn(r *relation.Relation, col string, f func(any) any) (*relation.Relation, error) {
	if !r.Schema.Has(col) {
		return nil, fmt.Errorf("column %q not in schema", col)
	}
	rows := make([]relation.Row, len(r.Rows))
	for i, src := range r.Rows {
		dst := make(relation.Row, len(src))
		for k, v := range src {
			dst[k] = v
		}
		dst[col] = f(src[col])
		rows[i] = dst
	}
	return &relation.Relation{Schema: r.Schema, Rows: rows}, nil
}

// rename is a Rule wrapping Relation.Rename.
type rename struct {
	from, to string
}

func (rn rename) Name() string { return fmt.Sprintf("rename %s -> %s", rn.from, rn.to) }

func (rn rename) Apply(r *relation.Relation) (*relation.Relation, error) {
	return r.Rename(rn.from, rn.to)
}
