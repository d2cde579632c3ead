// Package quality implements the data-quality gate that runs between the
// dimensional build and the sink write. It only observes: checks never mutate
// tables and never abort anything themselves. Whether findings fail the run
// is the caller's policy.
package quality

import "github.com/Sarwan-S/udacity-nanodegree-capstone/internal/warehouse"

// Finding is one violated check.
type Finding struct {
	Table   string
	Check   string
	Message string
}

// Check names used in findings.
const (
	CheckNonEmpty         = "non_empty"
	CheckNullKey          = "null_key"
	CheckJoinPrecondition = "join_precondition"
)

// Check runs the structural assertions over the six derived tables:
// every table must have at least one row, and the fact table must have no
// row with a null invoice_number. The returned findings are in table order;
// an empty slice means a clean run.
func Check(t *warehouse.Tables) []Finding {
	var findings []Finding

	counts := t.Counts()
	for _, name := range warehouse.TableNames {
		if counts[name] < 1 {
			findings = append(findings, Finding{
				Table:   name,
				Check:   CheckNonEmpty,
				Message: name + " table has no records",
			})
		}
	}

	nullKeys := 0
	for _, f := range t.Facts {
		if f.InvoiceNumber == nil {
			nullKeys++
		}
	}
	if nullKeys > 0 {
		findings = append(findings, Finding{
			Table:   "liquor_sales",
			Check:   CheckNullKey,
			Message: "null records detected in invoice_number field of liquor_sales table",
		})
	}

	return findings
}
