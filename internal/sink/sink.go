// Package sink defines the destination abstraction the pipeline publishes
// the six warehouse tables through. Implementations (Parquet part files,
// Postgres) live in subpackages; the pipeline depends only on Writer, so
// destinations can be combined or swapped without touching the build logic.
package sink

import (
	"context"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/warehouse"
)

// TableError is a per-table write failure. Writes are fault-isolated: a
// failing table never stops the remaining tables from being written.
type TableError struct {
	Table string
	Err   error
}

// Writer persists one run's derived tables.
type Writer interface {
	// Write publishes all six tables and returns the per-table failures,
	// empty on full success.
	Write(ctx context.Context, t *warehouse.Tables) []TableError
}

// Multi fans a run out to several writers in order (e.g. Parquet plus a
// relational load). Failures accumulate across writers.
type Multi []Writer

// Write implements Writer.
func (m Multi) Write(ctx context.Context, t *warehouse.Tables) []TableError {
	var errs []TableError
	for _, w := range m {
		errs = append(errs, w.Write(ctx, t)...)
	}
	return errs
}
