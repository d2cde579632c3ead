// Package parquetsink writes the warehouse tables as Parquet datasets. Each
// table lands under {root}/{table}/ as a fixed number of part files; rows are
// assigned to parts round-robin, so the part count is the table's write
// fan-out regardless of row count. Destinations go through objstore, so the
// root can be a local directory or an s3:// prefix.
package parquetsink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
	"golang.org/x/sync/errgroup"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/objstore"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/sink"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/warehouse"
)

// DefaultFanout is the per-table part-file count used when the run config
// does not override it.
var DefaultFanout = map[string]int{
	"items":        2,
	"vendors":      2,
	"counties":     1,
	"stores":       2,
	"time":         1,
	"liquor_sales": 5,
}

// Writer is the Parquet sink.
type Writer struct {
	store  objstore.Store
	root   string
	fanout map[string]int
}

// New constructs a Writer targeting root. overrides replaces the default
// fan-out for the tables it names.
func New(store objstore.Store, root string, overrides map[string]int) *Writer {
	fanout := make(map[string]int, len(DefaultFanout))
	for k, v := range DefaultFanout {
		fanout[k] = v
	}
	for k, v := range overrides {
		if _, known := fanout[k]; known && v >= 1 {
			fanout[k] = v
		}
	}
	return &Writer{store: store, root: root, fanout: fanout}
}

// Write publishes all six tables concurrently. Each table write is
// fault-isolated; the returned slice holds one entry per failed table.
func (w *Writer) Write(ctx context.Context, t *warehouse.Tables) []sink.TableError {
	results := make([]error, len(warehouse.TableNames))
	var g errgroup.Group

	run := func(i int, write func() error) {
		g.Go(func() error {
			results[i] = write()
			return nil
		})
	}

	run(0, func() error { return writeParts(ctx, w, "items", t.Items) })
	run(1, func() error { return writeParts(ctx, w, "vendors", t.Vendors) })
	run(2, func() error { return writeParts(ctx, w, "counties", t.Counties) })
	run(3, func() error { return writeParts(ctx, w, "stores", t.Stores) })
	run(4, func() error { return writeParts(ctx, w, "time", t.Time) })
	run(5, func() error { return writeParts(ctx, w, "liquor_sales", t.Facts) })

	_ = g.Wait()

	var errs []sink.TableError
	for i, err := range results {
		if err != nil {
			errs = append(errs, sink.TableError{Table: warehouse.TableNames[i], Err: err})
		}
	}
	return errs
}

// writeParts encodes one table into its part files and puts each under
// {root}/{table}/part-0000N.parquet.
func writeParts[T any](ctx context.Context, w *Writer, table string, rows []T) error {
	parts := w.fanout[table]
	if parts < 1 {
		parts = 1
	}

	for p := 0; p < parts; p++ {
		var subset []T
		for i := p; i < len(rows); i += parts {
			subset = append(subset, rows[i])
		}

		var buf bytes.Buffer
		pw := parquet.NewGenericWriter[T](&buf, parquet.Compression(&parquet.Snappy))
		if len(subset) > 0 {
			if _, err := pw.Write(subset); err != nil {
				return fmt.Errorf("encode %s part %d: %w", table, p, err)
			}
		}
		if err := pw.Close(); err != nil {
			return fmt.Errorf("close %s part %d: %w", table, p, err)
		}

		loc := partLocation(w.root, table, p)
		if err := w.store.Put(ctx, loc, buf.Bytes()); err != nil {
			return fmt.Errorf("put %s: %w", loc, err)
		}
	}
	return nil
}

// partLocation joins root, table, and part index into a destination URI.
func partLocation(root, table string, part int) string {
	return fmt.Sprintf("%s/%s/part-%05d.parquet", strings.TrimSuffix(root, "/"), table, part)
}
