// Package postgres implements the optional relational sink using pgx v5.
// Each run is a full refresh: the table is created if missing, truncated,
// and reloaded through COPY. The relational copy exists for warehouses that
// want SQL access next to the Parquet datasets; it carries the exact same
// six tables.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/sink"
	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/warehouse"
)

// Config holds the relational sink configuration.
type Config struct {
	DSN    string // pgxpool connection string
	Schema string // target schema; "public" when empty
}

// Writer is a Postgres-backed sink.Writer.
type Writer struct {
	pool   *pgxpool.Pool
	schema string
}

// New connects the pool and returns the writer plus a close function.
func New(ctx context.Context, cfg Config) (*Writer, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	return &Writer{pool: pool, schema: schema}, pool.Close, nil
}

// tableDDL maps each warehouse table to its column DDL, in COPY order.
var tableDDL = map[string][]string{
	"items": {
		"item_number double precision", "description text", "category_name text",
		"bottle_volume integer", "pack integer",
	},
	"vendors": {"vendor_number double precision", "vendor_name text"},
	"counties": {"county_number double precision", "county text"},
	"stores": {
		"store_number double precision", "store_name text", "address text",
		"city text", "zipcode integer", "latitude text", "longitude text",
	},
	"time": {
		"sales_date date", "day integer", "week integer", "month integer",
		"year integer", "weekday integer", "is_holiday boolean", "holiday_name text",
	},
	"liquor_sales": {
		"invoice_number text", "sales_date date", "store_number double precision",
		"county_number double precision", "item_number double precision",
		"vendor_number double precision", "bottles_sold integer",
		"volume_sold_litres numeric(10,2)", "item_cost_price numeric(10,2)",
		"item_retail_price numeric(10,2)", "sales_usd numeric(10,2)",
		"climate_temp double precision",
	},
}

// Write publishes every table, fault-isolated per table.
func (w *Writer) Write(ctx context.Context, t *warehouse.Tables) []sink.TableError {
	var errs []sink.TableError
	report := func(table string, err error) {
		if err != nil {
			errs = append(errs, sink.TableError{Table: table, Err: err})
		}
	}

	report("items", w.load(ctx, "items", itemRows(t.Items)))
	report("vendors", w.load(ctx, "vendors", vendorRows(t.Vendors)))
	report("counties", w.load(ctx, "counties", countyRows(t.Counties)))
	report("stores", w.load(ctx, "stores", storeRows(t.Stores)))
	report("time", w.load(ctx, "time", timeRows(t.Time)))
	report("liquor_sales", w.load(ctx, "liquor_sales", factRows(t.Facts)))

	return errs
}

// load performs the create-truncate-copy cycle for one table.
func (w *Writer) load(ctx context.Context, table string, rows [][]any) error {
	ddl := tableDDL[table]
	cols := make([]string, len(ddl))
	for i, d := range ddl {
		cols[i] = strings.Fields(d)[0]
	}
	fqn := pgIdent(w.schema) + "." + pgIdent(table)

	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", fqn, strings.Join(ddl, ", "))
	if _, err := conn.Exec(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	if _, err := conn.Exec(ctx, "TRUNCATE "+fqn); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	if _, err := conn.Conn().CopyFrom(ctx,
		pgx.Identifier{w.schema, table}, cols, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy %s: %w", table, err)
	}
	return nil
}

// pgIdent quotes an identifier for safe interpolation into DDL.
func pgIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func itemRows(in []warehouse.Item) [][]any {
	out := make([][]any, len(in))
	for i, r := range in {
		out[i] = []any{r.ItemNumber, r.Description, r.CategoryName, r.BottleVolume, r.Pack}
	}
	return out
}

func vendorRows(in []warehouse.Vendor) [][]any {
	out := make([][]any, len(in))
	for i, r := range in {
		out[i] = []any{r.VendorNumber, r.VendorName}
	}
	return out
}

func countyRows(in []warehouse.County) [][]any {
	out := make([][]any, len(in))
	for i, r := range in {
		out[i] = []any{r.CountyNumber, r.County}
	}
	return out
}

func storeRows(in []warehouse.Store) [][]any {
	out := make([][]any, len(in))
	for i, r := range in {
		out[i] = []any{r.StoreNumber, r.StoreName, r.Address, r.City, r.Zipcode, r.Latitude, r.Longitude}
	}
	return out
}

func timeRows(in []warehouse.TimeRow) [][]any {
	out := make([][]any, len(in))
	for i, r := range in {
		out[i] = []any{r.SalesDate, r.Day, r.Week, r.Month, r.Year, r.Weekday, r.IsHoliday, r.HolidayName}
	}
	return out
}

func factRows(in []warehouse.SalesFact) [][]any {
	out := make([][]any, len(in))
	for i, r := range in {
		out[i] = []any{
			r.InvoiceNumber, r.SalesDate, r.StoreNumber, r.CountyNumber,
			r.ItemNumber, r.VendorNumber, r.BottlesSold, r.VolumeSoldLitres,
			r.ItemCostPrice, r.ItemRetailPrice, r.SalesUSD, r.ClimateTemp,
		}
	}
	return out
}
