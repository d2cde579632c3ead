package warehouse

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/relation"
)

// ErrUpstreamFailed marks a derivation that could not run because the
// relation it consumes never materialized (its read or cleanse stage failed).
var ErrUpstreamFailed = errors.New("upstream stage failed")

// ErrJoinPrecondition marks a violated join precondition: the weather
// relation carried duplicate (year, month, county) keys. The build recovers
// by collapsing duplicates keep-first; the error exists so the caller can
// surface the violation.
var ErrJoinPrecondition = errors.New("weather relation is not unique on join key")

// Problem records a non-fatal issue encountered during the build: a failed
// derivation or a violated join precondition. The build keeps going; the
// caller decides what to do with the problems.
type Problem struct {
	Derivation string
	Err        error
}

// WeatherJoinKey is the composite key the fact join matches weather rows on.
var WeatherJoinKey = []string{"year", "month", "county"}

// Build derives the five dimension tables and the fact table. Every
// derivation is independent and fault-isolated: a failure is recorded as a
// Problem and the corresponding table stays empty while the others still
// build. Passing a nil relation for a source marks the derivations that need
// it as upstream failures.
//
// Build also checks the fan-out precondition on the weather relation: when
// (year, month, county) is not unique, matching weather rows are collapsed
// keep-first so the fact row count still equals the sales row count, and the
// violation is reported as a Problem.
func Build(sales, holidays, weather *relation.Relation) (*Tables, []Problem) {
	t := &Tables{}
	var problems []Problem
	report := func(derivation string, err error) {
		problems = append(problems, Problem{Derivation: derivation, Err: err})
	}

	if sales == nil {
		for _, name := range TableNames {
			report(name, ErrUpstreamFailed)
		}
		return t, problems
	}

	if rows, err := buildItems(sales); err != nil {
		report("items", err)
	} else {
		t.Items = rows
	}
	if rows, err := buildVendors(sales); err != nil {
		report("vendors", err)
	} else {
		t.Vendors = rows
	}
	if rows, err := buildCounties(sales); err != nil {
		report("counties", err)
	} else {
		t.Counties = rows
	}
	if rows, err := buildStores(sales); err != nil {
		report("stores", err)
	} else {
		t.Stores = rows
	}

	if holidays == nil {
		report("time", ErrUpstreamFailed)
	} else if rows, err := buildTime(sales, holidays); err != nil {
		report("time", err)
	} else {
		t.Time = rows
	}

	if weather == nil {
		report("liquor_sales", ErrUpstreamFailed)
	} else {
		rows, dupKey, err := buildFacts(sales, weather)
		if err != nil {
			report("liquor_sales", err)
		} else {
			t.Facts = rows
			if dupKey {
				report("liquor_sales", fmt.Errorf("%w %v; duplicate keys collapsed keep-first", ErrJoinPrecondition, WeatherJoinKey))
			}
		}
	}

	return t, problems
}

func buildItems(sales *relation.Relation) ([]Item, error) {
	rel, err := relation.Project(sales, "item_number", "description", "category_name", "bottle_volume", "pack")
	if err != nil {
		return nil, err
	}
	rel = relation.Distinct(rel)
	out := make([]Item, len(rel.Rows))
	for i, row := range rel.Rows {
		out[i] = Item{
			ItemNumber:   asFloatPtr(row["item_number"]),
			Description:  asStringPtr(row["description"]),
			CategoryName: asStringPtr(row["category_name"]),
			BottleVolume: asInt32Ptr(row["bottle_volume"]),
			Pack:         asInt32Ptr(row["pack"]),
		}
	}
	return out, nil
}

func buildVendors(sales *relation.Relation) ([]Vendor, error) {
	rel, err := relation.Project(sales, "vendor_number", "vendor_name")
	if err != nil {
		return nil, err
	}
	rel = relation.Distinct(rel)
	out := make([]Vendor, len(rel.Rows))
	for i, row := range rel.Rows {
		out[i] = Vendor{
			VendorNumber: asFloatPtr(row["vendor_number"]),
			VendorName:   asStringPtr(row["vendor_name"]),
		}
	}
	return out, nil
}

func buildCounties(sales *relation.Relation) ([]County, error) {
	rel, err := relation.Project(sales, "county_number", "county")
	if err != nil {
		return nil, err
	}
	rel = relation.Distinct(rel)
	out := make([]County, len(rel.Rows))
	for i, row := range rel.Rows {
		out[i] = County{
			CountyNumber: asFloatPtr(row["county_number"]),
			County:       asStringPtr(row["county"]),
		}
	}
	return out, nil
}

func buildStores(sales *relation.Relation) ([]Store, error) {
	rel, err := relation.Project(sales, "store_number", "store_name", "address", "city", "zipcode", "latitude", "longitude")
	if err != nil {
		return nil, err
	}
	rel = relation.Distinct(rel)
	out := make([]Store, len(rel.Rows))
	for i, row := range rel.Rows {
		out[i] = Store{
			StoreNumber: asFloatPtr(row["store_number"]),
			StoreName:   asStringPtr(row["store_name"]),
			Address:     asStringPtr(row["address"]),
			City:        asStringPtr(row["city"]),
			Zipcode:     asInt32Ptr(row["zipcode"]),
			Latitude:    asStringPtr(row["latitude"]),
			Longitude:   asStringPtr(row["longitude"]),
		}
	}
	return out, nil
}

// buildTime produces one row per distinct sales date, left-joined against
// the holidays relation on exact date equality.
func buildTime(sales, holidays *relation.Relation) ([]TimeRow, error) {
	datesRel, err := relation.Project(sales, "sales_date")
	if err != nil {
		return nil, err
	}
	datesRel = relation.Distinct(datesRel)

	joined, err := relation.LeftJoin(datesRel, holidays,
		[]relation.JoinKey{{Left: "sales_date", Right: "date"}},
		"holiday_name",
	)
	if err != nil {
		return nil, err
	}

	out := make([]TimeRow, 0, len(joined.Rows))
	for _, row := range joined.Rows {
		d, ok := row["sales_date"].(time.Time)
		if !ok {
			// A null date carries no calendar parts; it contributes nothing
			// to the time dimension.
			continue
		}
		_, week := d.ISOWeek()
		name := asStringPtr(row["holiday_name"])
		out = append(out, TimeRow{
			SalesDate:   d,
			Day:         int32(d.Day()),
			Week:        int32(week),
			Month:       int32(d.Month()),
			Year:        int32(d.Year()),
			Weekday:     int32(d.Weekday()) + 1,
			IsHoliday:   name != nil,
			HolidayName: name,
		})
	}
	return out, nil
}

// buildFacts produces one fact row per cleansed sales row, enriched with
// climate_temp via the weather join. The second return reports whether the
// weather relation violated the unique-key precondition.
func buildFacts(sales, weather *relation.Relation) ([]SalesFact, bool, error) {
	dupKey := false
	if !relation.UniqueOn(weather, WeatherJoinKey...) {
		dupKey = true
		weather = relation.DistinctBy(weather, WeatherJoinKey...)
	}

	withYear, err := relation.AddColumn(sales,
		relation.Column{Name: "sales_year", Type: relation.Int, Nullable: true},
		func(row relation.Row) any {
			if d, ok := row["sales_date"].(time.Time); ok {
				return d.Year()
			}
			return nil
		})
	if err != nil {
		return nil, dupKey, err
	}
	withMonth, err := relation.AddColumn(withYear,
		relation.Column{Name: "sales_month", Type: relation.Int, Nullable: true},
		func(row relation.Row) any {
			if d, ok := row["sales_date"].(time.Time); ok {
				return int(d.Month())
			}
			return nil
		})
	if err != nil {
		return nil, dupKey, err
	}

	joined, err := relation.LeftJoin(withMonth, weather,
		[]relation.JoinKey{
			{Left: "sales_year", Right: "year"},
			{Left: "sales_month", Right: "month"},
			{Left: "county", Right: "county"},
		},
		"climate_temp",
	)
	if err != nil {
		return nil, dupKey, err
	}

	out := make([]SalesFact, len(joined.Rows))
	for i, row := range joined.Rows {
		out[i] = SalesFact{
			InvoiceNumber:    asStringPtr(row["invoice_number"]),
			SalesDate:        asTimePtr(row["sales_date"]),
			StoreNumber:      asFloatPtr(row["store_number"]),
			CountyNumber:     asFloatPtr(row["county_number"]),
			ItemNumber:       asFloatPtr(row["item_number"]),
			VendorNumber:     asFloatPtr(row["vendor_number"]),
			BottlesSold:      asInt32Ptr(row["bottles_sold"]),
			VolumeSoldLitres: asFloatPtr(row["volume_sold_litres"]),
			ItemCostPrice:    asFloatPtr(row["item_cost_price"]),
			ItemRetailPrice:  asFloatPtr(row["item_retail_price"]),
			SalesUSD:         asFloatPtr(row["sales_usd"]),
			ClimateTemp:      asFloatPtr(row["climate_temp"]),
		}
	}
	return out, dupKey, nil
}

func asStringPtr(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func asFloatPtr(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	}
	return nil
}

func asInt32Ptr(v any) *int32 {
	switch t := v.(type) {
	case int:
		n := int32(t)
		return &n
	case float64:
		n := int32(t)
		return &n
	}
	return nil
}

func asTimePtr(v any) *time.Time {
	if t, ok := v.(time.Time); ok {
		return &t
	}
	return nil
}
