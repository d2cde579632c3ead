// Package warehouse derives the dimensional model from the three cleansed
// staging relations and defines the typed rows of the six published tables.
// The row structs double as the sink schema: a column added or renamed here
// changes the Parquet and Postgres output in one place, checked at compile
// time.
package warehouse

import "time"

// Item is one row of the items dimension, keyed by item_number.
type Item struct {
	ItemNumber   *float64 `parquet:"item_number,optional"`
	Description  *string  `parquet:"description,optional"`
	CategoryName *string  `parquet:"category_name,optional"`
	BottleVolume *int32   `parquet:"bottle_volume,optional"`
	Pack         *int32   `parquet:"pack,optional"`
}

// Vendor is one row of the vendors dimension.
type Vendor struct {
	VendorNumber *float64 `parquet:"vendor_number,optional"`
	VendorName   *string  `parquet:"vendor_name,optional"`
}

// County is one row of the counties dimension.
type County struct {
	CountyNumber *float64 `parquet:"county_number,optional"`
	County       *string  `parquet:"county,optional"`
}

// Store is one row of the stores dimension. Latitude and longitude come from
// the geo split of store_location and stay textual, as landed.
type Store struct {
	StoreNumber *float64 `parquet:"store_number,optional"`
	StoreName   *string  `parquet:"store_name,optional"`
	Address     *string  `parquet:"address,optional"`
	City        *string  `parquet:"city,optional"`
	Zipcode     *int32   `parquet:"zipcode,optional"`
	Latitude    *string  `parquet:"latitude,optional"`
	Longitude   *string  `parquet:"longitude,optional"`
}

// TimeRow is one row of the time dimension: one per distinct sales date.
// Weekday is 1=Sunday through 7=Saturday; Week is the ISO week of year.
type TimeRow struct {
	SalesDate   time.Time `parquet:"sales_date"`
	Day         int32     `parquet:"day"`
	Week        int32     `parquet:"week"`
	Month       int32     `parquet:"month"`
	Year        int32     `parquet:"year"`
	Weekday     int32     `parquet:"weekday"`
	IsHoliday   bool      `parquet:"is_holiday"`
	HolidayName *string   `parquet:"holiday_name,optional"`
}

// SalesFact is one row of the liquor_sales fact table: one per staging sales
// record, enriched with the monthly regional climate temperature when a
// weather row matches on (year, month, county).
type SalesFact struct {
	InvoiceNumber    *string    `parquet:"invoice_number,optional"`
	SalesDate        *time.Time `parquet:"sales_date,optional"`
	StoreNumber      *float64   `parquet:"store_number,optional"`
	CountyNumber     *float64   `parquet:"county_number,optional"`
	ItemNumber       *float64   `parquet:"item_number,optional"`
	VendorNumber     *float64   `parquet:"vendor_number,optional"`
	BottlesSold      *int32     `parquet:"bottles_sold,optional"`
	VolumeSoldLitres *float64   `parquet:"volume_sold_litres,optional"`
	ItemCostPrice    *float64   `parquet:"item_cost_price,optional"`
	ItemRetailPrice  *float64   `parquet:"item_retail_price,optional"`
	SalesUSD         *float64   `parquet:"sales_usd,optional"`
	ClimateTemp      *float64   `parquet:"climate_temp,optional"`
}

// Tables holds the five dimensions and the fact table of one pipeline run.
type Tables struct {
	Items    []Item
	Vendors  []Vendor
	Counties []County
	Stores   []Store
	Time     []TimeRow
	Facts    []SalesFact
}

// TableNames lists the published tables in write order.
var TableNames = []string{"items", "vendors", "counties", "stores", "time", "liquor_sales"}

// Counts returns the row count per table, keyed by table name.
func (t *Tables) Counts() map[string]int {
	if t == nil {
		return map[string]int{}
	}
	return map[string]int{
		"items":        len(t.Items),
		"vendors":      len(t.Vendors),
		"counties":     len(t.Counties),
		"stores":       len(t.Stores),
		"time":         len(t.Time),
		"liquor_sales": len(t.Facts),
	}
}
