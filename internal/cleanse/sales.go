package cleanse

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/relation"
)

// SalesDateFormat is the date pattern of the headerless sales extract.
const SalesDateFormat = "d/M/y"

// SalesSchema declares the 24 columns of the headerless liquor sales extract,
// in file order. invoice_number is the only non-nullable column; the reader
// does not enforce that, the quality gate does.
func SalesSchema() *relation.Schema {
	return &relation.Schema{Columns: []relation.Column{
		{Name: "invoice_number", Type: relation.String, Nullable: false},
		{Name: "sales_date", Type: relation.Date, Nullable: true},
		{Name: "store_number", Type: relation.Float, Nullable: true},
		{Name: "store_name", Type: relation.String, Nullable: true},
		{Name: "address", Type: relation.String, Nullable: true},
		{Name: "city", Type: relation.String, Nullable: true},
		{Name: "zipcode", Type: relation.Int, Nullable: true},
		{Name: "store_location", Type: relation.String, Nullable: true},
		{Name: "county_number", Type: relation.Float, Nullable: true},
		{Name: "county", Type: relation.String, Nullable: true},
		{Name: "category", Type: relation.Float, Nullable: true},
		{Name: "category_name", Type: relation.String, Nullable: true},
		{Name: "vendor_number", Type: relation.Float, Nullable: true},
		{Name: "vendor_name", Type: relation.String, Nullable: true},
		{Name: "item_number", Type: relation.Float, Nullable: true},
		{Name: "description", Type: relation.String, Nullable: true},
		{Name: "pack", Type: relation.Int, Nullable: true},
		{Name: "bottle_volume", Type: relation.Int, Nullable: true},
		{Name: "item_cost_price", Type: relation.Decimal, Nullable: true},
		{Name: "item_retail_price", Type: relation.Decimal, Nullable: true},
		{Name: "bottles_sold", Type: relation.Int, Nullable: true},
		{Name: "sales_usd", Type: relation.Decimal, Nullable: true},
		{Name: "volume_sold_litres", Type: relation.Decimal, Nullable: true},
		{Name: "volume_sold_gallons", Type: relation.Decimal, Nullable: true},
	}}
}

// categoryFixes maps the seven known-misspelled category labels to their
// canonical form. Matching is exact and case-sensitive; anything else passes
// through unchanged.
var categoryFixes = map[string]string{
	"Cocktails /RTD":                       "Cocktails / RTD",
	"American Cordials & Liqueur":          "American Cordials & Liqueurs",
	"American Vodkas":                      "American Vodka",
	"Imported Cordials & Liqueur":          "Imported Cordials & Liqueurs",
	"Imported Distilled Spirits Specialty": "Imported Distilled Spirit Specialty",
	"Imported Vodkas":                      "Imported Vodka",
	"Temporary &  Specialty Packages":      "Temporary & Specialty Packages",
}

// Sales returns the cleansing chain for the liquor sales source: geo split,
// category label repair, county casing.
func Sales() Chain {
	return Chain{
		Stage: "sales",
		Rules: []Rule{
			geoSplit{},
			categoryFix{},
			countyTitleCase{},
		},
	}
}

// geoSplit derives latitude and longitude columns from store_location, a
// string of the form "ADDRESS (LAT LONG)". The first token inside the
// parentheses is the latitude and the second the longitude; the upstream
// pipeline assigned these the other way around, which put latitudes in the
// longitude column for this data shape. Rows without a parseable location get
// nil in both columns.
type geoSplit struct{}

func (geoSplit) Name() string { return "split store_location into latitude/longitude" }

func (geoSplit) Apply(r *relation.Relation) (*relation.Relation, error) {
	lat := func(row relation.Row) any {
		a, _, ok := parseGeo(row["store_location"])
		if !ok {
			return nil
		}
		return a
	}
	long := func(row relation.Row) any {
		_, o, ok := parseGeo(row["store_location"])
		if !ok {
			return nil
		}
		return o
	}
	out, err := relation.AddColumn(r, relation.Column{Name: "latitude", Type: relation.String, Nullable: true}, lat)
	if err != nil {
		return nil, err
	}
	return relation.AddColumn(out, relation.Column{Name: "longitude", Type: relation.String, Nullable: true}, long)
}

// parseGeo extracts the "(LAT LONG)" suffix of a store location value.
func parseGeo(v any) (lat, long string, ok bool) {
	s, isStr := v.(string)
	if !isStr {
		return "", "", false
	}
	open := strings.LastIndexByte(s, '(')
	if open < 0 {
		return "", "", false
	}
	inner := strings.TrimSuffix(strings.TrimSpace(s[open+1:]), ")")
	fields := strings.Fields(inner)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

// categoryFix canonicalizes the known-bad category_name labels.
type categoryFix struct{}

func (categoryFix) Name() string { return "fix category_name labels" }

func (categoryFix) Apply(r *relation.Relation) (*relation.Relation, error) {
	return mapColumn(r, "category_name", func(v any) any {
		if s, ok := v.(string); ok {
			if fixed, hit := categoryFixes[s]; hit {
				return fixed
			}
		}
		return v
	})
}

// countyTitleCase normalizes county names to title case ("POLK" -> "Polk").
type countyTitleCase struct{}

func (countyTitleCase) Name() string { return "title-case county" }

func (countyTitleCase) Apply(r *relation.Relation) (*relation.Relation, error) {
	caser := cases.Title(language.English)
	return mapColumn(r, "county", func(v any) any {
		if s, ok := v.(string); ok {
			return caser.String(s)
		}
		return v
	})
}
