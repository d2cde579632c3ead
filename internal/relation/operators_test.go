package relation

import (
	"reflect"
	"testing"
	"time"
)

func testRelation() *Relation {
	return &Relation{
		Schema: Schema{Columns: []Column{
			{Name: "item_number", Type: String},
			{Name: "item_description", Type: String},
			{Name: "pack", Type: Int},
		}},
		Rows: []Row{
			{"item_number": "100", "item_description": "Whiskey", "pack": 6},
			{"item_number": "100", "item_description": "Whiskey", "pack": 6},
			{"item_number": "200", "item_description": "Vodka", "pack": 12},
		},
	}
}

func TestProject(t *testing.T) {
	r := testRelation()
	got, err := Project(r, "item_number", "item_description")
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if len(got.Rows) != 3 {
		t.Errorf("Project() rows = %d, want 3", len(got.Rows))
	}
	wantNames := []string{"item_number", "item_description"}
	if !reflect.DeepEqual(got.Schema.Names(), wantNames) {
		t.Errorf("Project() schema = %v, want %v", got.Schema.Names(), wantNames)
	}
	for i, row := range got.Rows {
		if _, ok := row["pack"]; ok {
			t.Errorf("Project() row %d still carries dropped column pack", i)
		}
	}
}

func TestProjectUnknownColumn(t *testing.T) {
	if _, err := Project(testRelation(), "item_number", "vendor_number"); err == nil {
		t.Error("Project() with unknown column: expected error, got nil")
	}
}

func TestDistinct(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
		want int
	}{
		{
			name: "duplicates collapse",
			rows: []Row{
				{"item_number": "100", "item_description": "Whiskey", "pack": 6},
				{"item_number": "100", "item_description": "Whiskey", "pack": 6},
				{"item_number": "200", "item_description": "Vodka", "pack": 12},
			},
			want: 2,
		},
		{
			name: "nil and empty string are distinct",
			rows: []Row{
				{"item_number": "", "item_description": "x", "pack": 1},
				{"item_number": nil, "item_description": "x", "pack": 1},
			},
			want: 2,
		},
		{
			name: "empty input",
			rows: nil,
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRelation()
			r.Rows = tt.rows
			got := Distinct(r)
			if len(got.Rows) != tt.want {
				t.Errorf("Distinct() rows = %d, want %d", len(got.Rows), tt.want)
			}
		})
	}
}

func TestDistinctByKeepsFirst(t *testing.T) {
	r := &Relation{
		Schema: Schema{Columns: []Column{
			{Name: "county", Type: String},
			{Name: "climate_temp", Type: Float},
		}},
		Rows: []Row{
			{"county": "Polk", "climate_temp": 21.0},
			{"county": "Polk", "climate_temp": 30.0},
			{"county": "Linn", "climate_temp": 18.0},
		},
	}
	got := DistinctBy(r, "county")
	want := []Row{
		{"county": "Polk", "climate_temp": 21.0},
		{"county": "Linn", "climate_temp": 18.0},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("DistinctBy() rows = %v, want %v", got.Rows, want)
	}
}

func TestUniqueOn(t *testing.T) {
	r := &Relation{
		Schema: Schema{Columns: []Column{
			{Name: "year", Type: Int},
			{Name: "month", Type: Int},
			{Name: "county", Type: String},
		}},
		Rows: []Row{
			{"year": 2017, "month": 1, "county": "Polk"},
			{"year": 2017, "month": 2, "county": "Polk"},
		},
	}
	if !UniqueOn(r, "year", "month", "county") {
		t.Error("UniqueOn() = false for unique keys, want true")
	}
	r.Rows = append(r.Rows, Row{"year": 2017, "month": 1, "county": "Polk"})
	if UniqueOn(r, "year", "month", "county") {
		t.Error("UniqueOn() = true for duplicated key, want false")
	}
}

func TestLeftJoin(t *testing.T) {
	dates := &Relation{
		Schema: Schema{Columns: []Column{{Name: "sales_date", Type: Date}}},
		Rows: []Row{
			{"sales_date": time.Date(2017, 1, 2, 0, 0, 0, 0, time.UTC)},
			{"sales_date": time.Date(2017, 1, 3, 0, 0, 0, 0, time.UTC)},
		},
	}
	holidays := &Relation{
		Schema: Schema{Columns: []Column{
			{Name: "date", Type: Date},
			{Name: "holiday_name", Type: String},
		}},
		Rows: []Row{
			{"date": time.Date(2017, 1, 2, 0, 0, 0, 0, time.UTC), "holiday_name": "New Year's Day"},
		},
	}

	got, err := LeftJoin(dates, holidays, []JoinKey{{Left: "sales_date", Right: "date"}}, "holiday_name")
	if err != nil {
		t.Fatalf("LeftJoin() error = %v", err)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("LeftJoin() rows = %d, want 2", len(got.Rows))
	}
	if got.Rows[0]["holiday_name"] != "New Year's Day" {
		t.Errorf("matched row holiday_name = %v, want New Year's Day", got.Rows[0]["holiday_name"])
	}
	if got.Rows[1]["holiday_name"] != nil {
		t.Errorf("unmatched row holiday_name = %v, want nil", got.Rows[1]["holiday_name"])
	}
	c, ok := got.Schema.Col("holiday_name")
	if !ok || !c.Nullable {
		t.Errorf("taken column = %+v, want nullable holiday_name", c)
	}
}

func TestLeftJoinMultiMatchFansOut(t *testing.T) {
	left := &Relation{
		Schema: Schema{Columns: []Column{{Name: "county", Type: String}}},
		Rows:   []Row{{"county": "Polk"}},
	}
	right := &Relation{
		Schema: Schema{Columns: []Column{
			{Name: "county", Type: String},
			{Name: "climate_temp", Type: Float},
		}},
		Rows: []Row{
			{"county": "Polk", "climate_temp": 21.0},
			{"county": "Polk", "climate_temp": 30.0},
		},
	}
	got, err := LeftJoin(left, right, []JoinKey{{Left: "county", Right: "county"}}, "climate_temp")
	if err != nil {
		t.Fatalf("LeftJoin() error = %v", err)
	}
	if len(got.Rows) != 2 {
		t.Errorf("LeftJoin() with duplicate right key: rows = %d, want 2", len(got.Rows))
	}
}

func TestLeftJoinTakeCollision(t *testing.T) {
	left := &Relation{
		Schema: Schema{Columns: []Column{{Name: "county", Type: String}}},
	}
	right := &Relation{
		Schema: Schema{Columns: []Column{{Name: "county", Type: String}}},
	}
	if _, err := LeftJoin(left, right, []JoinKey{{Left: "county", Right: "county"}}, "county"); err == nil {
		t.Error("LeftJoin() taking a colliding column: expected error, got nil")
	}
}

func TestAddColumn(t *testing.T) {
	r := &Relation{
		Schema: Schema{Columns: []Column{{Name: "sales_date", Type: Date}}},
		Rows: []Row{
			{"sales_date": time.Date(2017, 3, 15, 0, 0, 0, 0, time.UTC)},
		},
	}
	got, err := AddColumn(r, Column{Name: "sales_year", Type: Int}, func(row Row) any {
		return int32(row["sales_date"].(time.Time).Year())
	})
	if err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	if got.Rows[0]["sales_year"] != int32(2017) {
		t.Errorf("sales_year = %v, want 2017", got.Rows[0]["sales_year"])
	}
	if _, ok := r.Rows[0]["sales_year"]; ok {
		t.Error("AddColumn() mutated the input relation")
	}
	if _, err := AddColumn(got, Column{Name: "sales_year", Type: Int}, func(Row) any { return nil }); err == nil {
		t.Error("AddColumn() with existing name: expected error, got nil")
	}
}

func TestRename(t *testing.T) {
	r := &Relation{
		Schema: Schema{Columns: []Column{{Name: "Date", Type: String}}},
		Rows:   []Row{{"Date": "02/01/17"}},
	}
	got, err := r.Rename("Date", "date")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if !got.Schema.Has("date") || got.Schema.Has("Date") {
		t.Errorf("Rename() schema = %v, want [date]", got.Schema.Names())
	}
	if got.Rows[0]["date"] != "02/01/17" {
		t.Errorf("renamed row value = %v, want 02/01/17", got.Rows[0]["date"])
	}
	if !r.Schema.Has("Date") {
		t.Error("Rename() mutated the input schema")
	}
	if _, err := r.Rename("Holiday", "holiday_name"); err == nil {
		t.Error("Rename() of missing column: expected error, got nil")
	}
}
