package quality

import (
	"testing"

	"github.com/Sarwan-S/udacity-nanodegree-capstone/internal/warehouse"
)

func fullTables() *warehouse.Tables {
	inv := "INV-1"
	return &warehouse.Tables{
		Items:    []warehouse.Item{{}},
		Vendors:  []warehouse.Vendor{{}},
		Counties: []warehouse.County{{}},
		Stores:   []warehouse.Store{{}},
		Time:     []warehouse.TimeRow{{}},
		Facts:    []warehouse.SalesFact{{InvoiceNumber: &inv}},
	}
}

func TestCheckCleanRun(t *testing.T) {
	if findings := Check(fullTables()); len(findings) != 0 {
		t.Errorf("Check() = %v, want no findings", findings)
	}
}

func TestCheckEmptyTables(t *testing.T) {
	findings := Check(&warehouse.Tables{})
	if len(findings) != len(warehouse.TableNames) {
		t.Fatalf("findings = %d, want %d (one per empty table)", len(findings), len(warehouse.TableNames))
	}
	for i, f := range findings {
		if f.Check != CheckNonEmpty {
			t.Errorf("finding %d check = %q, want %q", i, f.Check, CheckNonEmpty)
		}
		if f.Table != warehouse.TableNames[i] {
			t.Errorf("finding %d table = %q, want %q", i, f.Table, warehouse.TableNames[i])
		}
	}
}

func TestCheckNullInvoiceNumber(t *testing.T) {
	tables := fullTables()
	tables.Facts = append(tables.Facts, warehouse.SalesFact{}, warehouse.SalesFact{})

	findings := Check(tables)
	// Several null keys still produce exactly one finding.
	if len(findings) != 1 {
		t.Fatalf("findings = %v, want exactly one", findings)
	}
	f := findings[0]
	if f.Table != "liquor_sales" || f.Check != CheckNullKey {
		t.Errorf("finding = %+v, want null_key on liquor_sales", f)
	}
	if f.Message != "null records detected in invoice_number field of liquor_sales table" {
		t.Errorf("message = %q", f.Message)
	}
}
