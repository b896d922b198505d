package dataset

import (
	"math"
	"testing"
)

func TestSanitizeNameReplacesInvalidCharacters(t *testing.T) {
	got := SanitizeName("Order#Value")
	if got != "Order_Value" {
		t.Fatalf("SanitizeName() = %q, want %q", got, "Order_Value")
	}
}

func TestSanitizeNameIsIdempotent(t *testing.T) {
	names := []string{"Order Value", "Order#Value", "order_value", "日付", ""}
	for _, name := range names {
		once := SanitizeName(name)
		twice := SanitizeName(once)
		if once != twice {
			t.Fatalf("SanitizeName(%q) not idempotent: %q -> %q", name, once, twice)
		}
	}
}

func TestSanitizeResolvesCollisionsWithSuffixes(t *testing.T) {
	ds := &Dataset{Columns: []string{"Order Value", "Order#Value", "Order_Value"}}
	sanitized := ds.Sanitize()

	want := []string{"Order_Value", "Order_Value_2", "Order_Value_3"}
	for i, name := range want {
		if sanitized.Columns[i] != name {
			t.Fatalf("Columns[%d] = %q, want %q", i, sanitized.Columns[i], name)
		}
	}
	if sanitized.OriginalName("Order_Value_2") != "Order#Value" {
		t.Fatalf("OriginalName = %q", sanitized.OriginalName("Order_Value_2"))
	}
}

func TestSanitizeSkipsSuffixesAlreadyTaken(t *testing.T) {
	ds := &Dataset{Columns: []string{"x", "x_2", "x"}}
	sanitized := ds.Sanitize()

	want := []string{"x", "x_2", "x_3"}
	for i, name := range want {
		if sanitized.Columns[i] != name {
			t.Fatalf("Columns[%d] = %q, want %q (all: %v)", i, sanitized.Columns[i], name, sanitized.Columns)
		}
	}
	unique := make(map[string]bool, len(sanitized.Columns))
	for _, name := range sanitized.Columns {
		if unique[name] {
			t.Fatalf("duplicate sanitized column %q in %v", name, sanitized.Columns)
		}
		unique[name] = true
	}
	if sanitized.OriginalName("x_3") != "x" {
		t.Fatalf("OriginalName = %q", sanitized.OriginalName("x_3"))
	}
}

func TestSanitizeEmptyColumnName(t *testing.T) {
	ds := &Dataset{Columns: []string{"", "#"}}
	sanitized := ds.Sanitize()
	if sanitized.Columns[0] != "col" {
		t.Fatalf("Columns[0] = %q", sanitized.Columns[0])
	}
	if sanitized.Columns[1] != "_" {
		t.Fatalf("Columns[1] = %q", sanitized.Columns[1])
	}
}

func TestNormalizeNonFinite(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"v"},
		Rows: [][]any{
			{math.NaN()},
			{math.Inf(1)},
			{math.Inf(-1)},
			{float64(3.5)},
			{"text"},
		},
	}
	ds.NormalizeNonFinite()

	for i := 0; i < 3; i++ {
		if ds.Rows[i][0] != nil {
			t.Fatalf("Rows[%d][0] = %#v, want nil", i, ds.Rows[i][0])
		}
	}
	if ds.Rows[3][0] != float64(3.5) {
		t.Fatalf("Rows[3][0] = %#v", ds.Rows[3][0])
	}
	if ds.Rows[4][0] != "text" {
		t.Fatalf("Rows[4][0] = %#v", ds.Rows[4][0])
	}
}

func TestSchemaContextTakesLeadingRows(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"Country", "Order_Value"},
		Rows: [][]any{
			{"USA", float64(100)},
			{"Germany", float64(200)},
			{"France", float64(300)},
			{"Spain", float64(400)},
		},
	}
	sctx := ds.SchemaContext(3)
	if len(sctx.SampleRows) != 3 {
		t.Fatalf("sample rows = %d, want 3", len(sctx.SampleRows))
	}
	if sctx.SampleRows[0]["Country"] != "USA" {
		t.Fatalf("sample[0][Country] = %#v", sctx.SampleRows[0]["Country"])
	}
	if len(sctx.Columns) != 2 {
		t.Fatalf("columns = %v", sctx.Columns)
	}
}

func TestSchemaContextShortDataset(t *testing.T) {
	ds := &Dataset{Columns: []string{"a"}, Rows: [][]any{{float64(1)}}}
	sctx := ds.SchemaContext(3)
	if len(sctx.SampleRows) != 1 {
		t.Fatalf("sample rows = %d, want 1", len(sctx.SampleRows))
	}
}
