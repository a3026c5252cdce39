package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/batmanuel-sandbox/refcat/internal/catalog"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadInfersColumnTypes(t *testing.T) {
	path := writeCSV(t, "RA,DEC,src_id,g,obs_code\n10.5,-3.25,100,17.5,X05\n11.0,2.0,101,18.25,G96\n")

	tbl, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tbl.Len())
	}
	want := map[string]catalog.FieldType{
		"RA":       catalog.Float64,
		"DEC":      catalog.Float64,
		"src_id":   catalog.Int64,
		"g":        catalog.Float64,
		"obs_code": catalog.String,
	}
	for _, col := range tbl.Columns() {
		if col.Type != want[col.Name] {
			t.Errorf("column %q inferred as %s, want %s", col.Name, col.Type, want[col.Name])
		}
	}
	for _, col := range tbl.Columns() {
		if col.Name == "obs_code" && col.Width != 3 {
			t.Errorf("obs_code width = %d, want 3", col.Width)
		}
	}
}

func TestReadRowAccess(t *testing.T) {
	path := writeCSV(t, "RA,src_id,flag,obs_code\n10.5,100,1,X05\n")

	tbl, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	row := tbl.Row(0)

	if ra, err := row.Float64("RA"); err != nil || ra != 10.5 {
		t.Errorf("Float64(RA) = %v, %v", ra, err)
	}
	if id, err := row.Int64("src_id"); err != nil || id != 100 {
		t.Errorf("Int64(src_id) = %v, %v", id, err)
	}
	// Int columns promote to float on request.
	if f, err := row.Float64("src_id"); err != nil || f != 100.0 {
		t.Errorf("Float64(src_id) = %v, %v", f, err)
	}
	if b, err := row.Bool("flag"); err != nil || !b {
		t.Errorf("Bool(flag) = %v, %v", b, err)
	}
	if v, err := row.Value("obs_code"); err != nil || v != "X05" {
		t.Errorf("Value(obs_code) = %v, %v", v, err)
	}
	if _, err := row.Float64("missing"); err == nil {
		t.Error("Float64(missing) should fail")
	}
	if _, err := row.Float64("obs_code"); err == nil {
		t.Error("Float64 on a string column should fail")
	}
}

func TestFloat64Column(t *testing.T) {
	path := writeCSV(t, "RA,DEC\n10.5,-3.25\n11.0,2.0\n")

	tbl, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	ra, err := tbl.Float64Column("RA")
	if err != nil {
		t.Fatalf("Float64Column: %v", err)
	}
	if len(ra) != 2 || ra[0] != 10.5 || ra[1] != 11.0 {
		t.Errorf("RA column = %v", ra)
	}
	if _, err := tbl.Float64Column("nope"); err == nil {
		t.Error("missing column should fail")
	}
}

func TestReadErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
	}{
		{"Empty", ""},
		{"RaggedRow", "RA,DEC\n10.5\n"},
		{"DuplicateColumn", "RA,RA\n1,2\n"},
		{"EmptyColumnName", "RA,\n1,2\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := writeCSV(t, tc.content)
			_, err := Read(path)
			var re *ReadError
			if !errors.As(err, &re) {
				t.Fatalf("Read = %v, want *ReadError", err)
			}
			if re.File != path {
				t.Errorf("ReadError.File = %q, want %q", re.File, path)
			}
		})
	}

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Read(filepath.Join(t.TempDir(), "absent.csv"))
		var re *ReadError
		if !errors.As(err, &re) {
			t.Fatalf("Read = %v, want *ReadError", err)
		}
	})
}

func TestReadHeaderOnly(t *testing.T) {
	path := writeCSV(t, "RA,DEC\n")
	tbl, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if tbl.Len() != 0 {
		t.Errorf("Len = %d, want 0", tbl.Len())
	}
	// With no data rows every column falls back to string.
	for _, col := range tbl.Columns() {
		if col.Type != catalog.String {
			t.Errorf("column %q = %s, want string", col.Name, col.Type)
		}
	}
}
