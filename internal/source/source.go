// Package source reads flat input catalogs into row-oriented tables with
// typed columns. The only supported format is CSV with a header row; column
// element types are inferred from the observed values.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/batmanuel-sandbox/refcat/internal/catalog"
)

// ReadError reports an unreadable or malformed input file.
type ReadError struct {
	File string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.File, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Column describes one input column: its name, the inferred element type,
// and the maximum observed width for fixed-width text columns.
type Column struct {
	Name  string
	Type  catalog.FieldType
	Width int
}

// Table is an in-memory row-oriented view of one input file. Values are
// stored in canonical Go types (int64, float64 or string) per the inferred
// column type.
type Table struct {
	cols   []Column
	index  map[string]int
	values [][]any // values[row][col]
}

// Read parses the CSV file at path and infers a type for every column.
// Integer columns become int64, other numeric columns float64, and anything
// else a fixed-width string. Malformed input yields a *ReadError.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{File: path, Err: err}
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, &ReadError{File: path, Err: err}
	}
	if len(rows) == 0 {
		return nil, &ReadError{File: path, Err: errors.New("missing header row")}
	}

	header := rows[0]
	data := rows[1:]
	t := &Table{
		cols:  make([]Column, len(header)),
		index: make(map[string]int, len(header)),
	}
	for i, name := range header {
		if name == "" {
			return nil, &ReadError{File: path, Err: fmt.Errorf("column %d has an empty name", i)}
		}
		if _, ok := t.index[name]; ok {
			return nil, &ReadError{File: path, Err: fmt.Errorf("duplicate column %q", name)}
		}
		t.index[name] = i
		t.cols[i] = inferColumn(name, data, i)
	}

	t.values = make([][]any, len(data))
	for r, raw := range data {
		t.values[r] = make([]any, len(header))
		for c := range header {
			v, err := parseCell(raw[c], t.cols[c].Type)
			if err != nil {
				return nil, &ReadError{File: path, Err: fmt.Errorf("row %d column %q: %w", r+1, header[c], err)}
			}
			t.values[r][c] = v
		}
	}
	return t, nil
}

// inferColumn picks the narrowest type that admits every value in the
// column: int64, then float64, then fixed-width string.
func inferColumn(name string, data [][]string, col int) Column {
	isInt, isFloat := true, true
	width := 0
	for _, row := range data {
		cell := row[col]
		if isInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
		}
		if !isInt && isFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isFloat = false
			}
		}
		if w := utf8.RuneCountInString(cell); w > width {
			width = w
		}
	}
	switch {
	case len(data) > 0 && isInt:
		return Column{Name: name, Type: catalog.Int64}
	case len(data) > 0 && isFloat:
		return Column{Name: name, Type: catalog.Float64}
	default:
		return Column{Name: name, Type: catalog.String, Width: width}
	}
}

func parseCell(cell string, t catalog.FieldType) (any, error) {
	switch t {
	case catalog.Int64:
		return strconv.ParseInt(cell, 10, 64)
	case catalog.Float64:
		return strconv.ParseFloat(cell, 64)
	default:
		return cell, nil
	}
}

// Columns returns the ordered column descriptors.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.values) }

// Row returns a view of row i.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Float64Column returns every value of the named column as float64.
// Int64 columns are promoted; string columns are an error.
func (t *Table) Float64Column(name string) ([]float64, error) {
	c, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	out := make([]float64, len(t.values))
	for r := range t.values {
		f, err := asFloat64(t.values[r][c])
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, r+1, err)
		}
		out[r] = f
	}
	return out, nil
}

// Row exposes typed access to one table row by column name.
type Row struct {
	t *Table
	i int
}

// Value returns the raw canonical value of the named column.
func (r Row) Value(name string) (any, error) {
	c, ok := r.t.index[name]
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	return r.t.values[r.i][c], nil
}

// Float64 returns the named column as a float64, promoting integers.
func (r Row) Float64(name string) (float64, error) {
	v, err := r.Value(name)
	if err != nil {
		return 0, err
	}
	f, err := asFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", name, err)
	}
	return f, nil
}

// Int64 returns the named column as an int64. Float values must be
// integral.
func (r Row) Int64(name string) (int64, error) {
	v, err := r.Value(name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		if n == float64(int64(n)) {
			return int64(n), nil
		}
		return 0, fmt.Errorf("column %q: %v is not an integer", name, n)
	default:
		return 0, fmt.Errorf("column %q: cannot use %T as int64", name, v)
	}
}

// Bool coerces the named column to a boolean: nonzero numbers are true,
// strings are parsed with strconv.ParseBool.
func (r Row) Bool(name string) (bool, error) {
	v, err := r.Value(name)
	if err != nil {
		return false, err
	}
	switch n := v.(type) {
	case int64:
		return n != 0, nil
	case float64:
		return n != 0, nil
	case string:
		b, err := strconv.ParseBool(n)
		if err != nil {
			return false, fmt.Errorf("column %q: %w", name, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("column %q: cannot use %T as bool", name, v)
	}
}

func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("cannot use %T as float64", v)
	}
}
