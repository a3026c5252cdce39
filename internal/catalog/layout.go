// Package catalog defines the value types shared by the ingestion pipeline:
// the dynamic field layout, the output record, and the shard (a named record
// collection persisted by a store backend).
package catalog

import (
	"encoding/json"
	"fmt"
)

// FieldType identifies the storage type of a layout slot.
type FieldType string

const (
	Float64 FieldType = "float64"
	Int64   FieldType = "int64"
	Bool    FieldType = "bool"
	String  FieldType = "string"
)

// Field is one named, typed storage slot in a layout.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	Size int       `json:"size,omitempty"` // max width, String fields only
}

// Layout is the ordered set of storage slots a record carries beyond the
// fixed coordinate/id/parent fields. It is built once per ingestion run and
// never mutated afterwards; every later stage consults it by name lookup.
type Layout struct {
	fields []Field
	index  map[string]int
}

// NewLayout builds a layout from an ordered field list.
// Duplicate field names are rejected.
func NewLayout(fields []Field) (*Layout, error) {
	l := &Layout{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(l.fields, fields)
	for i, f := range l.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("layout: field %d has no name", i)
		}
		if _, ok := l.index[f.Name]; ok {
			return nil, fmt.Errorf("layout: duplicate field %q", f.Name)
		}
		l.index[f.Name] = i
	}
	return l, nil
}

// Fields returns a copy of the ordered field list.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Len returns the number of slots in the layout.
func (l *Layout) Len() int { return len(l.fields) }

// Has reports whether the layout contains a slot with the given name.
func (l *Layout) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// Field returns the slot with the given name.
func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

// MarshalJSON encodes the layout as its ordered field list.
func (l *Layout) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.fields)
}

// UnmarshalJSON decodes an ordered field list produced by MarshalJSON.
func (l *Layout) UnmarshalJSON(data []byte) error {
	var fields []Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	built, err := NewLayout(fields)
	if err != nil {
		return err
	}
	*l = *built
	return nil
}
