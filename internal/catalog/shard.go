package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NoParent is the parent id assigned to every ingested record.
const NoParent int64 = -1

// Record is one output row of the catalog. RA and Dec are in degrees.
// Values holds the layout-defined slots keyed by field name.
type Record struct {
	ID     int64          `json:"id"`
	Parent int64          `json:"parent"`
	RA     float64        `json:"ra"`
	Dec    float64        `json:"dec"`
	Values map[string]any `json:"values"`
}

// Shard is a record collection for one spatial cell (or the zero-row master
// schema entry). All records in a shard share the same layout.
type Shard struct {
	Layout  *Layout  `json:"layout"`
	Records []Record `json:"records"`
}

// NewShard returns an empty shard carrying the given layout.
func NewShard(layout *Layout) *Shard {
	return &Shard{Layout: layout}
}

// Append adds a record to the end of the shard.
func (s *Shard) Append(r Record) {
	s.Records = append(s.Records, r)
}

// Len returns the number of records in the shard.
func (s *Shard) Len() int { return len(s.Records) }

// UnmarshalJSON decodes a shard and restores the Go types of record values,
// which encoding/json flattens to float64.
func (s *Shard) UnmarshalJSON(data []byte) error {
	var raw struct {
		Layout  *Layout         `json:"layout"`
		Records json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Layout == nil {
		return fmt.Errorf("shard: missing layout")
	}
	records, err := DecodeRecords(raw.Records, raw.Layout)
	if err != nil {
		return err
	}
	s.Layout = raw.Layout
	s.Records = records
	return nil
}

// DecodeRecords decodes a JSON record array and coerces each value back to
// the type its layout slot declares. Numbers are decoded as json.Number so
// int64 slots keep full precision; a float64 detour would corrupt values
// above 2^53.
func DecodeRecords(data []byte, layout *Layout) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	for _, rec := range records {
		for name, v := range rec.Values {
			f, ok := layout.Field(name)
			if !ok {
				return nil, fmt.Errorf("record %d: value %q not in layout", rec.ID, name)
			}
			cv, err := coerceValue(v, f.Type)
			if err != nil {
				return nil, fmt.Errorf("record %d: value %q: %w", rec.ID, name, err)
			}
			rec.Values[name] = cv
		}
	}
	return records, nil
}

func coerceValue(v any, t FieldType) (any, error) {
	switch t {
	case Float64:
		switch n := v.(type) {
		case float64:
			return n, nil
		case json.Number:
			return n.Float64()
		}
	case Int64:
		switch n := v.(type) {
		case json.Number:
			i, err := strconv.ParseInt(n.String(), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%v is not an integer", n)
			}
			return i, nil
		case int64:
			return n, nil
		}
	case Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("cannot decode %T as %s", v, t)
}
