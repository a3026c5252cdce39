// Package schema derives the persisted field layout from the ingest
// configuration and the column types observed in the first input file.
package schema

import (
	"fmt"

	"github.com/batmanuel-sandbox/refcat/internal/catalog"
	"github.com/batmanuel-sandbox/refcat/internal/config"
	"github.com/batmanuel-sandbox/refcat/internal/source"
)

// SchemaError reports an input whose observed columns are inconsistent with
// the configured mapping. It is detected on the first file, before any data
// shard is written.
type SchemaError struct {
	Column string
	Msg    string
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema: column %q: %s", e.Column, e.Msg)
	}
	return "schema: " + e.Msg
}

// Flag layout slots, in the order they are added when configured.
var flagSlots = []struct {
	slot string
	name func(*config.IngestConfig) string
}{
	{"photometric", func(c *config.IngestConfig) string { return c.IsPhotometricName }},
	{"resolved", func(c *config.IngestConfig) string { return c.IsResolvedName }},
	{"variable", func(c *config.IngestConfig) string { return c.IsVariableName }},
}

// Build derives the field layout for a run. The layout is built exactly
// once, from the first file's columns; later files are assumed to share
// them. The coordinate, id and parent slots live on the record itself and
// are not part of the layout.
func Build(cols []source.Column, cfg *config.IngestConfig) (*catalog.Layout, error) {
	observed := make(map[string]source.Column, len(cols))
	for _, c := range cols {
		observed[c.Name] = c
	}

	// Mirror of the validation-time rule, guarding against a config whose
	// declared mapping no longer matches what Validate saw.
	if len(cfg.MagErrColumns) > 0 {
		if len(cfg.MagErrColumns) != len(cfg.MagColumns) {
			return nil, &SchemaError{Msg: fmt.Sprintf(
				"%d magnitude error columns for %d magnitude columns",
				len(cfg.MagErrColumns), len(cfg.MagColumns))}
		}
		for _, col := range cfg.MagColumns {
			if _, ok := cfg.MagErrColumns[col]; !ok {
				return nil, &SchemaError{Column: col, Msg: "has no magnitude error column"}
			}
		}
	}

	// Every configured column must exist in the observed set.
	for _, name := range configuredColumns(cfg) {
		if _, ok := observed[name]; !ok {
			return nil, &SchemaError{Column: name, Msg: "not present in input"}
		}
	}

	var fields []catalog.Field

	// Coordinate error slots are always present; they hold 0.0 when no
	// error columns are configured.
	fields = append(fields,
		catalog.Field{Name: "coord_ra_err", Type: catalog.Float64},
		catalog.Field{Name: "coord_dec_err", Type: catalog.Float64},
	)

	for _, col := range cfg.MagColumns {
		fields = append(fields, catalog.Field{Name: col + "_flux", Type: catalog.Float64})
	}
	for _, col := range cfg.MagColumns {
		if _, ok := cfg.MagErrColumns[col]; ok {
			fields = append(fields, catalog.Field{Name: col + "_fluxSigma", Type: catalog.Float64})
		}
	}

	for _, f := range flagSlots {
		if f.name(cfg) != "" {
			fields = append(fields, catalog.Field{Name: f.slot, Type: catalog.Bool})
		}
	}

	if cfg.PMRAName != "" {
		fields = append(fields,
			catalog.Field{Name: "pmRa", Type: catalog.Float64},
			catalog.Field{Name: "pmDec", Type: catalog.Float64},
			catalog.Field{Name: "epoch", Type: catalog.Float64},
		)
		if cfg.PMRAErrName != "" {
			fields = append(fields,
				catalog.Field{Name: "pmRaErr", Type: catalog.Float64},
				catalog.Field{Name: "pmDecErr", Type: catalog.Float64},
			)
		}
	}

	for _, col := range cfg.ExtraColumns {
		oc := observed[col]
		switch oc.Type {
		case catalog.Int64, catalog.Float64:
			fields = append(fields, catalog.Field{Name: col, Type: oc.Type})
		case catalog.String:
			fields = append(fields, catalog.Field{Name: col, Type: catalog.String, Size: oc.Width})
		default:
			return nil, &SchemaError{Column: col, Msg: fmt.Sprintf("unsupported column type %q", oc.Type)}
		}
	}

	layout, err := catalog.NewLayout(fields)
	if err != nil {
		return nil, &SchemaError{Msg: err.Error()}
	}
	return layout, nil
}

// configuredColumns lists every input column name the config binds.
func configuredColumns(cfg *config.IngestConfig) []string {
	names := []string{cfg.RAName, cfg.DecName}
	names = append(names, cfg.RAErrName, cfg.DecErrName)
	names = append(names, cfg.MagColumns...)
	for _, errCol := range cfg.MagErrColumns {
		names = append(names, errCol)
	}
	names = append(names,
		cfg.IsPhotometricName, cfg.IsResolvedName, cfg.IsVariableName,
		cfg.IDName,
		cfg.PMRAName, cfg.PMDecName, cfg.PMRAErrName, cfg.PMDecErrName,
		cfg.EpochName,
	)
	names = append(names, cfg.ExtraColumns...)

	out := names[:0]
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
