package ingest

import (
	"github.com/batmanuel-sandbox/refcat/internal/catalog"
	"github.com/batmanuel-sandbox/refcat/internal/config"
	"github.com/batmanuel-sandbox/refcat/internal/schema"
	"github.com/batmanuel-sandbox/refcat/internal/source"
)

// Translator maps one input row onto one output record, given the field
// layout derived for the run.
type Translator struct {
	cfg    *config.IngestConfig
	layout *catalog.Layout
	epoch  catalog.Polynomial
}

// NewTranslator builds a translator for a validated config and its derived
// layout.
func NewTranslator(cfg *config.IngestConfig, layout *catalog.Layout) *Translator {
	return &Translator{
		cfg:    cfg,
		layout: layout,
		epoch:  catalog.Polynomial(cfg.EpochPoly),
	}
}

// Translate builds the record for one input row. lastID is the id counter
// before this row; the returned counter is unchanged when an id column is
// configured, and incremented otherwise. The counter is shared across every
// file and shard of a run, so auto-assigned ids start at 1 and never
// repeat within the run. Externally supplied ids are copied verbatim and
// may collide; that is not detected here.
func (t *Translator) Translate(row source.Row, lastID int64) (catalog.Record, int64, error) {
	rec := catalog.Record{
		Parent: catalog.NoParent,
		Values: make(map[string]any, t.layout.Len()),
	}

	ra, err := row.Float64(t.cfg.RAName)
	if err != nil {
		return rec, lastID, rowErr(err)
	}
	dec, err := row.Float64(t.cfg.DecName)
	if err != nil {
		return rec, lastID, rowErr(err)
	}
	rec.RA, rec.Dec = ra, dec

	if t.cfg.IDName != "" {
		id, err := row.Int64(t.cfg.IDName)
		if err != nil {
			return rec, lastID, rowErr(err)
		}
		rec.ID = id
	} else {
		lastID++
		rec.ID = lastID
	}

	if err := t.setErrors(&rec, row); err != nil {
		return rec, lastID, err
	}
	if err := t.setFlags(&rec, row); err != nil {
		return rec, lastID, err
	}
	if err := t.setFluxes(&rec, row); err != nil {
		return rec, lastID, err
	}
	if err := t.setProperMotion(&rec, row); err != nil {
		return rec, lastID, err
	}
	if err := t.setExtra(&rec, row); err != nil {
		return rec, lastID, err
	}
	return rec, lastID, nil
}

// setErrors fills the always-present coordinate error slots. Validation
// guarantees the two error columns are configured together.
func (t *Translator) setErrors(rec *catalog.Record, row source.Row) error {
	if t.cfg.RAErrName == "" {
		rec.Values["coord_ra_err"] = 0.0
		rec.Values["coord_dec_err"] = 0.0
		return nil
	}
	raErr, err := row.Float64(t.cfg.RAErrName)
	if err != nil {
		return rowErr(err)
	}
	decErr, err := row.Float64(t.cfg.DecErrName)
	if err != nil {
		return rowErr(err)
	}
	rec.Values["coord_ra_err"] = raErr
	rec.Values["coord_dec_err"] = decErr
	return nil
}

func (t *Translator) setFlags(rec *catalog.Record, row source.Row) error {
	for slot, column := range map[string]string{
		"photometric": t.cfg.IsPhotometricName,
		"resolved":    t.cfg.IsResolvedName,
		"variable":    t.cfg.IsVariableName,
	} {
		if !t.layout.Has(slot) {
			continue
		}
		b, err := row.Bool(column)
		if err != nil {
			return rowErr(err)
		}
		rec.Values[slot] = b
	}
	return nil
}

// setFluxes converts AB magnitudes to linear fluxes, and magnitude errors
// to flux errors where an error column is mapped.
func (t *Translator) setFluxes(rec *catalog.Record, row source.Row) error {
	for _, col := range t.cfg.MagColumns {
		mag, err := row.Float64(col)
		if err != nil {
			return rowErr(err)
		}
		rec.Values[col+"_flux"] = catalog.FluxFromABMag(mag)

		errCol, ok := t.cfg.MagErrColumns[col]
		if !ok {
			continue
		}
		magErr, err := row.Float64(errCol)
		if err != nil {
			return rowErr(err)
		}
		rec.Values[col+"_fluxSigma"] = catalog.FluxErrFromABMagErr(magErr, mag)
	}
	return nil
}

func (t *Translator) setProperMotion(rec *catalog.Record, row source.Row) error {
	if t.cfg.PMRAName == "" { // validation guarantees all or none
		return nil
	}
	pmRA, err := row.Float64(t.cfg.PMRAName)
	if err != nil {
		return rowErr(err)
	}
	pmDec, err := row.Float64(t.cfg.PMDecName)
	if err != nil {
		return rowErr(err)
	}
	rawEpoch, err := row.Float64(t.cfg.EpochName)
	if err != nil {
		return rowErr(err)
	}
	rec.Values["pmRa"] = pmRA * t.cfg.PMScale
	rec.Values["pmDec"] = pmDec * t.cfg.PMScale
	rec.Values["epoch"] = t.epoch.Eval(rawEpoch)

	if t.cfg.PMRAErrName == "" { // validation guarantees both or neither
		return nil
	}
	pmRAErr, err := row.Float64(t.cfg.PMRAErrName)
	if err != nil {
		return rowErr(err)
	}
	pmDecErr, err := row.Float64(t.cfg.PMDecErrName)
	if err != nil {
		return rowErr(err)
	}
	rec.Values["pmRaErr"] = pmRAErr * t.cfg.PMScale
	rec.Values["pmDecErr"] = pmDecErr * t.cfg.PMScale
	return nil
}

// setExtra copies the configured extra columns verbatim. The source table
// already holds canonical Go values, so no further normalization is needed.
func (t *Translator) setExtra(rec *catalog.Record, row source.Row) error {
	for _, col := range t.cfg.ExtraColumns {
		v, err := row.Value(col)
		if err != nil {
			return rowErr(err)
		}
		rec.Values[col] = v
	}
	return nil
}

// rowErr reports a row whose values do not fit the configured mapping.
func rowErr(err error) error {
	return &schema.SchemaError{Msg: err.Error()}
}
