package config

import (
	"fmt"
	"strings"
)

// ConfigError holds the list of column-binding rules an IngestConfig
// violates. It is always detected before any file or store I/O.
type ConfigError struct {
	Errors []FieldError
}

// FieldError is a single violated rule on a named config field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the config error as a semicolon-separated list of field
// messages.
func (e *ConfigError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid ingest config: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the config error contains any field errors.
func (e *ConfigError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the combination rules on the column bindings. It is pure:
// no file is opened and no store is touched. It returns a *ConfigError
// listing every violated rule, or nil when the config is valid.
func (c *IngestConfig) Validate() error {
	var ce ConfigError

	// ra, dec and at least one magnitude column are mandatory.
	if c.RAName == "" {
		ce.Errors = append(ce.Errors, FieldError{Field: "ra_name", Message: "is required"})
	}
	if c.DecName == "" {
		ce.Errors = append(ce.Errors, FieldError{Field: "dec_name", Message: "is required"})
	}
	if len(c.MagColumns) == 0 {
		ce.Errors = append(ce.Errors, FieldError{Field: "mag_columns", Message: "at least one entry is required"})
	}

	// Coordinate error columns come as a pair or not at all.
	if (c.RAErrName != "") != (c.DecErrName != "") {
		ce.Errors = append(ce.Errors, FieldError{
			Field:   "ra_err_name",
			Message: "ra_err_name and dec_err_name must be set together",
		})
	}

	// Every magnitude column needs exactly one error column when any are
	// supplied.
	if len(c.MagErrColumns) > 0 {
		if len(c.MagErrColumns) != len(c.MagColumns) {
			ce.Errors = append(ce.Errors, FieldError{
				Field: "mag_err_columns",
				Message: fmt.Sprintf("has %d entries for %d magnitude columns",
					len(c.MagErrColumns), len(c.MagColumns)),
			})
		} else {
			for _, col := range c.MagColumns {
				if _, ok := c.MagErrColumns[col]; !ok {
					ce.Errors = append(ce.Errors, FieldError{
						Field:   "mag_err_columns",
						Message: fmt.Sprintf("missing entry for magnitude column %q", col),
					})
				}
			}
		}
	}

	// Proper motion ra/dec/epoch are all-or-none.
	pmSet := 0
	for _, name := range []string{c.PMRAName, c.PMDecName, c.EpochName} {
		if name != "" {
			pmSet++
		}
	}
	if pmSet != 0 && pmSet != 3 {
		ce.Errors = append(ce.Errors, FieldError{
			Field:   "pm_ra_name",
			Message: "pm_ra_name, pm_dec_name and epoch_name must be set together",
		})
	}

	// Proper motion error columns come as a pair or not at all.
	if (c.PMRAErrName != "") != (c.PMDecErrName != "") {
		ce.Errors = append(ce.Errors, FieldError{
			Field:   "pm_ra_err_name",
			Message: "pm_ra_err_name and pm_dec_err_name must be set together",
		})
	}

	if ce.HasErrors() {
		return &ce
	}
	return nil
}
