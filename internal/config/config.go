// Package config holds the ingest configuration: the bindings from input
// catalog columns onto the persisted record layout, plus the deployment
// settings the CLI reads from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// IngestConfig maps the columns of an input catalog onto the output schema.
// Column bindings left empty are omitted from the derived layout.
type IngestConfig struct {
	Dataset      string `toml:"dataset"`       // name of the produced catalog
	Indexer      string `toml:"indexer"`       // spatial indexing algorithm
	IndexerDepth int    `toml:"indexer_depth"` // subdivision depth for the indexer

	RAName     string `toml:"ra_name"`
	DecName    string `toml:"dec_name"`
	RAErrName  string `toml:"ra_err_name"`
	DecErrName string `toml:"dec_err_name"`

	// MagColumns lists the AB magnitude columns; at least one is required.
	// MagErrColumns maps a magnitude column to its error column.
	MagColumns    []string          `toml:"mag_columns"`
	MagErrColumns map[string]string `toml:"mag_err_columns"`

	IsPhotometricName string `toml:"is_photometric_name"`
	IsResolvedName    string `toml:"is_resolved_name"`
	IsVariableName    string `toml:"is_variable_name"`

	// IDName names a column carrying externally assigned integer ids.
	// When empty, ids are auto-incremented per run.
	IDName string `toml:"id_name"`

	PMRAName     string  `toml:"pm_ra_name"`
	PMDecName    string  `toml:"pm_dec_name"`
	PMRAErrName  string  `toml:"pm_ra_err_name"`
	PMDecErrName string  `toml:"pm_dec_err_name"`
	PMScale      float64 `toml:"pm_scale"` // multiplier to reach milliarcsec/year

	EpochName string `toml:"epoch_name"`
	// EpochPoly converts raw epoch values to MJD TAI; coefficients are
	// ordered lowest to highest. [40587.0, 1.0/86400] converts Unix seconds.
	EpochPoly []float64 `toml:"epoch_poly"`

	// ExtraColumns are copied into the output records verbatim.
	ExtraColumns []string `toml:"extra_columns"`
}

// Default returns an IngestConfig with the standard defaults applied.
func Default() *IngestConfig {
	return &IngestConfig{
		Dataset:      "cal_ref_cat",
		Indexer:      "htm",
		IndexerDepth: 8,
		PMScale:      1.0,
		EpochPoly:    []float64{0.0},
	}
}

// Load reads an ingest configuration from a TOML file, applying defaults
// for fields the file leaves unset. It does not validate; call Validate
// before any I/O.
func Load(path string) (*IngestConfig, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// StoreConfig carries the deployment settings for the shard store and the
// event bus, read from the environment.
type StoreConfig struct {
	DatabaseURL string // REFCAT_DATABASE_URL (postgres backend when set)
	S3Bucket    string // REFCAT_S3_BUCKET (s3 backend when set)
	S3Endpoint  string // REFCAT_S3_ENDPOINT (custom endpoint for MinIO)
	S3Region    string // REFCAT_S3_REGION (default "us-east-1")
	S3Prefix    string // REFCAT_S3_PREFIX (default "refcat")
	NATSURL     string // REFCAT_NATS_URL (optional, empty = no events)
}

// LoadStoreConfig reads the store settings from REFCAT_* environment
// variables.
func LoadStoreConfig() *StoreConfig {
	return &StoreConfig{
		DatabaseURL: os.Getenv("REFCAT_DATABASE_URL"),
		S3Bucket:    os.Getenv("REFCAT_S3_BUCKET"),
		S3Endpoint:  os.Getenv("REFCAT_S3_ENDPOINT"),
		S3Region:    envOrDefault("REFCAT_S3_REGION", "us-east-1"),
		S3Prefix:    envOrDefault("REFCAT_S3_PREFIX", "refcat"),
		NATSURL:     os.Getenv("REFCAT_NATS_URL"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
