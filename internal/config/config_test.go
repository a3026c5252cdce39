package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validConfig returns a config that passes every combination rule; tests
// mutate one rule at a time.
func validConfig() *IngestConfig {
	cfg := Default()
	cfg.RAName = "RA"
	cfg.DecName = "DEC"
	cfg.MagColumns = []string{"g", "r"}
	return cfg
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name      string
		mutate    func(*IngestConfig)
		wantField string // empty = expect valid
	}{
		{
			name:   "Valid",
			mutate: func(c *IngestConfig) {},
		},
		{
			name: "ValidWithAllOptionalGroups",
			mutate: func(c *IngestConfig) {
				c.RAErrName, c.DecErrName = "RA_ERR", "DEC_ERR"
				c.MagErrColumns = map[string]string{"g": "g_err", "r": "r_err"}
				c.PMRAName, c.PMDecName, c.EpochName = "PMRA", "PMDEC", "EPOCH"
				c.PMRAErrName, c.PMDecErrName = "PMRA_ERR", "PMDEC_ERR"
			},
		},
		{
			name:      "MissingRA",
			mutate:    func(c *IngestConfig) { c.RAName = "" },
			wantField: "ra_name",
		},
		{
			name:      "MissingDec",
			mutate:    func(c *IngestConfig) { c.DecName = "" },
			wantField: "dec_name",
		},
		{
			name:      "NoMagColumns",
			mutate:    func(c *IngestConfig) { c.MagColumns = nil },
			wantField: "mag_columns",
		},
		{
			name:      "RAErrWithoutDecErr",
			mutate:    func(c *IngestConfig) { c.RAErrName = "RA_ERR" },
			wantField: "ra_err_name",
		},
		{
			name:      "DecErrWithoutRAErr",
			mutate:    func(c *IngestConfig) { c.DecErrName = "DEC_ERR" },
			wantField: "ra_err_name",
		},
		{
			name: "MagErrCountMismatch",
			mutate: func(c *IngestConfig) {
				c.MagErrColumns = map[string]string{"g": "g_err"}
			},
			wantField: "mag_err_columns",
		},
		{
			name: "MagErrNameSetMismatch",
			mutate: func(c *IngestConfig) {
				c.MagErrColumns = map[string]string{"g": "g_err", "i": "i_err"}
			},
			wantField: "mag_err_columns",
		},
		{
			name:      "PartialProperMotion",
			mutate:    func(c *IngestConfig) { c.PMRAName = "PMRA" },
			wantField: "pm_ra_name",
		},
		{
			name: "ProperMotionWithoutEpoch",
			mutate: func(c *IngestConfig) {
				c.PMRAName, c.PMDecName = "PMRA", "PMDEC"
			},
			wantField: "pm_ra_name",
		},
		{
			name:      "PMRAErrWithoutPMDecErr",
			mutate:    func(c *IngestConfig) { c.PMRAErrName = "PMRA_ERR" },
			wantField: "pm_ra_err_name",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			found := false
			for _, fe := range ce.Errors {
				if fe.Field == tc.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("ConfigError %v does not mention field %q", ce, tc.wantField)
			}
		})
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	cfg := &IngestConfig{RAErrName: "RA_ERR", PMRAName: "PMRA"}
	err := cfg.Validate()
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Validate() = %v, want *ConfigError", err)
	}
	if len(ce.Errors) < 5 {
		t.Errorf("got %d field errors, want at least 5: %v", len(ce.Errors), ce)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.toml")
	content := `
ra_name = "RA"
dec_name = "DEC"
mag_columns = ["g"]
pm_scale = 1000.0
epoch_poly = [0.0, 1.0]

[mag_err_columns]
g = "g_err"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dataset != "cal_ref_cat" {
		t.Errorf("Dataset default = %q, want cal_ref_cat", cfg.Dataset)
	}
	if cfg.Indexer != "htm" || cfg.IndexerDepth != 8 {
		t.Errorf("indexer defaults = %q/%d, want htm/8", cfg.Indexer, cfg.IndexerDepth)
	}
	if cfg.RAName != "RA" || cfg.DecName != "DEC" {
		t.Errorf("ra/dec = %q/%q", cfg.RAName, cfg.DecName)
	}
	if cfg.PMScale != 1000.0 {
		t.Errorf("PMScale = %v, want 1000", cfg.PMScale)
	}
	if len(cfg.EpochPoly) != 2 || cfg.EpochPoly[1] != 1.0 {
		t.Errorf("EpochPoly = %v", cfg.EpochPoly)
	}
	if cfg.MagErrColumns["g"] != "g_err" {
		t.Errorf("MagErrColumns = %v", cfg.MagErrColumns)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.toml")
	if err := os.WriteFile(path, []byte("ra_nmae = \"RA\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for misspelled key, got nil")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.ExtraColumns = []string{"obs_code"}
	now := time.Date(2017, 11, 3, 12, 0, 0, 0, time.UTC)

	data, err := EncodeSnapshot(cfg, "run-abc123", now)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if snap.RunID != "run-abc123" {
		t.Errorf("RunID = %q", snap.RunID)
	}
	if !snap.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", snap.CreatedAt, now)
	}
	if snap.Config.RAName != "RA" || len(snap.Config.MagColumns) != 2 {
		t.Errorf("Config = %+v", snap.Config)
	}
	if len(snap.Config.ExtraColumns) != 1 || snap.Config.ExtraColumns[0] != "obs_code" {
		t.Errorf("ExtraColumns = %v", snap.Config.ExtraColumns)
	}
}

func TestLoadStoreConfig(t *testing.T) {
	for _, key := range []string{
		"REFCAT_DATABASE_URL", "REFCAT_S3_BUCKET", "REFCAT_S3_ENDPOINT",
		"REFCAT_S3_REGION", "REFCAT_S3_PREFIX", "REFCAT_NATS_URL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("REFCAT_DATABASE_URL", "postgres://localhost/refcat")

	sc := LoadStoreConfig()
	if sc.DatabaseURL != "postgres://localhost/refcat" {
		t.Errorf("DatabaseURL = %q", sc.DatabaseURL)
	}
	if sc.S3Region != "us-east-1" {
		t.Errorf("S3Region default = %q", sc.S3Region)
	}
	if sc.S3Prefix != "refcat" {
		t.Errorf("S3Prefix default = %q", sc.S3Prefix)
	}
}
