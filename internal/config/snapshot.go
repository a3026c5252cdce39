package config

import (
	"bytes"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Snapshot is the provenance record persisted under the dataset's master
// config key after every successful ingestion run. It lets a downstream
// reader recover how the catalog was produced without re-parsing config
// sources.
type Snapshot struct {
	RunID     string       `toml:"run_id"`
	CreatedAt time.Time    `toml:"created_at"`
	Config    IngestConfig `toml:"config"`
}

// EncodeSnapshot serializes the config with run provenance as TOML.
// Serialization has no validation side effects; the config is written as-is.
func EncodeSnapshot(cfg *IngestConfig, runID string, now time.Time) ([]byte, error) {
	snap := Snapshot{
		RunID:     runID,
		CreatedAt: now.UTC(),
		Config:    *cfg,
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, fmt.Errorf("encode config snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot parses a snapshot previously produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := toml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode config snapshot: %w", err)
	}
	return &snap, nil
}
