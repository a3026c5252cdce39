// Package ingest drives the ingestion pipeline: it reads input catalogs,
// derives the field layout once per run, groups rows by spatial cell, and
// merges them into persisted shards.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/batmanuel-sandbox/refcat/internal/catalog"
	"github.com/batmanuel-sandbox/refcat/internal/config"
	"github.com/batmanuel-sandbox/refcat/internal/events"
	"github.com/batmanuel-sandbox/refcat/internal/idgen"
	"github.com/batmanuel-sandbox/refcat/internal/indexer"
	"github.com/batmanuel-sandbox/refcat/internal/schema"
	"github.com/batmanuel-sandbox/refcat/internal/source"
	"github.com/batmanuel-sandbox/refcat/internal/store"
)

// Result summarizes one ingestion run.
type Result struct {
	RunID   string
	Files   int
	Records int
	Shards  int // distinct shard keys written
}

// Ingestor runs the pipeline, single-threaded. Shard updates are
// read-modify-write without a lock, so two concurrent runs against the
// same dataset can lose records.
type Ingestor struct {
	cfg *config.IngestConfig
	idx indexer.Indexer
	st  store.Store
	pub events.Publisher
	log *slog.Logger
}

// New builds an ingestor. A nil publisher disables events; a nil logger
// falls back to slog.Default().
func New(cfg *config.IngestConfig, idx indexer.Indexer, st store.Store, pub events.Publisher, log *slog.Logger) *Ingestor {
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{cfg: cfg, idx: idx, st: st, pub: pub, log: log}
}

// Ingest indexes the given files into the dataset's shards, in input
// order. The field layout is derived from the first file and persisted as
// an empty master-schema shard before any data shard is written; after all
// files, the config snapshot is persisted under the master config key.
//
// Any read, schema, index or store failure aborts the rest of the run.
// Shards persisted before the failure remain in the store; there is no
// rollback. Re-running the same files appends duplicate records unless an
// id column is configured; callers track already-ingested files.
func (in *Ingestor) Ingest(ctx context.Context, files []string) (*Result, error) {
	if err := in.cfg.Validate(); err != nil {
		return nil, err
	}
	runID, err := idgen.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	res := &Result{RunID: runID}
	in.log.Info("ingest started", "run", runID, "dataset", in.cfg.Dataset, "files", len(files))
	in.publish(ctx, events.TopicIngestStarted, events.IngestStarted{
		RunID:   runID,
		Dataset: in.cfg.Dataset,
		Files:   files,
	})

	var (
		layout  *catalog.Layout
		tr      *Translator
		lastID  int64 // id counter, shared across the whole run
		written = make(map[string]bool)
	)

	for _, file := range files {
		tbl, err := source.Read(file)
		if err != nil {
			return nil, err
		}

		ra, err := tbl.Float64Column(in.cfg.RAName)
		if err != nil {
			return nil, &schema.SchemaError{Msg: err.Error()}
		}
		dec, err := tbl.Float64Column(in.cfg.DecName)
		if err != nil {
			return nil, &schema.SchemaError{Msg: err.Error()}
		}
		cells, err := in.idx.IndexPoints(ra, dec)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", file, err)
		}

		// First file establishes the layout and the master schema entry,
		// before any data shard is written. A file with no data rows
		// cannot seed the layout: column types are inferred from values,
		// and a header-only file types every column as an empty string.
		if layout == nil {
			if tbl.Len() == 0 {
				return nil, &schema.SchemaError{Msg: fmt.Sprintf("%s has no data rows to derive a layout from", file)}
			}
			layout, err = schema.Build(tbl.Columns(), in.cfg)
			if err != nil {
				return nil, err
			}
			masterKey := indexer.MasterSchemaKey(in.cfg.Dataset)
			if err := in.st.Put(ctx, masterKey, catalog.NewShard(layout)); err != nil {
				return nil, err
			}
			in.log.Info("master schema persisted", "key", masterKey, "fields", layout.Len())
			in.publish(ctx, events.TopicSchemaWritten, events.SchemaWritten{
				RunID:   runID,
				Dataset: in.cfg.Dataset,
				Key:     masterKey,
				Fields:  layout.Len(),
			})
			tr = NewTranslator(in.cfg, layout)
		}

		for _, cell := range distinctCells(cells) {
			key := indexer.Key(cell, in.cfg.Dataset)
			shard, err := in.fetchShard(ctx, key, layout)
			if err != nil {
				return nil, err
			}

			appended := 0
			for i, c := range cells {
				if c != cell {
					continue
				}
				rec, id, err := tr.Translate(tbl.Row(i), lastID)
				if err != nil {
					return nil, err
				}
				lastID = id
				shard.Append(rec)
				appended++
			}

			if err := in.st.Put(ctx, key, shard); err != nil {
				return nil, err
			}
			written[key] = true
			res.Records += appended
			in.log.Debug("shard written", "key", key, "appended", appended, "total", shard.Len())
			in.publish(ctx, events.TopicShardWritten, events.ShardWritten{
				RunID:    runID,
				Dataset:  in.cfg.Dataset,
				Key:      key,
				CellID:   cell,
				Appended: appended,
				Total:    shard.Len(),
			})
		}
		res.Files++
	}

	snap, err := config.EncodeSnapshot(in.cfg, runID, time.Now())
	if err != nil {
		return nil, err
	}
	if err := in.st.PutBlob(ctx, indexer.MasterConfigKey(in.cfg.Dataset), snap); err != nil {
		return nil, err
	}

	res.Shards = len(written)
	in.log.Info("ingest complete", "run", runID,
		"files", res.Files, "records", res.Records, "shards", res.Shards)
	in.publish(ctx, events.TopicIngestCompleted, events.IngestCompleted{
		RunID:   runID,
		Dataset: in.cfg.Dataset,
		Files:   res.Files,
		Records: res.Records,
		Shards:  res.Shards,
	})
	return res, nil
}

// fetchShard returns the existing shard under key, or an empty one sharing
// the run's layout.
func (in *Ingestor) fetchShard(ctx context.Context, key string, layout *catalog.Layout) (*catalog.Shard, error) {
	ok, err := in.st.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return catalog.NewShard(layout), nil
	}
	return in.st.Get(ctx, key)
}

// distinctCells returns the set of cell ids, sorted. Grouping is by value
// equality; the sort only makes the write order deterministic.
func distinctCells(cells []int64) []int64 {
	seen := make(map[int64]bool, len(cells))
	var out []int64
	for _, c := range cells {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// publish sends a progress event; failures are logged, never fatal.
func (in *Ingestor) publish(ctx context.Context, topic string, event any) {
	if err := in.pub.Publish(ctx, topic, event); err != nil {
		in.log.Warn("publish event", "topic", topic, "error", err)
	}
}
