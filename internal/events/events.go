// Package events publishes ingestion progress events. Events are telemetry
// for external observers; publish failures never abort a run.
package events

import "context"

// Event topic constants
const (
	TopicIngestStarted   = "refcat.ingest.started"
	TopicSchemaWritten   = "refcat.schema.written"
	TopicShardWritten    = "refcat.shard.written"
	TopicIngestCompleted = "refcat.ingest.completed"
)

// Event types

type IngestStarted struct {
	RunID   string   `json:"run_id"`
	Dataset string   `json:"dataset"`
	Files   []string `json:"files"`
}

type SchemaWritten struct {
	RunID   string `json:"run_id"`
	Dataset string `json:"dataset"`
	Key     string `json:"key"`
	Fields  int    `json:"fields"`
}

type ShardWritten struct {
	RunID    string `json:"run_id"`
	Dataset  string `json:"dataset"`
	Key      string `json:"key"`
	CellID   int64  `json:"cell_id"`
	Appended int    `json:"appended"`
	Total    int    `json:"total"`
}

type IngestCompleted struct {
	RunID   string `json:"run_id"`
	Dataset string `json:"dataset"`
	Files   int    `json:"files"`
	Records int    `json:"records"`
	Shards  int    `json:"shards"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
