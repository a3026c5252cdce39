package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/batmanuel-sandbox/refcat/internal/catalog"
	"github.com/batmanuel-sandbox/refcat/internal/store"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryShardExists(ctx context.Context, db executor, key string) (bool, error) {
	var ok bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM shards WHERE key = $1)`, key).Scan(&ok)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func queryGetShard(ctx context.Context, db executor, key string) (*catalog.Shard, error) {
	var layoutData, recordData []byte
	err := db.QueryRowContext(ctx,
		`SELECT layout, records FROM shards WHERE key = $1`, key).
		Scan(&layoutData, &recordData)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var layout catalog.Layout
	if err := json.Unmarshal(layoutData, &layout); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	records, err := catalog.DecodeRecords(recordData, &layout)
	if err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return &catalog.Shard{Layout: &layout, Records: records}, nil
}

func queryPutShard(ctx context.Context, db executor, key string, shard *catalog.Shard) error {
	layoutData, err := json.Marshal(shard.Layout)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	records := shard.Records
	if records == nil {
		records = []catalog.Record{}
	}
	recordData, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO shards (key, layout, records, nrecords, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (key) DO UPDATE SET
			layout = EXCLUDED.layout,
			records = EXCLUDED.records,
			nrecords = EXCLUDED.nrecords,
			updated_at = now()`,
		key, layoutData, recordData, len(records),
	)
	return err
}

func queryPutBlob(ctx context.Context, db executor, key string, data []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO blobs (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = now()`,
		key, data,
	)
	return err
}

func queryGetBlob(ctx context.Context, db executor, key string) ([]byte, error) {
	var data []byte
	err := db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE key = $1`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
