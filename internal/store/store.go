// Package store defines the persistence interface for shards and the
// master config blob.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/batmanuel-sandbox/refcat/internal/catalog"
)

// ErrNotFound is returned by Get and GetBlob for unknown keys.
var ErrNotFound = errors.New("key not found")

// Store is the keyed shard store the ingestion pipeline writes to.
// Put replaces the full content under a key; merge semantics are the
// caller's concern (get, extend, put back).
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (*catalog.Shard, error)
	Put(ctx context.Context, key string, shard *catalog.Shard) error

	// Blob storage for the config snapshot.
	PutBlob(ctx context.Context, key string, data []byte) error
	GetBlob(ctx context.Context, key string) ([]byte, error)

	Close() error
}

// StoreError reports a failed shard fetch or put.
type StoreError struct {
	Op  string // "exists", "get", "put", "put_blob", "get_blob"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
