package ingest

import (
	"context"
	"sync"

	"github.com/batmanuel-sandbox/refcat/internal/catalog"
	"github.com/batmanuel-sandbox/refcat/internal/store"
)

// memStore is an in-memory store.Store for tests. It records the order of
// shard puts so tests can assert write ordering.
type memStore struct {
	mu       sync.Mutex
	shards   map[string]*catalog.Shard
	blobs    map[string][]byte
	putOrder []string

	failPut map[string]error // key -> error to return from Put
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		shards:  make(map[string]*catalog.Shard),
		blobs:   make(map[string][]byte),
		failPut: make(map[string]error),
	}
}

func (m *memStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.shards[key]
	return ok, nil
}

func (m *memStore) Get(ctx context.Context, key string) (*catalog.Shard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	shard, ok := m.shards[key]
	if !ok {
		return nil, &store.StoreError{Op: "get", Key: key, Err: store.ErrNotFound}
	}
	// Copy so callers mutate their own shard until they put it back.
	cp := &catalog.Shard{Layout: shard.Layout, Records: append([]catalog.Record(nil), shard.Records...)}
	return cp, nil
}

func (m *memStore) Put(ctx context.Context, key string, shard *catalog.Shard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failPut[key]; err != nil {
		return &store.StoreError{Op: "put", Key: key, Err: err}
	}
	m.shards[key] = &catalog.Shard{Layout: shard.Layout, Records: append([]catalog.Record(nil), shard.Records...)}
	m.putOrder = append(m.putOrder, key)
	return nil
}

func (m *memStore) PutBlob(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, &store.StoreError{Op: "get_blob", Key: key, Err: store.ErrNotFound}
	}
	return data, nil
}

func (m *memStore) Close() error { return nil }

// stubIndexer assigns cells with a caller-provided function, so tests
// control exactly which rows share a shard.
type stubIndexer struct {
	cell func(ra, dec float64) int64
}

func (s *stubIndexer) Name() string { return "stub" }
func (s *stubIndexer) Depth() int   { return 0 }

func (s *stubIndexer) IndexPoints(ra, dec []float64) ([]int64, error) {
	ids := make([]int64, len(ra))
	for i := range ra {
		ids[i] = s.cell(ra[i], dec[i])
	}
	return ids, nil
}

// cellByRA buckets rows by the integer part of their RA.
func cellByRA() *stubIndexer {
	return &stubIndexer{cell: func(ra, dec float64) int64 { return int64(ra) }}
}
