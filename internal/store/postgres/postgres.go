// Package postgres implements the store.Store interface backed by
// PostgreSQL. Shards are stored one row per storage key with JSONB layout
// and record payloads.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/batmanuel-sandbox/refcat/internal/catalog"
	"github.com/batmanuel-sandbox/refcat/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := queryShardExists(ctx, s.db, key)
	if err != nil {
		return false, &store.StoreError{Op: "exists", Key: key, Err: err}
	}
	return ok, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*catalog.Shard, error) {
	shard, err := queryGetShard(ctx, s.db, key)
	if err != nil {
		return nil, &store.StoreError{Op: "get", Key: key, Err: err}
	}
	return shard, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, shard *catalog.Shard) error {
	if err := queryPutShard(ctx, s.db, key, shard); err != nil {
		return &store.StoreError{Op: "put", Key: key, Err: err}
	}
	return nil
}

func (s *PostgresStore) PutBlob(ctx context.Context, key string, data []byte) error {
	if err := queryPutBlob(ctx, s.db, key, data); err != nil {
		return &store.StoreError{Op: "put_blob", Key: key, Err: err}
	}
	return nil
}

func (s *PostgresStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	data, err := queryGetBlob(ctx, s.db, key)
	if err != nil {
		return nil, &store.StoreError{Op: "get_blob", Key: key, Err: err}
	}
	return data, nil
}
