// Package sqlite provides a local blob medium that keeps the serialized entry
// collection in a single row of an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"inventoryrecord/internal/infra/persistence/local"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "inventory-record.db"

// Compile-time contract assertion.
var _ local.Medium = (*Medium)(nil)

// Medium persists the collection blob to a `state` table keyed by bucket.
type Medium struct {
	db     *sql.DB
	mu     sync.Mutex
	path   string
	bucket string
}

// Open creates (if needed) the database at path and its state table.
func Open(path string) (*Medium, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Medium{db: db, path: path, bucket: local.StorageKey}, nil
}

// NewStore opens the database at path and wraps it in a local entry store.
func NewStore(path string) (*local.Store, error) {
	m, err := Open(path)
	if err != nil {
		return nil, err
	}
	return local.NewStore(m), nil
}

// Load reads the bucket payload; found is false when the row is absent.
func (m *Medium) Load(ctx context.Context) ([]byte, bool, error) {
	var payload []byte
	err := m.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, m.bucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select state: %w", err)
	}
	return payload, true, nil
}

// Save upserts the bucket payload inside a transaction.
func (m *Medium) Save(ctx context.Context, data []byte) (retErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, m.bucket, data); err != nil {
		return fmt.Errorf("upsert %s: %w", m.bucket, err)
	}
	return tx.Commit()
}

// Close closes the database handle.
func (m *Medium) Close() error { return m.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (m *Medium) DB() *sql.DB { return m.db }

// Path returns the configured database path.
func (m *Medium) Path() string { return m.path }
