// Package postgres provides a remote entry store that keeps one JSONB
// document per entry in a Postgres table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"inventoryrecord/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.EntryStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when no DSN is configured.
	DefaultDSN = "postgres://localhost/inventory_record?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is a document collection keyed by entry id. Each method is an
// independent round trip; nothing is cached between calls.
type Store struct {
	db    *sql.DB
	newID func() string
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to DefaultDSN) and ensures the entries table exists.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, domain.Unavailable(fmt.Errorf("ping postgres: %w", err))
	}
	if err := ensureEntriesTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, newID: uuid.NewString}, nil
}

func ensureEntriesTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		body JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure entries table: %w", err)
	}
	return nil
}

// Variant reports VariantRemote.
func (s *Store) Variant() domain.StoreVariant { return domain.VariantRemote }

// List returns every document, re-attaching the key as the entry id.
func (s *Store) List(ctx context.Context) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, body FROM entries ORDER BY id`)
	if err != nil {
		return nil, domain.Unavailable(fmt.Errorf("select entries: %w", err))
	}
	defer func() { _ = rows.Close() }()

	entries := []domain.Entry{}
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, domain.Unavailable(fmt.Errorf("scan entry: %w", err))
		}
		var fields domain.EntryFormData
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, domain.Unavailable(fmt.Errorf("decode entry %s: %w", id, err))
		}
		entries = append(entries, domain.NewEntry(id, fields))
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(fmt.Errorf("iterate entries: %w", err))
	}
	return entries, nil
}

// Create inserts a new document under a generated key.
func (s *Store) Create(ctx context.Context, fields domain.EntryFormData) (domain.Entry, error) {
	entry := domain.NewEntry(s.newID(), fields)
	body, err := encodeBody(entry.Fields)
	if err != nil {
		return domain.Entry{}, domain.WriteFailed(err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO entries(id, body) VALUES($1, $2)`, entry.ID, body); err != nil {
		return domain.Entry{}, domain.WriteFailed(fmt.Errorf("insert entry: %w", err))
	}
	return entry, nil
}

// Update replaces the document body of id.
func (s *Store) Update(ctx context.Context, id string, fields domain.EntryFormData) error {
	body, err := encodeBody(fields.Normalize())
	if err != nil {
		return domain.WriteFailed(err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE entries SET body = $2 WHERE id = $1`, id, body)
	return affected(res, err, id, "update")
}

// Delete removes the document keyed id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	return affected(res, err, id, "delete")
}

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func affected(res sql.Result, err error, id, op string) error {
	if err != nil {
		return domain.WriteFailed(fmt.Errorf("%s entry %s: %w", op, id, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.WriteFailed(fmt.Errorf("%s entry %s: %w", op, id, err))
	}
	if n == 0 {
		return domain.NotFoundError{ID: id}
	}
	return nil
}

// encodeBody renders the fields without the id; the key carries it.
func encodeBody(fields domain.EntryFormData) (string, error) {
	data, err := json.Marshal(map[string]string(fields))
	if err != nil {
		return "", fmt.Errorf("encode entry: %w", err)
	}
	return string(data), nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
