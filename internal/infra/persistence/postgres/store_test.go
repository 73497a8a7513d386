package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"inventoryrecord/internal/infra/persistence/postgres/testutil"
	"inventoryrecord/pkg/domain"
)

func newTestStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, conn
}

func TestNewStoreCreatesEntriesTable(t *testing.T) {
	store, conn := newTestStore(t)
	if store.Variant() != domain.VariantRemote {
		t.Fatalf("expected remote variant")
	}
	if store.DB() == nil {
		t.Fatalf("expected db handle")
	}
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS entries") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected entries DDL, got execs: %v", conn.Execs)
	}
}

func TestNewStoreOpenErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("boom") })
	if _, err := NewStore("dsn"); err == nil || !strings.Contains(err.Error(), "open postgres") {
		t.Fatalf("expected open error, got %v", err)
	}
	restore()

	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore("dsn"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on ping failure, got %v", err)
	}
}

func TestNewStoreDDLError(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailExec = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore("dsn"); err == nil || !strings.Contains(err.Error(), "ensure entries table") {
		t.Fatalf("expected ddl error, got %v", err)
	}
}

func TestCreateStoresBodyWithoutID(t *testing.T) {
	ctx := context.Background()
	store, conn := newTestStore(t)
	store.newID = func() string { return "doc-1" }

	created, err := store.Create(ctx, domain.EntryFormData{domain.FieldName: "Ann", domain.FieldID: "ignored"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "doc-1" || created.Name() != "Ann" {
		t.Fatalf("unexpected created entry: %#v", created)
	}
	rows := conn.Rows("entries")
	if len(rows) != 1 || rows[0]["id"] != "doc-1" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(rows[0]["body"].(string)), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["id"]; ok {
		t.Fatalf("body must not carry the id: %v", body)
	}
	if body[domain.FieldStatus] != "" {
		t.Fatalf("expected every fixed field in body, got %v", body)
	}
}

func TestListReattachesIDs(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	ids := []string{"a", "b"}
	store.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	for _, name := range []string{"First", "Second"} {
		if _, err := store.Create(ctx, domain.EntryFormData{domain.FieldName: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "a" || entries[1].Name() != "Second" {
		t.Fatalf("unexpected entries: %#v", entries)
	}
}

func TestListEmptyCollection(t *testing.T) {
	store, _ := newTestStore(t)
	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestListFailures(t *testing.T) {
	ctx := context.Background()
	store, conn := newTestStore(t)

	conn.FailQuery = true
	if _, err := store.List(ctx); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected unavailable on query failure, got %v", err)
	}
	conn.FailQuery = false

	conn.Tables["entries"] = []map[string]any{{"id": "x", "body": "{not json"}}
	if _, err := store.List(ctx); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected unavailable on corrupt body, got %v", err)
	}

	conn.Tables["entries"] = nil
	conn.RowsErr = errors.New("cursor lost")
	if _, err := store.List(ctx); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected unavailable on rows error, got %v", err)
	}
}

func TestUpdateReplacesBody(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	created, err := store.Create(ctx, domain.EntryFormData{domain.FieldName: "Ann", domain.FieldCity: "Oslo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Update(ctx, created.ID, domain.EntryFormData{domain.FieldName: "Ann B"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := entries[0]
	if got.ID != created.ID || got.Name() != "Ann B" || got.Get(domain.FieldCity) != "" {
		t.Fatalf("expected full replacement, got %#v", got)
	}
}

func TestUpdateTwiceMatchesSingleUpdate(t *testing.T) {
	ctx := context.Background()
	store, conn := newTestStore(t)
	created, err := store.Create(ctx, domain.EntryFormData{domain.FieldName: "Ann"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	fields := domain.EntryFormData{domain.FieldName: "Ann B", domain.FieldCity: "Oslo"}
	if err := store.Update(ctx, created.ID, fields); err != nil {
		t.Fatalf("update: %v", err)
	}
	onceRows := conn.Rows("entries")
	once, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := store.Update(ctx, created.ID, fields); err != nil {
		t.Fatalf("second update: %v", err)
	}
	twice, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(once, twice) || !reflect.DeepEqual(onceRows, conn.Rows("entries")) {
		t.Fatalf("repeated update changed the entry:\n once %#v\ntwice %#v", once, twice)
	}
}

func TestUpdateAndDeleteUnknownID(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if err := store.Update(ctx, "missing", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestDeleteRemovesDocument(t *testing.T) {
	ctx := context.Background()
	store, conn := newTestStore(t)
	created, err := store.Create(ctx, domain.EntryFormData{domain.FieldName: "Gone"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rows := conn.Rows("entries"); len(rows) != 0 {
		t.Fatalf("expected no rows, got %v", rows)
	}
}

func TestWriteFailuresAreWrapped(t *testing.T) {
	ctx := context.Background()
	store, conn := newTestStore(t)
	conn.FailExec = true
	if _, err := store.Create(ctx, domain.EntryFormData{}); !errors.Is(err, domain.ErrWriteFailed) {
		t.Fatalf("expected write failed on create, got %v", err)
	}
	if err := store.Update(ctx, "id", nil); !errors.Is(err, domain.ErrWriteFailed) {
		t.Fatalf("expected write failed on update, got %v", err)
	}
	if err := store.Delete(ctx, "id"); !errors.Is(err, domain.ErrWriteFailed) || !strings.Contains(err.Error(), "exec fail") {
		t.Fatalf("expected wrapped cause on delete, got %v", err)
	}
}

func TestCreateGeneratesUUIDs(t *testing.T) {
	store, _ := newTestStore(t)
	a, err := store.Create(context.Background(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := store.Create(context.Background(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == b.ID || len(a.ID) != 36 {
		t.Fatalf("expected distinct uuids, got %q %q", a.ID, b.ID)
	}
}
