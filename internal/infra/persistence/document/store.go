// Package document provides a remote entry store that keeps one JSON
// document per entry in a blob store, keyed `<prefix><id>.json`.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"inventoryrecord/internal/blob"
	"inventoryrecord/pkg/domain"
)

// DefaultPrefix namespaces entry documents inside the blob store.
const DefaultPrefix = "entries/"

const (
	docSuffix   = ".json"
	contentType = "application/json"
)

// Compile-time contract assertion.
var _ domain.EntryStore = (*Store)(nil)

// Store maps entry operations onto blob round trips.
type Store struct {
	blobs  blob.Store
	prefix string
	newID  func() string
}

// NewStore wraps blobs; an empty prefix selects DefaultPrefix.
func NewStore(blobs blob.Store, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{blobs: blobs, prefix: prefix, newID: uuid.NewString}
}

// Variant reports VariantRemote.
func (s *Store) Variant() domain.StoreVariant { return domain.VariantRemote }

// Blobs returns the underlying blob store.
func (s *Store) Blobs() blob.Store { return s.blobs }

func (s *Store) key(id string) string { return s.prefix + id + docSuffix }

func (s *Store) idFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, s.prefix)
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, docSuffix)
	if !ok || !addressable(id) {
		return "", false
	}
	return id, true
}

// addressable reports whether id can name a document on every blob driver.
// Other ids can never have been created or listed, so they are not found.
func addressable(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.Contains(id, "/") && !strings.Contains(id, "..")
}

// List enumerates the prefix and reads every document.
func (s *Store) List(ctx context.Context) ([]domain.Entry, error) {
	infos, err := s.blobs.List(ctx, s.prefix)
	if err != nil {
		return nil, domain.Unavailable(fmt.Errorf("list %s: %w", s.prefix, err))
	}
	entries := make([]domain.Entry, 0, len(infos))
	for _, info := range infos {
		id, ok := s.idFromKey(info.Key)
		if !ok {
			continue
		}
		entry, err := s.read(ctx, id)
		if errors.Is(err, blob.ErrNotExist) {
			// removed between list and read
			continue
		}
		if err != nil {
			return nil, domain.Unavailable(err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) read(ctx context.Context, id string) (domain.Entry, error) {
	_, rc, err := s.blobs.Get(ctx, s.key(id))
	if err != nil {
		return domain.Entry{}, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("read entry %s: %w", id, err)
	}
	var fields domain.EntryFormData
	if err := json.Unmarshal(data, &fields); err != nil {
		return domain.Entry{}, fmt.Errorf("decode entry %s: %w", id, err)
	}
	return domain.NewEntry(id, fields), nil
}

// Create writes a new document under a generated key.
func (s *Store) Create(ctx context.Context, fields domain.EntryFormData) (domain.Entry, error) {
	entry := domain.NewEntry(s.newID(), fields)
	if err := s.write(ctx, entry.ID, entry.Fields, false); err != nil {
		return domain.Entry{}, domain.WriteFailed(err)
	}
	return entry, nil
}

// Update overwrites the document for id only if it already exists.
func (s *Store) Update(ctx context.Context, id string, fields domain.EntryFormData) error {
	if !addressable(id) {
		return domain.NotFoundError{ID: id}
	}
	if _, err := s.blobs.Head(ctx, s.key(id)); err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			return domain.NotFoundError{ID: id}
		}
		return domain.WriteFailed(err)
	}
	if err := s.write(ctx, id, fields.Normalize(), true); err != nil {
		return domain.WriteFailed(err)
	}
	return nil
}

// Delete removes the document for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if !addressable(id) {
		return domain.NotFoundError{ID: id}
	}
	existed, err := s.blobs.Delete(ctx, s.key(id))
	if err != nil {
		return domain.WriteFailed(fmt.Errorf("delete entry %s: %w", id, err))
	}
	if !existed {
		return domain.NotFoundError{ID: id}
	}
	return nil
}

func (s *Store) write(ctx context.Context, id string, fields domain.EntryFormData, overwrite bool) error {
	data, err := json.Marshal(map[string]string(fields))
	if err != nil {
		return fmt.Errorf("encode entry %s: %w", id, err)
	}
	if _, err := s.blobs.Put(ctx, s.key(id), bytes.NewReader(data), blob.PutOptions{ContentType: contentType, Overwrite: overwrite}); err != nil {
		return fmt.Errorf("put entry %s: %w", id, err)
	}
	return nil
}
