// Package local implements the single-blob entry store: the whole collection
// is serialized as one JSON array and read or rewritten on every operation.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"inventoryrecord/pkg/domain"
)

// StorageKey is the fixed name the collection blob is stored under.
const StorageKey = "entries"

// Medium holds the serialized collection. Load reports found=false when no
// blob has been written yet.
type Medium interface {
	Load(ctx context.Context) (data []byte, found bool, err error)
	Save(ctx context.Context, data []byte) error
}

// Compile-time contract assertions.
var (
	_ domain.EntryStore  = (*Store)(nil)
	_ domain.Snapshotter = (*Store)(nil)
)

// Store implements domain.EntryStore over a Medium.
type Store struct {
	mu     sync.Mutex
	medium Medium
	nowFn  func() time.Time
}

// NewStore constructs a local store persisting to medium.
func NewStore(medium Medium) *Store {
	return &Store{
		medium: medium,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Medium returns the underlying blob holder.
func (s *Store) Medium() Medium { return s.medium }

// Variant reports domain.VariantLocal.
func (s *Store) Variant() domain.StoreVariant { return domain.VariantLocal }

// List decodes the blob. A missing or empty blob yields an empty collection.
func (s *Store) List(ctx context.Context) ([]domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Create appends a new entry with a timestamp-based id and rewrites the blob.
func (s *Store) Create(ctx context.Context, fields domain.EntryFormData) (domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load(ctx)
	if err != nil {
		return domain.Entry{}, domain.WriteFailed(err)
	}
	entry := domain.NewEntry(s.nextID(entries), fields)
	entries = append(entries, entry)
	if err := s.save(ctx, entries); err != nil {
		return domain.Entry{}, domain.WriteFailed(err)
	}
	return entry.Clone(), nil
}

// Update replaces the fields of the entry with id and rewrites the blob.
func (s *Store) Update(ctx context.Context, id string, fields domain.EntryFormData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load(ctx)
	if err != nil {
		return domain.WriteFailed(err)
	}
	idx := indexOf(entries, id)
	if idx < 0 {
		return domain.NotFoundError{ID: id}
	}
	entries[idx] = domain.NewEntry(id, fields)
	if err := s.save(ctx, entries); err != nil {
		return domain.WriteFailed(err)
	}
	return nil
}

// Delete removes the entry with id and rewrites the blob.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load(ctx)
	if err != nil {
		return domain.WriteFailed(err)
	}
	idx := indexOf(entries, id)
	if idx < 0 {
		return domain.NotFoundError{ID: id}
	}
	entries = append(entries[:idx], entries[idx+1:]...)
	if err := s.save(ctx, entries); err != nil {
		return domain.WriteFailed(err)
	}
	return nil
}

// Persist overwrites the blob with entries.
func (s *Store) Persist(ctx context.Context, entries []domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(ctx, entries); err != nil {
		return domain.WriteFailed(err)
	}
	return nil
}

// Close releases the medium when it holds resources.
func (s *Store) Close() error {
	if c, ok := s.medium.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Store) load(ctx context.Context) ([]domain.Entry, error) {
	data, found, err := s.medium.Load(ctx)
	if err != nil {
		return nil, domain.Unavailable(fmt.Errorf("load %s: %w", StorageKey, err))
	}
	entries := make([]domain.Entry, 0)
	data = bytes.TrimSpace(data)
	if !found || len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, domain.Unavailable(fmt.Errorf("decode %s: %w", StorageKey, err))
	}
	if entries == nil {
		entries = make([]domain.Entry, 0)
	}
	return entries, nil
}

func (s *Store) save(ctx context.Context, entries []domain.Entry) error {
	if entries == nil {
		entries = []domain.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode %s: %w", StorageKey, err)
	}
	if err := s.medium.Save(ctx, data); err != nil {
		return fmt.Errorf("save %s: %w", StorageKey, err)
	}
	return nil
}

// nextID returns the current Unix millisecond timestamp, bumped past any
// existing numeric id so two creations in the same millisecond stay unique.
func (s *Store) nextID(entries []domain.Entry) string {
	next := s.nowFn().UnixMilli()
	for _, e := range entries {
		if n, err := strconv.ParseInt(e.ID, 10, 64); err == nil && n >= next {
			next = n + 1
		}
	}
	return strconv.FormatInt(next, 10)
}

func indexOf(entries []domain.Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
