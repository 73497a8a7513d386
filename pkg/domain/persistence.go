package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared by every store backend. Backends wrap the underlying
// cause so both the kind and the cause survive errors.Is / errors.Unwrap.
var (
	// ErrStoreUnavailable reports that the collection could not be read.
	ErrStoreUnavailable = errors.New("entry store unavailable")
	// ErrWriteFailed reports that a create, update or delete was rejected.
	ErrWriteFailed = errors.New("entry store write failed")
	// ErrNotFound reports that an update or delete target does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrValidationFailed reports a required field left empty.
	ErrValidationFailed = errors.New("entry validation failed")
)

// NotFoundError identifies the missing entry and matches ErrNotFound.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("entry %s not found", e.ID)
}

// Is reports whether target is ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError lists the required fields that were left empty.
type ValidationError struct {
	Missing []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// Is reports whether target is ErrValidationFailed.
func (e ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// Unavailable wraps cause as an ErrStoreUnavailable failure.
func Unavailable(cause error) error {
	if cause == nil {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, cause)
}

// WriteFailed wraps cause as an ErrWriteFailed failure. Not-found causes
// are returned unchanged so callers can distinguish them.
func WriteFailed(cause error) error {
	if cause == nil {
		return ErrWriteFailed
	}
	if errors.Is(cause, ErrNotFound) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrWriteFailed, cause)
}

// StoreVariant distinguishes the single-blob local stores from the
// per-document remote stores.
type StoreVariant string

const (
	// VariantLocal stores serialize the whole collection as one blob.
	VariantLocal StoreVariant = "local"
	// VariantRemote stores keep one document per entry.
	VariantRemote StoreVariant = "remote"
)

// EntryStore is the persistence contract shared by every backend.
type EntryStore interface {
	// List returns the full current collection.
	List(ctx context.Context) ([]Entry, error)
	// Create persists a new record and returns it with an assigned id.
	Create(ctx context.Context, fields EntryFormData) (Entry, error)
	// Update fully replaces the fields of the named record.
	Update(ctx context.Context, id string, fields EntryFormData) error
	// Delete removes the named record.
	Delete(ctx context.Context, id string) error
	// Variant reports whether the store is local or remote.
	Variant() StoreVariant
}

// Snapshotter is implemented by stores that can overwrite their whole
// collection at once. Callers use it to write an in-memory collection
// through after each mutation.
type Snapshotter interface {
	Persist(ctx context.Context, entries []Entry) error
}

// Closer is implemented by stores holding connections or file handles.
type Closer interface {
	Close() error
}
