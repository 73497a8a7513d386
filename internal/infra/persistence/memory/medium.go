// Package memory provides an in-process blob medium for the local entry
// store, used by tests and ephemeral runs.
package memory

import (
	"context"
	"sync"
)

// Medium keeps the collection blob in memory. LoadErr and SaveErr inject
// failures for tests.
type Medium struct {
	mu      sync.RWMutex
	data    []byte
	found   bool
	loads   int
	saves   int
	LoadErr error
	SaveErr error
}

// NewMedium returns an empty medium.
func NewMedium() *Medium { return &Medium{} }

// NewMediumWith returns a medium pre-seeded with data.
func NewMediumWith(data []byte) *Medium {
	return &Medium{data: append([]byte(nil), data...), found: true}
}

// Load returns a copy of the blob.
func (m *Medium) Load(_ context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.LoadErr != nil {
		return nil, false, m.LoadErr
	}
	if !m.found {
		return nil, false, nil
	}
	return append([]byte(nil), m.data...), true, nil
}

// Save replaces the blob with a copy of data.
func (m *Medium) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data = append([]byte(nil), data...)
	m.found = true
	return nil
}

// Bytes returns a copy of the current blob.
func (m *Medium) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.data...)
}

// Counts reports how many loads and saves were attempted.
func (m *Medium) Counts() (loads, saves int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads, m.saves
}
