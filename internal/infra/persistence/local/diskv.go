package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/peterbourgon/diskv/v3"
)

// DefaultDiskvPath is the data directory used when none is configured.
const DefaultDiskvPath = "~/.inventory-record"

// DiskvMedium stores the collection blob as a single diskv value.
type DiskvMedium struct {
	d        *diskv.Diskv
	basePath string
	key      string
}

// NewDiskvMedium opens a diskv directory at basePath, expanding a leading ~.
func NewDiskvMedium(basePath string) (*DiskvMedium, error) {
	if basePath == "" {
		basePath = DefaultDiskvPath
	}
	expanded, err := homedir.Expand(basePath)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", basePath, err)
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", expanded, err)
	}
	d := diskv.New(diskv.Options{
		BasePath:     expanded,
		TempDir:      filepath.Join(expanded, ".tmp"),
		CacheSizeMax: 1024 * 1024, // 1MB
	})
	return &DiskvMedium{d: d, basePath: expanded, key: StorageKey}, nil
}

// BasePath returns the expanded data directory.
func (m *DiskvMedium) BasePath() string { return m.basePath }

// Load reads the blob; found is false when it was never written.
func (m *DiskvMedium) Load(_ context.Context) ([]byte, bool, error) {
	if !m.d.Has(m.key) {
		return nil, false, nil
	}
	data, err := m.d.Read(m.key)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Save overwrites the blob. diskv writes through TempDir and renames into
// place, so readers never observe a partial collection.
func (m *DiskvMedium) Save(_ context.Context, data []byte) error {
	return m.d.Write(m.key, data)
}
