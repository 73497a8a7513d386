package core

import (
	"context"
	"fmt"

	"inventoryrecord/internal/blob"
	"inventoryrecord/internal/infra/persistence/document"
	"inventoryrecord/internal/infra/persistence/local"
	"inventoryrecord/internal/infra/persistence/memory"
	"inventoryrecord/internal/infra/persistence/postgres"
	"inventoryrecord/internal/infra/persistence/sqlite"
	"inventoryrecord/pkg/domain"
)

// StorageDriver identifies a concrete entry store implementation.
type StorageDriver string

const (
	StorageDiskv    StorageDriver = "diskv"    // local blob file under a data directory (default)
	StorageSQLite   StorageDriver = "sqlite"   // local blob row in an embedded sqlite file
	StorageMemory   StorageDriver = "memory"   // local blob in process memory (tests / ephemeral)
	StoragePostgres StorageDriver = "postgres" // remote document per row
	StorageBlob     StorageDriver = "blob"     // remote document per object (fs, s3, memory)
)

// StorageDrivers lists every accepted driver name.
func StorageDrivers() []StorageDriver {
	return []StorageDriver{StorageDiskv, StorageSQLite, StorageMemory, StoragePostgres, StorageBlob}
}

// StorageConfig carries the settings for every driver; only the selected
// driver's fields are read.
type StorageConfig struct {
	Driver      StorageDriver
	DiskvPath   string
	SQLitePath  string
	PostgresDSN string
	Blob        blob.Config
	BlobPrefix  string
}

// OpenEntryStore constructs the store selected by cfg. An empty driver
// selects diskv.
func OpenEntryStore(ctx context.Context, cfg StorageConfig) (domain.EntryStore, error) {
	switch cfg.Driver {
	case "", StorageDiskv:
		medium, err := local.NewDiskvMedium(cfg.DiskvPath)
		if err != nil {
			return nil, err
		}
		return local.NewStore(medium), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case StorageMemory:
		return local.NewStore(memory.NewMedium()), nil
	case StoragePostgres:
		return postgres.NewStore(cfg.PostgresDSN)
	case StorageBlob:
		blobs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, err
		}
		return document.NewStore(blobs, cfg.BlobPrefix), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
