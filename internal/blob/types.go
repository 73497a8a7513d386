// Package blob re-exports core blob abstractions and selects a driver.
package blob

import (
	"inventoryrecord/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrNotExist matches lookups of keys that are not stored.
	ErrNotExist = core.ErrNotExist
	// ErrExist matches create-only writes over an existing key.
	ErrExist = core.ErrExist
)
