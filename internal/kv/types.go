// Package kv re-exports the slot abstraction and selects a backend from configuration.
package kv

import "mskboard/internal/kv/core"

type (
	// Driver identifies a slot backend driver.
	Driver = core.Driver
	// Store is the interface for slot backends.
	Store = core.Store
)

const (
	// DriverMemory is the in-process driver.
	DriverMemory = core.DriverMemory
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverSQLite is the embedded sqlite driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the PostgreSQL driver.
	DriverPostgres = core.DriverPostgres
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
)

// ErrNotFound indicates an absent key.
var ErrNotFound = core.ErrNotFound

// Drivers lists every supported driver.
func Drivers() []Driver { return core.Drivers() }
